// Package samunu implements the authentication gate of the Samunu
// application: pure credential validation, the sign-in/sign-up
// submission state machine, the provider error taxonomy, and the
// session check that keeps protected content from being produced
// before an active session is confirmed.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], [Submission], and value types (Credential, ValidationResult,
// AuthOutcome, SubmissionState). Credential rules live under internal/
// and are never exported directly. The identity provider is consumed
// only through [identity.Client]; request guarding lives in the
// middleware subpackage.
//
// # Architecture boundaries
//
// Submission outcomes are data, not control flow: validation errors
// never reach the provider, and provider or transport failures never
// escape [Submission.Submit] as Go errors; they are absorbed into the
// submission state the UI renders. The only control transfer in the
// system is the middleware redirect on a missing session.
//
// # What this package must NOT do
//
//   - Store, refresh, or inspect provider session tokens.
//   - Cache session lookups across requests; the provider is the sole
//     source of truth.
//   - Surface raw provider error codes to users; every code passes
//     through [Resolve].
package samunu
