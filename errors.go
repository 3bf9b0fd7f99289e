package samunu

import "errors"

var (
	// ErrEngineNotReady is returned when a Submission is used before its
	// Engine was built.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrSubmissionInFlight is returned when Submit is called while a
	// previous submission on the same form instance is still outstanding.
	// The in-flight attempt is not disturbed.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrIdentityUnavailable wraps session lookups that failed because
	// the identity provider could not be consulted.
	ErrIdentityUnavailable = errors.New("identity service unavailable")
)
