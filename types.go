package samunu

import (
	"github.com/nestorzamili/samunu-project/identity"
)

// Mode selects which authentication operation a credential is submitted
// to and which taxonomy table resolves its provider errors.
type Mode uint8

const (
	// ModeSignIn exchanges email+password for a session.
	ModeSignIn Mode = iota
	// ModeSignUp registers a new account; adds name and confirmPassword
	// to the credential.
	ModeSignUp
)

func (m Mode) String() string {
	switch m {
	case ModeSignIn:
		return "sign-in"
	case ModeSignUp:
		return "sign-up"
	default:
		return "unknown"
	}
}

// Field keys used by [ValidationResult]. They match the form field
// names the UI renders errors next to.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Credential is the user-supplied identity material for one
// authentication attempt. Name and ConfirmPassword are consulted only
// in [ModeSignUp].
type Credential struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ValidationResult maps a field key to at most one error message.
// An empty result means the credential is submittable.
type ValidationResult map[string]string

// Valid reports whether no field carries an error.
func (r ValidationResult) Valid() bool {
	return len(r) == 0
}

// OutcomeKind tags an [AuthOutcome].
type OutcomeKind uint8

const (
	// OutcomeNone means the attempt stopped on validation and no
	// provider round trip happened.
	OutcomeNone OutcomeKind = iota
	// OutcomeSuccess is a provider-confirmed authentication.
	OutcomeSuccess
	// OutcomeFailure is a provider-declined attempt carrying an
	// optional code and message.
	OutcomeFailure
	// OutcomeUnexpected is a transport-level or otherwise unclassified
	// failure, already reduced to a generic message.
	OutcomeUnexpected
)

// AuthOutcome is the interpreted result of one submission. Message is
// always user-facing; Code is the raw provider code when one was
// returned.
type AuthOutcome struct {
	Kind    OutcomeKind
	Code    string
	Message string
}

// Phase is the position of a form instance in the submission state
// machine.
type Phase uint8

const (
	// PhaseIdle accepts a new submission.
	PhaseIdle Phase = iota
	// PhaseSubmitting has a provider round trip outstanding.
	PhaseSubmitting
	// PhaseSucceeded is terminal for the completed attempt; a new
	// submission is permitted.
	PhaseSucceeded
	// PhaseFailed carries the banner message of the failed attempt.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmissionState is the renderable state of one form instance.
// Message is the form-level banner: a failure explanation in
// [PhaseFailed], or the sign-up confirmation notice in [PhaseSucceeded].
type SubmissionState struct {
	Phase   Phase
	Message string
}

// SubmitResult is returned by [Submission.Submit]. Exactly one of
// FieldErrors (validation stop) or Outcome (provider round trip) is
// meaningful; Redirect/Refresh/ResetForm are UI directives.
type SubmitResult struct {
	Outcome     AuthOutcome
	FieldErrors ValidationResult

	// Redirect, when non-empty, is the navigation target after a
	// successful sign-in. Refresh asks the UI to force a data refresh
	// after navigating.
	Redirect string
	Refresh  bool

	// ResetForm asks the UI to clear its inputs; set after a
	// successful sign-up so the confirmation banner shows over an
	// empty form.
	ResetForm bool
}

// Session is the provider-owned session record, re-exported for
// callers that do not import the identity package directly.
type Session = identity.Session

// User is the provider-owned account record inside a [Session].
type User = identity.User
