package samunu

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nestorzamili/samunu-project/identity"
)

// Submission is the per-form-instance controller driving one sign-in or
// sign-up attempt at a time through the state machine
// Idle → Submitting → Succeeded | Failed.
//
// At most one submission is in flight per instance; a concurrent Submit
// is refused with [ErrSubmissionInFlight] and does not disturb the
// outstanding attempt. This is enforced here, not by UI affordances.
// Across instances there is no shared state: independent forms may
// submit concurrently through the same engine.
type Submission struct {
	engine *Engine

	inFlight atomic.Bool

	mu    sync.Mutex
	state SubmissionState
}

// State returns the current renderable state. The zero state is idle.
func (s *Submission) State() SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset returns a terminal submission to the idle phase so the form can
// start a fresh cycle. It is a no-op while a submission is in flight.
func (s *Submission) Reset() {
	if s.inFlight.Load() {
		return
	}
	s.setState(PhaseIdle, "")
}

func (s *Submission) setState(phase Phase, message string) {
	s.mu.Lock()
	s.state = SubmissionState{Phase: phase, Message: message}
	s.mu.Unlock()
}

// Submit runs one authentication attempt: validate, call the identity
// provider, interpret the outcome. Validation failures stop the attempt
// before the submitting phase and come back as FieldErrors. Provider
// and transport failures are absorbed into the returned result and the
// failed state; they are never re-thrown. The provider round trip is
// bounded by Config.Submission.Timeout.
//
// The only error returns are contract violations: ErrEngineNotReady and
// ErrSubmissionInFlight.
func (s *Submission) Submit(ctx context.Context, cred Credential, mode Mode) (SubmitResult, error) {
	if s == nil || s.engine == nil || s.engine.identity == nil {
		return SubmitResult{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		s.engine.metrics.Inc(MetricSubmissionRejectedInFlight)
		return SubmitResult{}, ErrSubmissionInFlight
	}
	// Terminal transitions below re-open the instance for the next
	// attempt.
	defer s.inFlight.Store(false)

	if errs := validateCredential(cred, mode); !errs.Valid() {
		s.engine.metrics.Inc(MetricValidationRejected)
		return SubmitResult{FieldErrors: errs}, nil
	}

	s.setState(PhaseSubmitting, "")

	cfg := s.engine.config.Submission
	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	var (
		resp *identity.AuthResponse
		err  error
	)
	if mode == ModeSignUp {
		resp, err = s.engine.identity.SignUpEmail(callCtx, identity.SignUpInput{
			Name:        cred.Name,
			Email:       cred.Email,
			Password:    cred.Password,
			CallbackURL: cfg.SignUpCallbackURL,
		})
	} else {
		resp, err = s.engine.identity.SignInEmail(callCtx, identity.SignInInput{
			Email:       cred.Email,
			Password:    cred.Password,
			CallbackURL: cfg.SignInCallbackURL,
		})
	}
	s.engine.metrics.Observe(MetricSubmitLatency, time.Since(start))

	switch {
	case err != nil:
		return s.unexpected(ctx, mode, cred.Email, err), nil
	case resp != nil && resp.Err != nil:
		return s.failed(ctx, mode, cred.Email, resp.Err), nil
	case resp == nil || resp.Data == nil:
		return s.unexpected(ctx, mode, cred.Email, identity.ErrMalformedResponse), nil
	default:
		return s.succeeded(ctx, mode, cred.Email, resp.Data), nil
	}
}

func (s *Submission) succeeded(ctx context.Context, mode Mode, email string, data *identity.AuthData) SubmitResult {
	e := s.engine

	if mode == ModeSignUp {
		s.setState(PhaseSucceeded, signUpSuccessMessage)
		e.metrics.Inc(MetricSignUpSuccess)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventSignUpSuccess,
			Email:     email,
			UserID:    data.User.ID,
			IP:        clientIPFromContext(ctx),
			Success:   true,
		})
		// No navigation: the confirmation banner is rendered in place so
		// the user can read the verification notice.
		return SubmitResult{
			Outcome:   AuthOutcome{Kind: OutcomeSuccess, Message: signUpSuccessMessage},
			ResetForm: true,
		}
	}

	s.setState(PhaseSucceeded, "")
	e.metrics.Inc(MetricSignInSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventSignInSuccess,
		Email:     email,
		UserID:    data.User.ID,
		IP:        clientIPFromContext(ctx),
		Success:   true,
	})

	return SubmitResult{
		Outcome:  AuthOutcome{Kind: OutcomeSuccess},
		Redirect: s.engine.config.Submission.SignInCallbackURL,
		Refresh:  true,
	}
}

func (s *Submission) failed(ctx context.Context, mode Mode, email string, perr *identity.Error) SubmitResult {
	e := s.engine

	message := Resolve(mode, perr.Code, perr.Message)
	s.setState(PhaseFailed, message)

	if mode == ModeSignUp {
		e.metrics.Inc(MetricSignUpFailure)
	} else {
		e.metrics.Inc(MetricSignInFailure)
	}

	eventType := auditEventSignInFailure
	if mode == ModeSignUp {
		eventType = auditEventSignUpFailure
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: eventType,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Error:     perr.Code,
	})

	return SubmitResult{
		Outcome: AuthOutcome{Kind: OutcomeFailure, Code: perr.Code, Message: message},
	}
}

func (s *Submission) unexpected(ctx context.Context, mode Mode, email string, cause error) SubmitResult {
	e := s.engine

	s.setState(PhaseFailed, unexpectedFailureMessage)

	if mode == ModeSignUp {
		e.metrics.Inc(MetricSignUpUnexpected)
	} else {
		e.metrics.Inc(MetricSignInUnexpected)
	}

	// Logged for diagnostics, never propagated to the caller.
	e.logger.Error("submission failed unexpectedly",
		zap.String("mode", mode.String()),
		zap.Error(cause),
	)

	eventType := auditEventSignInUnexpected
	if mode == ModeSignUp {
		eventType = auditEventSignUpUnexpected
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: eventType,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Error:     cause.Error(),
	})

	return SubmitResult{
		Outcome: AuthOutcome{Kind: OutcomeUnexpected, Message: unexpectedFailureMessage},
	}
}
