package samunu

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/nestorzamili/samunu-project/identity"
)

// fakeIdentity scripts provider behavior per call. The zero value
// succeeds every operation with a fixed user.
type fakeIdentity struct {
	mu sync.Mutex

	signInResp *identity.AuthResponse
	signInErr  error
	signUpResp *identity.AuthResponse
	signUpErr  error

	sessionResp *identity.Session
	sessionErr  error

	// block, when non-nil, stalls provider calls until closed.
	block chan struct{}

	signInCalls []identity.SignInInput
	signUpCalls []identity.SignUpInput
}

func successEnvelope() *identity.AuthResponse {
	return &identity.AuthResponse{
		Data: &identity.AuthData{
			Token: "tok-1",
			User: identity.User{
				ID:            "user-1",
				Name:          "Alice",
				Email:         "alice@example.com",
				EmailVerified: true,
			},
		},
	}
}

func failureEnvelope(code, message string) *identity.AuthResponse {
	return &identity.AuthResponse{
		Err: &identity.Error{Code: code, Message: message},
	}
}

func (f *fakeIdentity) wait(ctx context.Context) error {
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeIdentity) SignInEmail(ctx context.Context, in identity.SignInInput) (*identity.AuthResponse, error) {
	f.mu.Lock()
	f.signInCalls = append(f.signInCalls, in)
	resp, err := f.signInResp, f.signInErr
	f.mu.Unlock()

	if werr := f.wait(ctx); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = successEnvelope()
	}
	return resp, nil
}

func (f *fakeIdentity) SignUpEmail(ctx context.Context, in identity.SignUpInput) (*identity.AuthResponse, error) {
	f.mu.Lock()
	f.signUpCalls = append(f.signUpCalls, in)
	resp, err := f.signUpResp, f.signUpErr
	f.mu.Unlock()

	if werr := f.wait(ctx); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = successEnvelope()
	}
	return resp, nil
}

func (f *fakeIdentity) GetSession(ctx context.Context, headers http.Header) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionResp, f.sessionErr
}

func newTestEngine(t *testing.T, client identity.Client) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Audit.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithIdentityClient(client).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func validSignIn() Credential {
	return Credential{Email: "alice@example.com", Password: "correct-password"}
}

func validSignUp() Credential {
	return Credential{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "correct-password",
		ConfirmPassword: "correct-password",
	}
}

func TestSubmitSignInSuccess(t *testing.T) {
	fake := &fakeIdentity{}
	engine := newTestEngine(t, fake)
	sub := engine.NewSubmission()

	res, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if res.Outcome.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %v, want success", res.Outcome.Kind)
	}
	if res.Redirect != "/" {
		t.Fatalf("redirect = %q, want %q", res.Redirect, "/")
	}
	if !res.Refresh {
		t.Fatal("sign-in success must request a refresh")
	}
	if res.ResetForm {
		t.Fatal("sign-in success must not reset the form")
	}
	if got := sub.State(); got.Phase != PhaseSucceeded {
		t.Fatalf("phase = %v, want succeeded", got.Phase)
	}

	if len(fake.signInCalls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(fake.signInCalls))
	}
	if fake.signInCalls[0].CallbackURL != "/" {
		t.Fatalf("callback URL = %q, want %q", fake.signInCalls[0].CallbackURL, "/")
	}
}

func TestSubmitSignUpSuccess(t *testing.T) {
	fake := &fakeIdentity{}
	engine := newTestEngine(t, fake)
	sub := engine.NewSubmission()

	res, err := sub.Submit(context.Background(), validSignUp(), ModeSignUp)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if res.Outcome.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %v, want success", res.Outcome.Kind)
	}
	if res.Outcome.Message != "Registration successful! Please check your email to verify your account." {
		t.Fatalf("message = %q", res.Outcome.Message)
	}
	if res.Redirect != "" {
		t.Fatalf("sign-up success must stay in place, got redirect %q", res.Redirect)
	}
	if !res.ResetForm {
		t.Fatal("sign-up success must reset the form")
	}

	state := sub.State()
	if state.Phase != PhaseSucceeded || state.Message != res.Outcome.Message {
		t.Fatalf("state = %+v", state)
	}

	if len(fake.signUpCalls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(fake.signUpCalls))
	}
	if fake.signUpCalls[0].CallbackURL != "/sign-in" {
		t.Fatalf("callback URL = %q, want %q", fake.signUpCalls[0].CallbackURL, "/sign-in")
	}
}

func TestSubmitFailureMapsProviderCode(t *testing.T) {
	cases := []struct {
		name string
		mode Mode
		resp *identity.AuthResponse
		want string
	}{
		{
			"sign-in invalid credentials",
			ModeSignIn,
			failureEnvelope(CodeInvalidCredentials, "provider text"),
			"Invalid email or password",
		},
		{
			"sign-in unverified email",
			ModeSignIn,
			failureEnvelope(CodeMissingEmailVerification, ""),
			"Please verify your email before logging in",
		},
		{
			"sign-in blocked",
			ModeSignIn,
			failureEnvelope(CodeUserBlocked, ""),
			"Your account has been blocked. Please contact support.",
		},
		{
			"sign-up duplicate",
			ModeSignUp,
			failureEnvelope(CodeUserAlreadyExists, ""),
			"This email address is already registered.",
		},
		{
			"sign-up unknown code falls back to provider message",
			ModeSignUp,
			failureEnvelope("AuthBrandNew", "Something specific"),
			"Something specific",
		},
		{
			"sign-in empty envelope falls back",
			ModeSignIn,
			failureEnvelope("", ""),
			"Invalid email or password",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeIdentity{signInResp: tc.resp, signUpResp: tc.resp}
			engine := newTestEngine(t, fake)
			sub := engine.NewSubmission()

			cred := validSignIn()
			if tc.mode == ModeSignUp {
				cred = validSignUp()
			}

			res, err := sub.Submit(context.Background(), cred, tc.mode)
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}

			if res.Outcome.Kind != OutcomeFailure {
				t.Fatalf("outcome = %v, want failure", res.Outcome.Kind)
			}
			if res.Outcome.Message != tc.want {
				t.Fatalf("message = %q, want %q", res.Outcome.Message, tc.want)
			}

			state := sub.State()
			if state.Phase != PhaseFailed || state.Message != tc.want {
				t.Fatalf("state = %+v", state)
			}
		})
	}
}

func TestSubmitTransportErrorIsUnexpected(t *testing.T) {
	fake := &fakeIdentity{signInErr: errors.New("connection refused")}
	engine := newTestEngine(t, fake)
	sub := engine.NewSubmission()

	res, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn)
	if err != nil {
		t.Fatalf("transport failures must be absorbed, got error %v", err)
	}

	if res.Outcome.Kind != OutcomeUnexpected {
		t.Fatalf("outcome = %v, want unexpected", res.Outcome.Kind)
	}
	if res.Outcome.Message != "An unexpected error occurred. Please try again." {
		t.Fatalf("message = %q", res.Outcome.Message)
	}
	if got := sub.State(); got.Phase != PhaseFailed {
		t.Fatalf("phase = %v, want failed", got.Phase)
	}
}

func TestSubmitMalformedEnvelopeIsUnexpected(t *testing.T) {
	fake := &fakeIdentity{signInResp: &identity.AuthResponse{}}
	engine := newTestEngine(t, fake)

	res, err := engine.NewSubmission().Submit(context.Background(), validSignIn(), ModeSignIn)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Outcome.Kind != OutcomeUnexpected {
		t.Fatalf("outcome = %v, want unexpected", res.Outcome.Kind)
	}
}

func TestSubmitValidationStopsBeforeProvider(t *testing.T) {
	fake := &fakeIdentity{}
	engine := newTestEngine(t, fake)
	sub := engine.NewSubmission()

	res, err := sub.Submit(context.Background(), Credential{Email: "a@b.com", Password: "short"}, ModeSignIn)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if res.FieldErrors.Valid() {
		t.Fatal("expected field errors")
	}
	if len(res.FieldErrors) != 1 {
		t.Fatalf("field errors = %v, want password only", res.FieldErrors)
	}
	if res.FieldErrors[FieldPassword] != "Password must be at least 8 characters long" {
		t.Fatalf("password error = %q", res.FieldErrors[FieldPassword])
	}

	if got := sub.State(); got.Phase != PhaseIdle {
		t.Fatalf("validation failure must not enter submitting, phase = %v", got.Phase)
	}
	if len(fake.signInCalls) != 0 {
		t.Fatal("provider must not be called when validation fails")
	}
}

func TestSubmitSignUpMismatchBlocked(t *testing.T) {
	fake := &fakeIdentity{}
	engine := newTestEngine(t, fake)

	res, err := engine.NewSubmission().Submit(context.Background(), Credential{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "longenough1",
		ConfirmPassword: "different",
	}, ModeSignUp)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if res.FieldErrors[FieldConfirmPassword] != "Passwords don't match." {
		t.Fatalf("confirm error = %q", res.FieldErrors[FieldConfirmPassword])
	}
	if _, ok := res.FieldErrors[FieldPassword]; ok {
		t.Fatalf("mismatch duplicated on password: %v", res.FieldErrors)
	}
	if len(fake.signUpCalls) != 0 {
		t.Fatal("provider must not be called when validation fails")
	}
}

func TestSubmitRejectsConcurrentAttempt(t *testing.T) {
	fake := &fakeIdentity{block: make(chan struct{})}
	engine := newTestEngine(t, fake)
	sub := engine.NewSubmission()

	firstDone := make(chan SubmitResult, 1)
	go func() {
		res, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn)
		if err != nil {
			t.Errorf("first Submit failed: %v", err)
		}
		firstDone <- res
	}()

	// Wait until the first attempt is inside the provider call.
	deadline := time.After(2 * time.Second)
	for sub.State().Phase != PhaseSubmitting {
		select {
		case <-deadline:
			t.Fatal("first submission never reached the submitting phase")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn)
	if !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("second Submit error = %v, want ErrSubmissionInFlight", err)
	}

	close(fake.block)
	res := <-firstDone
	if res.Outcome.Kind != OutcomeSuccess {
		t.Fatalf("first submission outcome = %v, want success", res.Outcome.Kind)
	}

	// The rejection must not have consumed the instance.
	if _, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn); err != nil {
		t.Fatalf("instance not reusable after rejection: %v", err)
	}
}

func TestSubmitTimeoutBecomesUnexpected(t *testing.T) {
	fake := &fakeIdentity{block: make(chan struct{})}
	defer close(fake.block)

	cfg := DefaultConfig()
	cfg.Audit.Enabled = false
	cfg.Submission.Timeout = 20 * time.Millisecond

	engine, err := New().WithConfig(cfg).WithIdentityClient(fake).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	res, err := engine.NewSubmission().Submit(context.Background(), validSignIn(), ModeSignIn)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Outcome.Kind != OutcomeUnexpected {
		t.Fatalf("outcome = %v, want unexpected after timeout", res.Outcome.Kind)
	}
}

func TestSubmissionReset(t *testing.T) {
	fake := &fakeIdentity{signInResp: failureEnvelope(CodeInvalidCredentials, "")}
	engine := newTestEngine(t, fake)
	sub := engine.NewSubmission()

	if _, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sub.State().Phase != PhaseFailed {
		t.Fatalf("phase = %v, want failed", sub.State().Phase)
	}

	sub.Reset()
	state := sub.State()
	if state.Phase != PhaseIdle || state.Message != "" {
		t.Fatalf("state after reset = %+v", state)
	}

	// A fresh cycle runs normally after reset.
	fake.mu.Lock()
	fake.signInResp = nil
	fake.mu.Unlock()
	res, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn)
	if err != nil {
		t.Fatalf("Submit after reset failed: %v", err)
	}
	if res.Outcome.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %v, want success", res.Outcome.Kind)
	}
}

func TestSubmitNilEngineNotReady(t *testing.T) {
	var sub Submission
	if _, err := sub.Submit(context.Background(), validSignIn(), ModeSignIn); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("error = %v, want ErrEngineNotReady", err)
	}
}

func TestIndependentSubmissionsDoNotInterfere(t *testing.T) {
	fake := &fakeIdentity{block: make(chan struct{})}
	engine := newTestEngine(t, fake)

	busy := engine.NewSubmission()
	go func() {
		_, _ = busy.Submit(context.Background(), validSignIn(), ModeSignIn)
	}()

	deadline := time.After(2 * time.Second)
	for busy.State().Phase != PhaseSubmitting {
		select {
		case <-deadline:
			t.Fatal("submission never reached the submitting phase")
		case <-time.After(time.Millisecond):
		}
	}

	// A different form instance must not be refused by the in-flight
	// one: it proceeds into its own provider call.
	other := engine.NewSubmission()
	done := make(chan error, 1)
	go func() {
		_, err := other.Submit(context.Background(), validSignIn(), ModeSignIn)
		done <- err
	}()

	deadline = time.After(2 * time.Second)
	for other.State().Phase != PhaseSubmitting {
		select {
		case <-deadline:
			t.Fatal("independent submission blocked on another instance")
		case <-time.After(time.Millisecond):
		}
	}

	close(fake.block)
	if err := <-done; err != nil {
		t.Fatalf("independent Submit failed: %v", err)
	}
}
