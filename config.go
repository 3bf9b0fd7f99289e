package samunu

import (
	"errors"
	"strings"
	"time"
)

// Config groups the gate's tunables. Zero values are filled with the
// defaults below during [Builder.Build]; a Config is treated as
// immutable after the engine is built.
type Config struct {
	Identity   IdentityConfig
	Submission SubmissionConfig
	Gate       GateConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// IdentityConfig locates the external identity provider. BaseURL is
// only consulted when no explicit [identity.Client] is supplied to the
// builder.
type IdentityConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SubmissionConfig bounds one submission attempt.
//
// Timeout caps the identity round trip; a submission that exceeds it
// resolves as an unexpected failure instead of pinning the form in the
// submitting phase. Callback URLs are the post-authentication
// destinations handed to the provider per mode.
type SubmissionConfig struct {
	Timeout           time.Duration
	SignInCallbackURL string
	SignUpCallbackURL string
}

// GateConfig configures the session gate. SignInPath is the redirect
// target for requests without an active session.
type GateConfig struct {
	SignInPath string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters and the submit-latency
// histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	defaultSubmissionTimeout = 15 * time.Second
	defaultIdentityTimeout   = 10 * time.Second
	defaultSignInPath        = "/sign-in"
	appRootPath              = "/"
)

// DefaultConfig returns the configuration the original application
// ships with: 15s submission timeout, sign-in lands on the application
// root, sign-up points back at the sign-in page, audit and metrics on.
func DefaultConfig() Config {
	return Config{
		Identity: IdentityConfig{
			Timeout: defaultIdentityTimeout,
		},
		Submission: SubmissionConfig{
			Timeout:           defaultSubmissionTimeout,
			SignInCallbackURL: appRootPath,
			SignUpCallbackURL: defaultSignInPath,
		},
		Gate: GateConfig{
			SignInPath: defaultSignInPath,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate rejects configurations the engine cannot honor. It runs
// after defaults are applied in [Builder.Build].
func (c Config) Validate() error {
	if c.Submission.Timeout <= 0 {
		return errors.New("submission timeout must be positive")
	}
	if c.Identity.Timeout < 0 {
		return errors.New("identity timeout must not be negative")
	}
	if !strings.HasPrefix(c.Gate.SignInPath, "/") {
		return errors.New("gate sign-in path must be absolute")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Identity.Timeout == 0 {
		c.Identity.Timeout = d.Identity.Timeout
	}
	if c.Submission.Timeout == 0 {
		c.Submission.Timeout = d.Submission.Timeout
	}
	if c.Submission.SignInCallbackURL == "" {
		c.Submission.SignInCallbackURL = d.Submission.SignInCallbackURL
	}
	if c.Submission.SignUpCallbackURL == "" {
		c.Submission.SignUpCallbackURL = d.Submission.SignUpCallbackURL
	}
	if c.Gate.SignInPath == "" {
		c.Gate.SignInPath = d.Gate.SignInPath
	}
	if c.Audit.Enabled && c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = d.Audit.BufferSize
	}
	return c
}
