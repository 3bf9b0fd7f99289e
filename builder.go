package samunu

import (
	"errors"

	"go.uber.org/zap"

	"github.com/nestorzamili/samunu-project/identity"
)

// Builder assembles an [Engine]. Configure it during initialization and
// call [Builder.Build] exactly once.
type Builder struct {
	config Config

	identity  identity.Client
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New returns a builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithIdentityClient supplies the identity-provider client. When
// omitted, Build constructs an [identity.HTTPClient] from
// Config.Identity.BaseURL.
func (b *Builder) WithIdentityClient(client identity.Client) *Builder {
	b.identity = client
	return b
}

// WithLogger supplies the diagnostics logger. Unexpected submission
// failures and gate lookup errors are logged here; nothing else is.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink supplies the audit sink. Ignored unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires dependencies, and returns a
// ready engine. The engine is safe for concurrent use afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := b.identity
	if client == nil {
		if cfg.Identity.BaseURL == "" {
			return nil, errors.New("identity client or base URL required")
		}
		httpClient, err := identity.NewHTTPClient(identity.HTTPConfig{
			BaseURL: cfg.Identity.BaseURL,
			Timeout: cfg.Identity.Timeout,
		})
		if err != nil {
			return nil, err
		}
		client = httpClient
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:   cfg,
		identity: client,
		logger:   logger,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
