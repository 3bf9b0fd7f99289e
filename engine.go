package samunu

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/nestorzamili/samunu-project/identity"
)

// Engine is the shared, stateless core of the authentication gate.
// Build one per process via [Builder.Build]; it is safe for concurrent
// use by independent form instances and request handlers. Per-form
// mutable state lives in [Submission], never here.
type Engine struct {
	config   Config
	identity identity.Client
	logger   *zap.Logger
	audit    *auditDispatcher
	metrics  *Metrics
}

// Config returns the effective configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// NewSubmission creates a fresh form-instance controller in the idle
// phase. Each form instance owns exactly one Submission.
func (e *Engine) NewSubmission() *Submission {
	return &Submission{engine: e}
}

// Session asks the identity provider for the session carried by the
// given request headers. It performs no caching: every call is a fresh
// provider round trip. (nil, nil) means no active session; a non-nil
// error wraps [ErrIdentityUnavailable].
func (e *Engine) Session(ctx context.Context, headers http.Header) (*Session, error) {
	if e == nil || e.identity == nil {
		return nil, ErrEngineNotReady
	}

	sess, err := e.identity.GetSession(ctx, headers)
	if err != nil {
		e.metrics.Inc(MetricGateError)
		e.logger.Warn("session lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	if sess == nil {
		e.metrics.Inc(MetricGateRedirected)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventGateRedirected,
			IP:        clientIPFromContext(ctx),
		})
		return nil, nil
	}

	e.metrics.Inc(MetricGateAllowed)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventGateAllowed,
		UserID:    sess.UserID,
		IP:        clientIPFromContext(ctx),
		Success:   true,
	})

	return sess, nil
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close drains and stops the audit dispatcher. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}
