package samunu

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	auditEventSignInSuccess    = "signin_success"
	auditEventSignInFailure    = "signin_failure"
	auditEventSignInUnexpected = "signin_unexpected"
	auditEventSignUpSuccess    = "signup_success"
	auditEventSignUpFailure    = "signup_failure"
	auditEventSignUpUnexpected = "signup_unexpected"
	auditEventGateAllowed      = "gate_allowed"
	auditEventGateRedirected   = "gate_redirected"
)

// AuditEvent is a structured record of one authentication-relevant
// action. Email identifies the attempted account for submissions;
// UserID is set once the provider confirmed the identity.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Email     string            `json:"email,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives [AuditEvent] values from the engine's dispatcher.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards all events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink writes events into a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receiving end of the sink.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// RedisStreamSink appends events to a Redis stream via XADD, one entry
// per event. Delivery is best-effort: append failures are dropped
// silently, matching the audit path's policy of never failing the
// authentication flow.
type RedisStreamSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewRedisStreamSink creates a sink appending to the given stream.
// maxLen, when positive, caps the stream length approximately
// (XADD MAXLEN ~).
func NewRedisStreamSink(client redis.UniversalClient, stream string, maxLen int64) *RedisStreamSink {
	if stream == "" {
		stream = "samunu:audit"
	}
	return &RedisStreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

func (s *RedisStreamSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.client == nil {
		return
	}

	values := map[string]any{
		"timestamp":  event.Timestamp.UTC().Format(time.RFC3339Nano),
		"event_type": event.EventType,
		"success":    strconv.FormatBool(event.Success),
	}
	if event.Email != "" {
		values["email"] = event.Email
	}
	if event.UserID != "" {
		values["user_id"] = event.UserID
	}
	if event.IP != "" {
		values["ip"] = event.IP
	}
	if event.Error != "" {
		values["error"] = event.Error
	}
	for k, v := range event.Metadata {
		values["meta_"+k] = v
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	_ = s.client.XAdd(ctx, args).Err()
}
