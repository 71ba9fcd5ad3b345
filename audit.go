package resetkit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuditDetails carries the request context and outcome of a security event.
type AuditDetails struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
}

// AuditEntry is one structured security event. Formatting is pure; delivery
// to a durable log or alerting sink is the consuming AuditSink's concern.
type AuditEntry struct {
	ID        string       `json:"id"`
	Action    string       `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
	Details   AuditDetails `json:"details"`
}

// NewAuditEntry formats a security event with a fresh ID and UTC timestamp.
func NewAuditEntry(action string, details AuditDetails) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}

// AuditSink receives audit entries. Implementations must be safe for
// concurrent use and should not block for long; the dispatcher's buffer is
// the only slack between the engine and a slow sink.
type AuditSink interface {
	Emit(ctx context.Context, entry AuditEntry)
}

// NoOpSink discards all entries.
type NoOpSink struct{}

// Emit implements AuditSink.
func (NoOpSink) Emit(context.Context, AuditEntry) {}

// ChannelSink forwards entries to a channel for test harnesses and custom
// fan-out.
type ChannelSink struct {
	entries chan AuditEntry
}

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		entries: make(chan AuditEntry, buffer),
	}
}

// Emit implements AuditSink.
func (s *ChannelSink) Emit(ctx context.Context, entry AuditEntry) {
	select {
	case s.entries <- entry:
	case <-ctx.Done():
	}
}

// Entries returns the receive side of the sink.
func (s *ChannelSink) Entries() <-chan AuditEntry {
	return s.entries
}

// JSONWriterSink writes one JSON line per entry.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Emit implements AuditSink.
func (s *JSONWriterSink) Emit(ctx context.Context, entry AuditEntry) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// ZerologSink logs entries through a zerolog logger at info level, with the
// error code promoted to a field for alert routing.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink creates a ZerologSink over the given logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

// Emit implements AuditSink.
func (s *ZerologSink) Emit(_ context.Context, entry AuditEntry) {
	event := s.logger.Info().
		Str("audit_id", entry.ID).
		Str("action", entry.Action).
		Time("at", entry.Timestamp).
		Bool("success", entry.Details.Success)

	if entry.Details.UserID != "" {
		event = event.Str("user_id", entry.Details.UserID)
	}
	if entry.Details.IP != "" {
		event = event.Str("ip", entry.Details.IP)
	}
	if entry.Details.ErrorCode != "" {
		event = event.Str("error_code", entry.Details.ErrorCode)
	}

	event.Msg("security event")
}
