package resetkit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestAuditFlowsThroughChannelSink(t *testing.T) {
	_, rdb := newTestRedis(t)

	sink := NewChannelSink(16)
	cfg := defaultConfig()
	cfg.Audit.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithHasher(newTestHasher(t)).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := WithClientIP(context.Background(), "192.168.1.10")
	if _, _, err := engine.IssueResetToken(ctx, "u1", "alice@example.com", nil); err != nil {
		t.Fatalf("IssueResetToken failed: %v", err)
	}

	select {
	case entry := <-sink.Entries():
		if entry.Action != auditActionTokenIssued {
			t.Fatalf("action = %q, want %q", entry.Action, auditActionTokenIssued)
		}
		if entry.ID == "" || entry.Timestamp.IsZero() {
			t.Fatalf("expected populated entry metadata: %+v", entry)
		}
		if !entry.Details.Success || entry.Details.UserID != "u1" {
			t.Fatalf("unexpected details: %+v", entry.Details)
		}
		if entry.Details.IP != "192.168.1.10" {
			t.Fatalf("expected context IP on the entry, got %q", entry.Details.IP)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit entry")
	}
}

func TestAuditFailureEntriesCarryErrorCode(t *testing.T) {
	_, rdb := newTestRedis(t)

	sink := NewChannelSink(16)
	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithHasher(newTestHasher(t)).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	record := &ResetTokenRecord{
		TokenHash: "deadbeef",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	engine.VerifyResetToken(context.Background(), "wrong-token", record, nil)

	select {
	case entry := <-sink.Entries():
		if entry.Action != auditActionTokenVerified {
			t.Fatalf("action = %q, want %q", entry.Action, auditActionTokenVerified)
		}
		if entry.Details.Success {
			t.Fatal("expected failure entry")
		}
		if entry.Details.ErrorCode != string(CodeInvalidToken) {
			t.Fatalf("ErrorCode = %q, want INVALID_TOKEN", entry.Details.ErrorCode)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit entry")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	sink := &blockingSink{started: started, release: release}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()

	// First entry occupies the worker, second fills the buffer, third drops.
	d.Emit(ctx, NewAuditEntry("a", AuditDetails{}))
	<-started
	d.Emit(ctx, NewAuditEntry("b", AuditDetails{}))
	d.Emit(ctx, NewAuditEntry("c", AuditDetails{}))

	if got := d.Dropped(); got != 1 {
		t.Fatalf("Dropped = %d, want 1", got)
	}

	close(release)
	d.Close()
}

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    bool
}

func (s *blockingSink) Emit(_ context.Context, _ AuditEntry) {
	if !s.once {
		s.once = true
		close(s.started)
		<-s.release
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), NewAuditEntry("drain", AuditDetails{}))
	}
	d.Close()

	for i := 0; i < 3; i++ {
		select {
		case <-sink.Entries():
		default:
			t.Fatalf("expected 3 drained entries, got %d", i)
		}
	}
}

func TestDisabledAuditIsNil(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{}); d != nil {
		t.Fatal("expected nil dispatcher when audit is disabled")
	}

	// Nil dispatcher methods are safe no-ops.
	var d *auditDispatcher
	d.Emit(context.Background(), NewAuditEntry("x", AuditDetails{}))
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected zero drops from nil dispatcher")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	entry := NewAuditEntry("password_reset", AuditDetails{UserID: "u1", Success: true})
	sink.Emit(context.Background(), entry)

	var decoded AuditEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Action != "password_reset" || decoded.Details.UserID != "u1" {
		t.Fatalf("unexpected decoded entry: %+v", decoded)
	}
}

func TestZerologSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewZerologSink(zerolog.New(&buf))

	sink.Emit(context.Background(), NewAuditEntry("rate_limit_triggered", AuditDetails{
		UserID:    "u1",
		IP:        "10.0.0.9",
		ErrorCode: "RATE_LIMITED",
	}))

	out := buf.String()
	for _, want := range []string{"rate_limit_triggered", "u1", "10.0.0.9", "RATE_LIMITED", "security event"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %q:\n%s", want, out)
		}
	}
}
