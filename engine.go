package resetkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/resetkit/resetkit/internal/rate"
	"github.com/resetkit/resetkit/kvstore"
	"github.com/resetkit/resetkit/session"
	"github.com/resetkit/resetkit/sessiontoken"
)

// Engine is the entry point for all reset, change, revocation, and
// rate-limit operations. Engines are built through [Builder], are immutable
// after Build, and are safe for arbitrary concurrent use: the pure paths
// are stateless and every piece of shared state lives in the store.
//
// Store-backed methods block on Redis I/O; callers enforce timeouts through
// ctx. No method spawns background work that outlives the call except the
// audit dispatcher, which Close drains.
// sessionRegistry is the store-backed revocation and session surface the
// engine drives. *session.Registry is the production implementation.
type sessionRegistry interface {
	BlacklistToken(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error)
	ClaimToken(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, tokenHash string) error
	IncrementTokenVersion(ctx context.Context, userID string) (int64, error)
	TokenVersion(ctx context.Context, userID string) (int64, error)
	SaveSession(ctx context.Context, record *session.Record) error
	Session(ctx context.Context, sessionID string) (*session.Record, error)
	DeleteSession(ctx context.Context, sessionID string) error
	UserSessions(ctx context.Context, userID string) ([]*session.Record, error)
	DeleteUserSessions(ctx context.Context, userID string) (int, error)
}

type Engine struct {
	config   Config
	kv       *kvstore.Client
	registry sessionRegistry
	limiter  *rate.Limiter
	tokens   *sessiontoken.Manager
	hasher   PasswordHasher
	policy   PasswordPolicy
	audit    *auditDispatcher
	metrics  *Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// Close drains and stops the audit dispatcher. The Engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// StoreReady reports whether the backing store answers a ping.
func (e *Engine) StoreReady(ctx context.Context) bool {
	return e != nil && e.kv.IsReady(ctx)
}

// AuditDropped returns the number of audit entries discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// storeErr maps kvstore transport failures onto ErrStoreUnavailable and
// counts them; other errors pass through.
func (e *Engine) storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kvstore.ErrUnavailable) {
		e.metricInc(MetricStoreUnavailable)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
