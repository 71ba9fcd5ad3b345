package rate

import (
	"context"
	"time"

	"github.com/resetkit/resetkit/kvstore"
)

// Config holds fixed-window limiter tuning parameters.
type Config struct {
	MaxAttempts      int
	Window           time.Duration
	EnableIPThrottle bool
}

// Limiter enforces per-identifier and per-IP fixed-window limits using
// atomic store counters under the rate_limit: namespace. Windows start at
// the first increment and expire with the key's TTL; no in-process state is
// kept, so the limit holds across service instances.
type Limiter struct {
	kv     *kvstore.Client
	config Config
}

// New creates a fixed-window [Limiter] backed by the given store client.
func New(kv *kvstore.Client, cfg Config) *Limiter {
	return &Limiter{
		kv:     kv,
		config: cfg,
	}
}

// Hit records one event for the scope+identifier pair and, when IP
// throttling is enabled and ip is non-empty, for the scope+IP pair.
// Returns ErrRateLimited once either counter exceeds the budget.
func (l *Limiter) Hit(ctx context.Context, scope, identifier, ip string) error {
	count, err := l.kv.IncrementWindow(ctx, identifierKey(scope, identifier), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.kv.IncrementWindow(ctx, ipKey(scope, ip), l.config.Window)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// Check reads the counters without incrementing. Missing keys count as zero
// and do not reveal identifier existence.
func (l *Limiter) Check(ctx context.Context, scope, identifier, ip string) error {
	count, err := l.kv.GetInt64(ctx, identifierKey(scope, identifier))
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.kv.GetInt64(ctx, ipKey(scope, ip))
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// Reset clears the counters for the scope+identifier pair. Called after a
// successful password change to lift any lockout.
func (l *Limiter) Reset(ctx context.Context, scope, identifier, ip string) error {
	keys := []string{identifierKey(scope, identifier)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, ipKey(scope, ip))
	}
	return l.kv.Delete(ctx, keys...)
}

// Attempts returns the current counter for the scope+identifier pair.
func (l *Limiter) Attempts(ctx context.Context, scope, identifier string) (int, error) {
	count, err := l.kv.GetInt64(ctx, identifierKey(scope, identifier))
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func identifierKey(scope, identifier string) string {
	return "rate_limit:" + scope + ":" + identifier
}

func ipKey(scope, ip string) string {
	return "rate_limit:" + scope + ":ip:" + ip
}
