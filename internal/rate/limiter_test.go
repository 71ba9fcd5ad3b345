package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/resetkit/resetkit/kvstore"
)

func newTestLimiter(t *testing.T, cfg Config) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	kv := kvstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return mr, New(kv, cfg)
}

func TestHitWithinBudget(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxAttempts: 3, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Hit(ctx, "login", "alice", ""); err != nil {
			t.Fatalf("hit %d failed: %v", i+1, err)
		}
	}

	if err := l.Hit(ctx, "login", "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on fourth hit, got %v", err)
	}
}

func TestHitScopesAreIndependent(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Hour})
	ctx := context.Background()

	if err := l.Hit(ctx, "login", "alice", ""); err != nil {
		t.Fatalf("login hit failed: %v", err)
	}
	if err := l.Hit(ctx, "reset", "alice", ""); err != nil {
		t.Fatalf("expected independent scope to be allowed, got %v", err)
	}
	if err := l.Hit(ctx, "login", "bob", ""); err != nil {
		t.Fatalf("expected independent identifier to be allowed, got %v", err)
	}
}

func TestIPThrottleCatchesRotatingIdentifiers(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxAttempts: 2, Window: time.Hour, EnableIPThrottle: true})
	ctx := context.Background()

	// Different identifiers from the same address share the per-IP budget.
	if err := l.Hit(ctx, "reset", "alice", "10.0.0.9"); err != nil {
		t.Fatalf("first hit failed: %v", err)
	}
	if err := l.Hit(ctx, "reset", "bob", "10.0.0.9"); err != nil {
		t.Fatalf("second hit failed: %v", err)
	}
	if err := l.Hit(ctx, "reset", "carol", "10.0.0.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected per-IP limit, got %v", err)
	}
}

func TestCheckDoesNotIncrement(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := l.Check(ctx, "login", "alice", ""); err != nil {
			t.Fatalf("check %d failed: %v", i+1, err)
		}
	}

	if err := l.Hit(ctx, "login", "alice", ""); err != nil {
		t.Fatalf("expected first hit to still be allowed, got %v", err)
	}
}

func TestResetClearsCounters(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Hour, EnableIPThrottle: true})
	ctx := context.Background()

	_ = l.Hit(ctx, "login", "alice", "10.0.0.9")
	if err := l.Hit(ctx, "login", "alice", "10.0.0.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limit before reset, got %v", err)
	}

	if err := l.Reset(ctx, "login", "alice", "10.0.0.9"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := l.Hit(ctx, "login", "alice", "10.0.0.9"); err != nil {
		t.Fatalf("expected hit to be allowed after reset, got %v", err)
	}
}

func TestWindowExpiryFreesBudget(t *testing.T) {
	mr, l := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.Hit(ctx, "login", "alice", "")
	if err := l.Hit(ctx, "login", "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limit within window, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.Hit(ctx, "login", "alice", ""); err != nil {
		t.Fatalf("expected fresh window after expiry, got %v", err)
	}
}

func TestAttempts(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxAttempts: 5, Window: time.Hour})
	ctx := context.Background()

	n, err := l.Attempts(ctx, "login", "alice")
	if err != nil || n != 0 {
		t.Fatalf("Attempts = %d, %v; want 0, nil", n, err)
	}

	_ = l.Hit(ctx, "login", "alice", "")
	_ = l.Hit(ctx, "login", "alice", "")

	n, err = l.Attempts(ctx, "login", "alice")
	if err != nil || n != 2 {
		t.Fatalf("Attempts = %d, %v; want 2, nil", n, err)
	}
}
