package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	return mr, New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestGetMissingKey(t *testing.T) {
	_, c := newTestClient(t)

	if _, err := c.Get(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetWithTTLAndGet(t *testing.T) {
	mr, c := newTestClient(t)
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = %q, %v; want %q, nil", got, err, "v")
	}

	if ttl := mr.TTL("k"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected TTL within a minute, got %v", ttl)
	}
}

func TestGetInt64MissingIsZero(t *testing.T) {
	_, c := newTestClient(t)

	n, err := c.GetInt64(context.Background(), "absent")
	if err != nil || n != 0 {
		t.Fatalf("GetInt64 = %d, %v; want 0, nil", n, err)
	}
}

func TestSetNXWithTTLSingleWinner(t *testing.T) {
	_, c := newTestClient(t)
	ctx := context.Background()

	won, err := c.SetNXWithTTL(ctx, "claim", "1", time.Minute)
	if err != nil || !won {
		t.Fatalf("first SetNX = %v, %v; want true, nil", won, err)
	}

	won, err = c.SetNXWithTTL(ctx, "claim", "1", time.Minute)
	if err != nil || won {
		t.Fatalf("second SetNX = %v, %v; want false, nil", won, err)
	}
}

func TestIncrementWithTTLRefreshesExpiry(t *testing.T) {
	mr, c := newTestClient(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrementWithTTL(ctx, "version", time.Hour)
		if err != nil || got != want {
			t.Fatalf("IncrementWithTTL = %d, %v; want %d, nil", got, err, want)
		}
	}

	if ttl := mr.TTL("version"); ttl <= 0 {
		t.Fatalf("expected positive TTL after increments, got %v", ttl)
	}
}

func TestIncrementWindowStartsWindowOnce(t *testing.T) {
	mr, c := newTestClient(t)
	ctx := context.Background()

	n, err := c.IncrementWindow(ctx, "window", time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("first IncrementWindow = %d, %v; want 1, nil", n, err)
	}

	mr.FastForward(30 * time.Second)

	n, err = c.IncrementWindow(ctx, "window", time.Minute)
	if err != nil || n != 2 {
		t.Fatalf("second IncrementWindow = %d, %v; want 2, nil", n, err)
	}

	// The TTL started with the first hit and was not refreshed by the second.
	if ttl := mr.TTL("window"); ttl > 30*time.Second {
		t.Fatalf("expected window TTL to keep counting down, got %v", ttl)
	}

	mr.FastForward(time.Minute)

	n, err = c.IncrementWindow(ctx, "window", time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("IncrementWindow after expiry = %d, %v; want 1, nil", n, err)
	}
}

func TestIncrementFloatWithTTL(t *testing.T) {
	_, c := newTestClient(t)
	ctx := context.Background()

	got, err := c.IncrementFloatWithTTL(ctx, "score", 2.5, time.Hour)
	if err != nil || got != 2.5 {
		t.Fatalf("IncrementFloatWithTTL = %v, %v; want 2.5, nil", got, err)
	}

	got, err = c.IncrementFloatWithTTL(ctx, "score", 1.5, time.Hour)
	if err != nil || got != 4 {
		t.Fatalf("IncrementFloatWithTTL = %v, %v; want 4, nil", got, err)
	}

	read, err := c.GetFloat64(ctx, "score")
	if err != nil || read != 4 {
		t.Fatalf("GetFloat64 = %v, %v; want 4, nil", read, err)
	}
}

func TestHashRoundTrip(t *testing.T) {
	mr, c := newTestClient(t)
	ctx := context.Background()

	fields := map[string]string{"a": "1", "b": "2"}
	if err := c.HSetWithTTL(ctx, "h", fields, time.Minute); err != nil {
		t.Fatalf("HSetWithTTL failed: %v", err)
	}

	got, err := c.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HGetAll failed: %v", err)
	}
	if got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("unexpected hash fields: %v", got)
	}
	if ttl := mr.TTL("h"); ttl <= 0 {
		t.Fatalf("expected positive TTL on hash key, got %v", ttl)
	}
}

func TestSetOperations(t *testing.T) {
	_, c := newTestClient(t)
	ctx := context.Background()

	if err := c.SAddWithTTL(ctx, "s", "m1", time.Minute); err != nil {
		t.Fatalf("SAddWithTTL failed: %v", err)
	}
	if err := c.SAddWithTTL(ctx, "s", "m2", time.Minute); err != nil {
		t.Fatalf("SAddWithTTL failed: %v", err)
	}

	members, err := c.SMembers(ctx, "s")
	if err != nil || len(members) != 2 {
		t.Fatalf("SMembers = %v, %v; want 2 members", members, err)
	}

	if err := c.SRem(ctx, "s", "m1"); err != nil {
		t.Fatalf("SRem failed: %v", err)
	}
	members, err = c.SMembers(ctx, "s")
	if err != nil || len(members) != 1 || members[0] != "m2" {
		t.Fatalf("SMembers after SRem = %v, %v; want [m2]", members, err)
	}
}

func TestDeleteAbsentKeysIsNoError(t *testing.T) {
	_, c := newTestClient(t)

	if err := c.Delete(context.Background(), "absent-1", "absent-2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(context.Background()); err != nil {
		t.Fatalf("Delete with no keys failed: %v", err)
	}
}

func TestUnavailableStoreWrapsError(t *testing.T) {
	mr, c := newTestClient(t)
	mr.Close()

	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := c.IncrementWindow(context.Background(), "k", time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from IncrementWindow, got %v", err)
	}
}

func TestIsReady(t *testing.T) {
	mr, c := newTestClient(t)
	ctx := context.Background()

	if !c.IsReady(ctx) {
		t.Fatal("expected store to be ready")
	}
	mr.Close()
	if c.IsReady(ctx) {
		t.Fatal("expected store to be unready after shutdown")
	}
}
