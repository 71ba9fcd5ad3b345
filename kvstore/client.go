package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when the backing store cannot be reached or a
// command fails at the transport level. Callers map it to their own
// unavailability error.
var ErrUnavailable = errors.New("kvstore unavailable")

// ErrNotFound is returned by read operations when the key is absent.
var ErrNotFound = errors.New("kvstore key not found")

// incrWindowScript increments a counter and applies the TTL only on the
// first hit, in one atomic step. Fixed-window semantics: the window starts
// at the first increment and the key never exists without a TTL.
const incrWindowScript = `
local v = redis.call("INCR", KEYS[1])
if v == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return v
`

var incrWindowLua = redis.NewScript(incrWindowScript)

// Client is a thin wrapper over Redis exposing the TTL-bounded primitives
// the higher layers need. Every mutating multi-step operation (increment +
// expire, hash-set + expire, set-add + expire) is issued as a single atomic
// transaction so no key ever exists without its TTL and no concurrent
// reader observes a partially applied state.
type Client struct {
	redis redis.UniversalClient
}

// New wraps the given Redis client.
func New(redisClient redis.UniversalClient) *Client {
	return &Client{redis: redisClient}
}

// IsReady reports whether the store answers a ping. Operations do not gate
// on this; it is a probe for health checks and fail-open decisions.
func (c *Client) IsReady(ctx context.Context) bool {
	return c != nil && c.redis != nil && c.redis.Ping(ctx).Err() == nil
}

// Get returns the string value at key, or ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// GetInt64 returns the integer value at key, or 0 without error when the key
// is absent. Counters default to zero; a missing key is not a failure.
func (c *Client) GetInt64(ctx context.Context, key string) (int64, error) {
	val, err := c.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// GetFloat64 returns the float value at key, or 0 when absent.
func (c *Client) GetFloat64(ctx context.Context, key string) (float64, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float at %s: %w", key, err)
	}
	return f, nil
}

// SetWithTTL stores value at key with the given TTL.
func (c *Client) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// SetNXWithTTL stores value at key with the given TTL only if the key does
// not exist. Returns whether this caller won the claim. SET NX PX is a
// single command, so concurrent claimants resolve to exactly one winner.
func (c *Client) SetNXWithTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := c.redis.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}

// Delete removes the given keys. Deleting absent keys is not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// IncrementWithTTL atomically increments the counter at key and refreshes
// its TTL, returning the new value. Used for per-user token versions, where
// every bump extends the key's life to the session lifetime.
func (c *Client) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return incr.Val(), nil
}

// IncrementWindow atomically increments the counter at key, starting a
// fixed window by applying the TTL only on the first hit.
func (c *Client) IncrementWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := incrWindowLua.Run(ctx, c.redis, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

// IncrementFloatWithTTL atomically adds delta to the float accumulator at
// key and refreshes its TTL, returning the new value.
func (c *Client) IncrementFloatWithTTL(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	var incr *redis.FloatCmd
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.IncrByFloat(ctx, key, delta)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return incr.Val(), nil
}

// HSetWithTTL atomically writes hash fields at key and refreshes its TTL.
func (c *Client) HSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if len(fields) == 0 {
		return nil
	}

	flat := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		flat = append(flat, k, v)
	}

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, flat...)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// HGetAll returns all hash fields at key. An absent key yields an empty map.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fields, nil
}

// SAddWithTTL atomically adds member to the set at key and refreshes the
// set's TTL.
func (c *Client) SAddWithTTL(ctx context.Context, key, member string, ttl time.Duration) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, member)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// SMembers returns the members of the set at key.
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.redis.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return members, nil
}

// SRem removes member from the set at key.
func (c *Client) SRem(ctx context.Context, key, member string) error {
	if err := c.redis.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
