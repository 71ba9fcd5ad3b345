package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/resetkit/resetkit/kvstore"
)

// ErrNotFound is returned when the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

const (
	sessionKeyPrefix      = "session"
	userIndexKeyPrefix    = "user_sessions"
	blacklistKeyPrefix    = "token_blacklist"
	tokenClaimKeyPrefix   = "token_claim"
	tokenVersionKeyPrefix = "user_activity:token_version"
)

// Registry holds the revocation and session state shared across service
// instances: the token blacklist, per-user monotonic token versions, and
// TTL-bounded session records with a per-user index set. All mutual
// exclusion is delegated to the store's atomic primitives.
type Registry struct {
	kv       *kvstore.Client
	lifetime time.Duration
}

// NewRegistry creates a registry over the given store client. lifetime
// bounds session records and is the TTL refreshed on token-version bumps.
func NewRegistry(kv *kvstore.Client, lifetime time.Duration) *Registry {
	return &Registry{
		kv:       kv,
		lifetime: lifetime,
	}
}

// BlacklistToken marks a token hash as revoked for ttl, which should be the
// token's remaining natural lifetime. Presence alone means revoked.
func (r *Registry) BlacklistToken(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already past natural expiry; nothing to revoke.
		return nil
	}
	return r.kv.SetWithTTL(ctx, blacklistKey(tokenHash), "1", ttl)
}

// IsTokenBlacklisted reports whether the token hash is on the blacklist.
// Store errors propagate; the fail-open decision belongs to the caller.
func (r *Registry) IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	return r.kv.Exists(ctx, blacklistKey(tokenHash))
}

// ClaimToken atomically claims a token hash for single-use consumption.
// Exactly one concurrent caller wins; losers must treat the token as used.
// The claim key lives for ttl, the token's remaining natural lifetime.
func (r *Registry) ClaimToken(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return r.kv.SetNXWithTTL(ctx, claimKey(tokenHash), "1", ttl)
}

// ReleaseClaim drops a claim so the token can be consumed again. Used to
// back out when a step after the claim fails; releasing an absent claim is
// not an error.
func (r *Registry) ReleaseClaim(ctx context.Context, tokenHash string) error {
	return r.kv.Delete(ctx, claimKey(tokenHash))
}

// IncrementTokenVersion bumps the user's token version by one and refreshes
// the key's TTL to the session lifetime, returning the new version. Every
// credential minted with an older version becomes stale.
func (r *Registry) IncrementTokenVersion(ctx context.Context, userID string) (int64, error) {
	return r.kv.IncrementWithTTL(ctx, versionKey(userID), r.lifetime)
}

// TokenVersion returns the user's current token version, defaulting to 0
// when no version has been recorded.
func (r *Registry) TokenVersion(ctx context.Context, userID string) (int64, error) {
	val, err := r.kv.Get(ctx, versionKey(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	version, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token version for %s: %w", userID, err)
	}
	return version, nil
}

// SaveSession stores the record under its session ID and adds the ID to the
// user's index set. A missing SessionID is filled with a fresh UUID. Both
// keys carry the registry lifetime (or the record's remaining life when
// shorter).
func (r *Registry) SaveSession(ctx context.Context, record *Record) error {
	if record.SessionID == "" {
		record.SessionID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(r.lifetime)
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", record.SessionID)
	}

	blob, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if err := r.kv.SetWithTTL(ctx, sessionKey(record.SessionID), string(blob), ttl); err != nil {
		return err
	}
	// Index TTL tracks the registry lifetime, not this one session's, so a
	// long-lived index is refreshed as sessions are added.
	return r.kv.SAddWithTTL(ctx, userIndexKey(record.UserID), record.SessionID, r.lifetime)
}

// Session returns the record for the given ID, or ErrNotFound.
func (r *Registry) Session(ctx context.Context, sessionID string) (*Record, error) {
	blob, err := r.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(blob), &record); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if record.Expired(time.Now()) {
		return nil, ErrNotFound
	}

	return &record, nil
}

// DeleteSession removes the record and its index entry. Deleting an absent
// session is not an error.
func (r *Registry) DeleteSession(ctx context.Context, sessionID string) error {
	record, err := r.Session(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := r.kv.Delete(ctx, sessionKey(sessionID)); err != nil {
		return err
	}
	return r.kv.SRem(ctx, userIndexKey(record.UserID), sessionID)
}

// UserSessions returns the user's live sessions via the per-user index set,
// pruning IDs whose records have expired out from under the index. The
// index replaces a full-keyspace scan, which does not survive production
// scale.
func (r *Registry) UserSessions(ctx context.Context, userID string) ([]*Record, error) {
	ids, err := r.kv.SMembers(ctx, userIndexKey(userID))
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		record, err := r.Session(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				_ = r.kv.SRem(ctx, userIndexKey(userID), id)
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// DeleteUserSessions removes every session in the user's index. Returns the
// number of records deleted.
func (r *Registry) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	ids, err := r.kv.SMembers(ctx, userIndexKey(userID))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if err := r.kv.Delete(ctx, sessionKey(id)); err != nil {
			return deleted, err
		}
		deleted++
	}

	if err := r.kv.Delete(ctx, userIndexKey(userID)); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + ":" + sessionID
}

func userIndexKey(userID string) string {
	return userIndexKeyPrefix + ":" + userID
}

func blacklistKey(tokenHash string) string {
	return blacklistKeyPrefix + ":" + tokenHash
}

func claimKey(tokenHash string) string {
	return tokenClaimKeyPrefix + ":" + tokenHash
}

func versionKey(userID string) string {
	return tokenVersionKeyPrefix + ":" + userID
}
