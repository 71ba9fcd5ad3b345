package resetkit

import (
	"context"
	"errors"
	"time"

	"github.com/resetkit/resetkit/internal"
	"github.com/resetkit/resetkit/session"
)

// BlacklistToken revokes a token by hash for the remainder of its natural
// life. Presence on the blacklist overrides otherwise-valid expiry and
// signature.
func (e *Engine) BlacklistToken(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if err := e.registry.BlacklistToken(ctx, tokenHash, ttl); err != nil {
		return e.storeErr(err)
	}
	e.emitAudit(ctx, auditActionTokenBlacklisted, AuditDetails{Success: true})
	return nil
}

// IsTokenBlacklisted reports whether the token hash is revoked. This is the
// one read path that fails open: when the store is unreachable and
// Blacklist.FailClosed is unset, the answer is "not blacklisted", so a cache
// outage does not become a full authentication outage. Fail-open decisions
// are logged and counted.
func (e *Engine) IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	revoked, err := e.registry.IsTokenBlacklisted(ctx, tokenHash)
	if err != nil {
		if e.config.Blacklist.FailClosed {
			return false, e.storeErr(err)
		}
		e.metricInc(MetricBlacklistFailOpen)
		e.logger.Warn().Err(err).Msg("blacklist unreachable, failing open")
		return false, nil
	}
	if revoked {
		e.metricInc(MetricBlacklistHit)
	}
	return revoked, nil
}

// IncrementUserTokenVersion bumps the user's token version, invalidating
// every credential minted before the bump, and returns the new version.
func (e *Engine) IncrementUserTokenVersion(ctx context.Context, userID string) (int64, error) {
	version, err := e.registry.IncrementTokenVersion(ctx, userID)
	if err != nil {
		return 0, e.storeErr(err)
	}
	e.metricInc(MetricTokenVersionBumped)
	return version, nil
}

// UserTokenVersion returns the user's current token version, 0 when none
// has been recorded.
func (e *Engine) UserTokenVersion(ctx context.Context, userID string) (int64, error) {
	version, err := e.registry.TokenVersion(ctx, userID)
	if err != nil {
		return 0, e.storeErr(err)
	}
	return version, nil
}

// SaveSession writes a session record and indexes it under its user.
func (e *Engine) SaveSession(ctx context.Context, record *session.Record) error {
	if err := e.registry.SaveSession(ctx, record); err != nil {
		return e.storeErr(err)
	}
	e.metricInc(MetricSessionCreated)
	return nil
}

// Session returns the record for the given ID, or session.ErrNotFound.
func (e *Engine) Session(ctx context.Context, sessionID string) (*session.Record, error) {
	record, err := e.registry.Session(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
		return nil, e.storeErr(err)
	}
	return record, nil
}

// DeleteSession removes a session record and its index entry.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	if err := e.registry.DeleteSession(ctx, sessionID); err != nil {
		return e.storeErr(err)
	}
	e.metricInc(MetricSessionInvalidated)
	return nil
}

// UserSessions lists the user's live sessions via the per-user index.
func (e *Engine) UserSessions(ctx context.Context, userID string) ([]*session.Record, error) {
	records, err := e.registry.UserSessions(ctx, userID)
	if err != nil {
		return nil, e.storeErr(err)
	}
	return records, nil
}

// RevokeUserSessions deletes every session of the user and bumps the token
// version, so both session records and stamped credentials die together.
func (e *Engine) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	deleted, err := e.registry.DeleteUserSessions(ctx, userID)
	if err != nil {
		return deleted, e.storeErr(err)
	}
	if _, err := e.registry.IncrementTokenVersion(ctx, userID); err != nil {
		return deleted, e.storeErr(err)
	}

	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditActionSessionsRevoked, AuditDetails{UserID: userID, Success: true})
	return deleted, nil
}

// IssueSessionToken mints an epoch-stamped session token carrying the
// user's current token version. Requires a session token secret.
func (e *Engine) IssueSessionToken(ctx context.Context, userID string) (string, error) {
	if e.tokens == nil {
		return "", errors.New("session tokens not configured")
	}

	version, err := e.registry.TokenVersion(ctx, userID)
	if err != nil {
		return "", e.storeErr(err)
	}
	return e.tokens.Issue(userID, version)
}

// ValidateSessionToken verifies a session token's signature, blacklist
// status, and embedded token version. A token minted before the user's
// last version bump fails with ErrSessionTokenStale; a blacklisted token
// fails with ErrSessionTokenRevoked regardless of validity.
func (e *Engine) ValidateSessionToken(ctx context.Context, token string) (string, error) {
	if e.tokens == nil {
		return "", errors.New("session tokens not configured")
	}

	claims, err := e.tokens.Parse(token)
	if err != nil {
		return "", err
	}

	revoked, err := e.IsTokenBlacklisted(ctx, internal.HashToken(token))
	if err != nil {
		return "", err
	}
	if revoked {
		e.emitAudit(ctx, auditActionSessionTokenDenied, failureDetails(claims.UserID, "", "REVOKED", nil))
		return "", ErrSessionTokenRevoked
	}

	current, err := e.registry.TokenVersion(ctx, claims.UserID)
	if err != nil {
		return "", e.storeErr(err)
	}
	if claims.TokenVersion < current {
		e.metricInc(MetricSessionTokenStale)
		e.emitAudit(ctx, auditActionSessionTokenDenied, failureDetails(claims.UserID, "", "STALE", nil))
		return "", ErrSessionTokenStale
	}

	return claims.UserID, nil
}

// RevokeSessionToken blacklists a session token for the remainder of its
// life.
func (e *Engine) RevokeSessionToken(ctx context.Context, token string) error {
	if e.tokens == nil {
		return errors.New("session tokens not configured")
	}

	claims, err := e.tokens.Parse(token)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	return e.BlacklistToken(ctx, internal.HashToken(token), ttl)
}
