package resetkit

import (
	"context"
	"fmt"
	"time"

	"github.com/resetkit/resetkit/internal"
)

// IssueResetToken creates a single-use reset token for the user. The plain
// token is returned once and must be delivered out-of-band; the record holds
// only its hash and is the caller's to persist. When sc is nil the security
// context is captured from values attached to ctx.
//
// Issuance always succeeds unless the random source or hash fails, which
// surfaces as ErrTokenGeneration.
func (e *Engine) IssueResetToken(ctx context.Context, userID, email string, sc *SecurityContext) (string, *ResetTokenRecord, error) {
	if e == nil {
		return "", nil, ErrEngineNotReady
	}

	plain, err := internal.NewResetToken(e.config.Token.Length)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	now := e.now().UTC()
	record := &ResetTokenRecord{
		TokenHash: internal.HashToken(plain),
		UserID:    userID,
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(e.config.Token.Expiry),
	}

	if sc != nil {
		record.Context = SecurityContext{
			UserAgent: sc.UserAgent,
			IP:        sc.IP,
		}
	} else {
		record.Context = SecurityContext{
			UserAgent: userAgentFromContext(ctx),
			IP:        clientIPFromContext(ctx),
		}
	}

	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, auditActionTokenIssued, successDetails(userID, email, &record.Context))

	return plain, record, nil
}

// verifyGuard is one ordered check of the verification state machine.
// countsAttempt marks guards whose failure increments the record's attempt
// counter (the caller persists the mutation).
type verifyGuard struct {
	code          OutcomeCode
	countsAttempt bool
	failed        func() bool
}

// VerifyResetToken runs the ordered verification checks against a snapshot
// of the record and reports the first failure, or success with the subject
// identifiers. Checks run in a fixed order (presence, used, expiry, hash,
// attempt budget, device, location), so the returned code is deterministic
// and repeated verification of a used record always yields TOKEN_USED.
//
// Success does not consume the token; consumption happens in ResetPassword.
// Two concurrent verifications of the same record may both see Valid; the
// single-winner guarantee lives in the claim step during consumption.
func (e *Engine) VerifyResetToken(ctx context.Context, plainToken string, record *ResetTokenRecord, reqCtx *SecurityContext) VerificationResult {
	if e == nil {
		return VerificationResult{Valid: false, Code: CodeInvalidToken}
	}

	now := e.now().UTC()

	if plainToken == "" || record == nil || record.TokenHash == "" {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditActionTokenVerified, failureDetails("", "", CodeInvalidToken, reqCtx))
		return VerificationResult{Valid: false, Code: CodeInvalidToken, CheckedAt: now}
	}

	requireDevice := e.config.Token.RequireDeviceVerification
	guards := []verifyGuard{
		{code: CodeTokenUsed, failed: func() bool {
			return record.Used
		}},
		{code: CodeTokenExpired, failed: func() bool {
			return now.After(record.ExpiresAt)
		}},
		{code: CodeInvalidToken, countsAttempt: true, failed: func() bool {
			return !internal.HashEqual(internal.HashToken(plainToken), record.TokenHash)
		}},
		{code: CodeTooManyAttempts, countsAttempt: true, failed: func() bool {
			return record.Context.Attempts >= e.config.Token.MaxFailedVerifications
		}},
		{code: CodeDeviceMismatch, countsAttempt: true, failed: func() bool {
			return requireDevice && reqCtx != nil &&
				record.Context.UserAgent != "" && reqCtx.UserAgent != "" &&
				record.Context.UserAgent != reqCtx.UserAgent
		}},
		{code: CodeLocationMismatch, countsAttempt: true, failed: func() bool {
			return requireDevice && reqCtx != nil &&
				record.Context.IP != "" && reqCtx.IP != "" &&
				!internal.SimilarIP(record.Context.IP, reqCtx.IP)
		}},
	}

	for _, guard := range guards {
		if !guard.failed() {
			continue
		}
		if guard.countsAttempt {
			record.Context.Attempts++
		}
		switch guard.code {
		case CodeDeviceMismatch:
			e.metricInc(MetricDeviceMismatch)
		case CodeLocationMismatch:
			e.metricInc(MetricLocationMismatch)
		}
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditActionTokenVerified, failureDetails(record.UserID, record.Email, guard.code, reqCtx))
		return VerificationResult{Valid: false, Code: guard.code, CheckedAt: now}
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditActionTokenVerified, successDetails(record.UserID, record.Email, reqCtx))

	return VerificationResult{
		Valid:     true,
		Code:      CodeValid,
		UserID:    record.UserID,
		Email:     record.Email,
		CheckedAt: now,
	}
}

// ResetPassword consumes a verified reset token and commits the new
// password. Verification and policy failures come back as a typed result
// with Success=false; only infrastructure failures return an error.
//
// The user and record are mutated only after every check has passed and the
// store-side token-version bump succeeded, so any failure leaves both
// untouched from the caller's perspective. Single-use is enforced with an
// atomic store-side claim on the token hash: of two concurrent callers that
// both verified, exactly one commits and the other sees TOKEN_USED.
//
// The claim and the version bump are two store writes, not one transaction.
// A bump failure rolls the claim back best-effort; if that rollback also
// fails, the token reads as used until its claim key expires even though no
// password changed, and the caller should treat the returned store error as
// a signal to retry or to issue a fresh token.
func (e *Engine) ResetPassword(ctx context.Context, plainToken, newPassword string, record *ResetTokenRecord, user *User, reqCtx *SecurityContext) (*ResetResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	verdict := e.VerifyResetToken(ctx, plainToken, record, reqCtx)
	if !verdict.Valid {
		e.metricInc(MetricResetFailure)
		return &ResetResult{Success: false, Code: verdict.Code}, nil
	}

	policyResult := e.policy.Validate(newPassword)
	if !policyResult.OK {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditActionPasswordReset, failureDetails(user.UserID, user.Email, CodeInvalidPassword, reqCtx))
		return &ResetResult{
			Success:      false,
			Code:         CodeInvalidPassword,
			PolicyErrors: policyResult.Errors,
		}, nil
	}

	if len(user.PasswordHistory) > 0 {
		reused, err := e.policy.InHistory(newPassword, user.PasswordHistory, e.hasher)
		if err != nil {
			return nil, err
		}
		if reused {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditActionPasswordReset, failureDetails(user.UserID, user.Email, CodePasswordReused, reqCtx))
			return &ResetResult{Success: false, Code: CodePasswordReused}, nil
		}
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()

	// Single-winner consumption: the claim key lives for the token's
	// remaining natural life. A lost claim is indistinguishable from a
	// replay and reports TOKEN_USED.
	claimed, err := e.registry.ClaimToken(ctx, record.TokenHash, record.ExpiresAt.Sub(now))
	if err != nil {
		return nil, e.storeErr(err)
	}
	if !claimed {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditActionPasswordReset, failureDetails(user.UserID, user.Email, CodeTokenUsed, reqCtx))
		return &ResetResult{Success: false, Code: CodeTokenUsed}, nil
	}

	// The version bump is the global session-invalidation side effect and
	// the last fallible step: everything after is in-memory. When the bump
	// fails after the claim committed, the claim is released so a retry of
	// the same token can go through. If the release fails too the claim
	// outlives the failure and retries report TOKEN_USED until the key
	// expires, with the password unchanged.
	if _, err := e.registry.IncrementTokenVersion(ctx, user.UserID); err != nil {
		if relErr := e.registry.ReleaseClaim(ctx, record.TokenHash); relErr != nil {
			e.logger.Warn().Err(relErr).Str("user_id", user.UserID).
				Msg("token claim not released after version bump failure, token unusable until expiry")
		}
		return nil, e.storeErr(err)
	}
	e.metricInc(MetricTokenVersionBumped)

	if e.config.Password.HistoryLimit > 0 && user.PasswordHash != "" {
		user.PasswordHistory = append(user.PasswordHistory, user.PasswordHash)
		if overflow := len(user.PasswordHistory) - e.config.Password.HistoryLimit; overflow > 0 {
			user.PasswordHistory = user.PasswordHistory[overflow:]
		}
	}

	user.PasswordHash = newHash
	user.PasswordLastChanged = now
	user.MustChangePassword = false
	user.FailedLoginAttempts = 0
	user.LockedUntil = time.Time{}

	record.Used = true
	record.UsedAt = now

	// Lift any store-side lockout; counters self-expire, so this is
	// best-effort.
	if err := e.limiter.Reset(ctx, "login", user.UserID, contextIP(reqCtx)); err != nil {
		e.logger.Warn().Err(err).Str("user_id", user.UserID).Msg("failed to clear login counters after reset")
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditActionPasswordReset, successDetails(user.UserID, user.Email, reqCtx))

	return &ResetResult{
		Success:       true,
		Code:          CodeValid,
		StrengthScore: policyResult.Score,
		StrengthText:  policyResult.StrengthText,
	}, nil
}

func contextIP(sc *SecurityContext) string {
	if sc == nil {
		return ""
	}
	return sc.IP
}
