package resetkit

import (
	"context"
	"time"
)

// ValidatePasswordChange checks an authenticated password change: current
// password, sameness, minimum age, then the policy and history checks
// shared with the reset flow. It mutates nothing; on success the caller
// commits through the same path a reset does (hash, history append,
// token-version bump).
//
// Policy failures come back as a typed result; only hasher failures return
// an error.
func (e *Engine) ValidatePasswordChange(ctx context.Context, currentPassword, newPassword string, user *User) (*ResetResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	ok, err := e.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return e.rejectChange(ctx, user, CodeInvalidCurrentPassword, nil, 0), nil
	}

	same, err := e.hasher.Verify(newPassword, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if same {
		return e.rejectChange(ctx, user, CodeSamePassword, nil, 0), nil
	}

	if allowed, remaining := e.policy.CanChange(user.PasswordLastChanged, e.now()); !allowed {
		return e.rejectChange(ctx, user, CodePasswordTooRecent, nil, remaining), nil
	}

	policyResult := e.policy.Validate(newPassword)
	if !policyResult.OK {
		return e.rejectChange(ctx, user, CodeInvalidPassword, policyResult.Errors, 0), nil
	}

	if len(user.PasswordHistory) > 0 {
		reused, err := e.policy.InHistory(newPassword, user.PasswordHistory, e.hasher)
		if err != nil {
			return nil, err
		}
		if reused {
			return e.rejectChange(ctx, user, CodePasswordReused, nil, 0), nil
		}
	}

	e.emitAudit(ctx, auditActionPasswordChange, successDetails(user.UserID, user.Email, nil))

	return &ResetResult{
		Success:       true,
		Code:          CodeValid,
		StrengthScore: policyResult.Score,
		StrengthText:  policyResult.StrengthText,
	}, nil
}

func (e *Engine) rejectChange(ctx context.Context, user *User, code OutcomeCode, policyErrors []string, retryAfter time.Duration) *ResetResult {
	e.metricInc(MetricPasswordChangeRejected)
	e.emitAudit(ctx, auditActionPasswordChange, failureDetails(user.UserID, user.Email, code, nil))

	return &ResetResult{
		Success:      false,
		Code:         code,
		PolicyErrors: policyErrors,
		RetryAfter:   retryAfter,
	}
}
