package resetkit

import "context"

const (
	auditActionTokenIssued        = "reset_token_issued"
	auditActionTokenVerified      = "reset_token_verified"
	auditActionPasswordReset      = "password_reset"
	auditActionPasswordChange     = "password_change_validated"
	auditActionRateLimitTriggered = "rate_limit_triggered"
	auditActionTokenBlacklisted   = "token_blacklisted"
	auditActionSessionTokenDenied = "session_token_denied"
	auditActionSessionsRevoked    = "sessions_revoked"
)

// emitAudit formats and queues one security event. IP and user agent fall
// back to values attached to ctx when the details leave them empty.
func (e *Engine) emitAudit(ctx context.Context, action string, details AuditDetails) {
	if e == nil || e.audit == nil {
		return
	}

	if details.IP == "" {
		details.IP = clientIPFromContext(ctx)
	}
	if details.UserAgent == "" {
		details.UserAgent = userAgentFromContext(ctx)
	}

	e.audit.Emit(ctx, NewAuditEntry(action, details))
}

func failureDetails(userID, email string, code OutcomeCode, sc *SecurityContext) AuditDetails {
	details := AuditDetails{
		UserID:    userID,
		Email:     email,
		Success:   false,
		ErrorCode: string(code),
	}
	if sc != nil {
		details.IP = sc.IP
		details.UserAgent = sc.UserAgent
	}
	return details
}

func successDetails(userID, email string, sc *SecurityContext) AuditDetails {
	details := AuditDetails{
		UserID:  userID,
		Email:   email,
		Success: true,
	}
	if sc != nil {
		details.IP = sc.IP
		details.UserAgent = sc.UserAgent
	}
	return details
}
