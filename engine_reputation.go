package resetkit

import (
	"context"
	"errors"

	"github.com/resetkit/resetkit/internal/rate"
)

const (
	ipReputationKeyPrefix  = "ip_reputation:"
	securityEventKeyPrefix = "security_event:"
)

// AddIPReputation adds delta to the IP's reputation accumulator and
// refreshes its TTL, returning the new score. The score is an informational
// defensive signal, not a hard gate in any flow here.
func (e *Engine) AddIPReputation(ctx context.Context, ip string, delta float64) (float64, error) {
	score, err := e.kv.IncrementFloatWithTTL(ctx, ipReputationKeyPrefix+ip, delta, e.config.Reputation.TTL)
	if err != nil {
		return 0, e.storeErr(err)
	}
	return score, nil
}

// IPReputation returns the IP's current score, 0 when none is recorded.
func (e *Engine) IPReputation(ctx context.Context, ip string) (float64, error) {
	score, err := e.kv.GetFloat64(ctx, ipReputationKeyPrefix+ip)
	if err != nil {
		return 0, e.storeErr(err)
	}
	return score, nil
}

// RecordSecurityEvent counts one named event for the IP in a fixed window
// bounded by the reputation TTL, and feeds the reputation accumulator.
func (e *Engine) RecordSecurityEvent(ctx context.Context, event, ip string) (int64, error) {
	count, err := e.kv.IncrementWindow(ctx, securityEventKeyPrefix+event+":"+ip, e.config.Reputation.TTL)
	if err != nil {
		return 0, e.storeErr(err)
	}

	if _, err := e.AddIPReputation(ctx, ip, 1); err != nil {
		return count, err
	}
	return count, nil
}

// HitRateLimit records one event against the scope+identifier fixed-window
// counter, with an optional per-IP counter beside it. Returns ErrRateLimited
// once either counter exceeds the budget.
func (e *Engine) HitRateLimit(ctx context.Context, scope, identifier, ip string) error {
	err := e.limiter.Hit(ctx, scope, identifier, ip)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricRateLimited)
		e.emitAudit(ctx, auditActionRateLimitTriggered, AuditDetails{
			IP:        ip,
			Success:   false,
			ErrorCode: "RATE_LIMITED",
		})
		return ErrRateLimited
	}
	return e.storeErr(err)
}

// CheckRateLimit reads the scope+identifier counters without incrementing.
func (e *Engine) CheckRateLimit(ctx context.Context, scope, identifier, ip string) error {
	err := e.limiter.Check(ctx, scope, identifier, ip)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricRateLimited)
		return ErrRateLimited
	}
	return e.storeErr(err)
}

// ResetRateLimit clears the scope+identifier counters.
func (e *Engine) ResetRateLimit(ctx context.Context, scope, identifier, ip string) error {
	return e.storeErr(e.limiter.Reset(ctx, scope, identifier, ip))
}
