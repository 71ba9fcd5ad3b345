package resetkit

import "time"

// CheckResetRateLimit applies the sliding-log limit to a caller-supplied
// history of reset-request timestamps. Only attempts within the reset
// window of now count; when the budget is spent, NextAllowedAt is the
// instant the oldest counted attempt ages out of the window.
//
// Pure function of its input: no I/O, no store. An empty history is fully
// allowed. The caller persists the attempt log and appends to it after an
// allowed request.
func (e *Engine) CheckResetRateLimit(pastAttempts []time.Time) RateLimitResult {
	return checkResetRateLimit(
		pastAttempts,
		e.now(),
		e.config.RateLimit.MaxResetAttempts,
		e.config.RateLimit.ResetWindow,
	)
}

func checkResetRateLimit(pastAttempts []time.Time, now time.Time, maxAttempts int, window time.Duration) RateLimitResult {
	cutoff := now.Add(-window)

	var (
		recent int
		oldest time.Time
	)
	for _, at := range pastAttempts {
		if at.After(cutoff) {
			recent++
			if oldest.IsZero() || at.Before(oldest) {
				oldest = at
			}
		}
	}

	remaining := maxAttempts - recent
	if remaining < 0 {
		remaining = 0
	}

	result := RateLimitResult{
		Allowed:           recent < maxAttempts,
		RemainingAttempts: remaining,
		RecentAttempts:    recent,
	}
	if !result.Allowed {
		result.NextAllowedAt = oldest.Add(window)
	}
	return result
}
