package rate

import "errors"

// ErrRateLimited is returned when a fixed-window counter exceeds its budget.
var ErrRateLimited = errors.New("rate limited")
