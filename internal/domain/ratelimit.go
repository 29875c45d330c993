package domain

import (
	"context"
	"time"
)

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets.
func (d RateLimitDecision) RetryAfter(now time.Time) int64 {
	if d.ResetAt.IsZero() || !d.ResetAt.After(now) {
		return 0
	}
	return int64(d.ResetAt.Sub(now).Seconds())
}

// RateLimiter counts requests per key within a window. A limit of zero or
// less disables limiting for the call.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
