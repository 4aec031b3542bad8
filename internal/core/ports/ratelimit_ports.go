package ports

import (
	"context"
	"time"
)

// RateLimiter enforces a fixed-window request budget per key. Allow
// returns 0 when the request fits the budget, otherwise the duration
// until the window resets.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (time.Duration, error)
}
