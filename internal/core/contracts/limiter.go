package contracts

import (
	"context"
	"time"
)

// RateLimiter bounds how often a keyed action may occur within a window.
type RateLimiter interface {
	// Allow reports whether the action keyed by key is still under limit
	// for the current window. Errors are infrastructure failures, not
	// rejections.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
