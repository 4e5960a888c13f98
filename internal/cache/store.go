package cache

import (
	"context"
	"time"
)

// Store keeps short-lived counters shared by the rate limiter.
type Store interface {
	// IncrementWithTTL bumps the counter for key inside a fixed window and returns the new
	// count together with the time left until the window resets.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// PurgeExpired drops counters whose window has ended.
	PurgeExpired(ctx context.Context) (int64, error)
}
