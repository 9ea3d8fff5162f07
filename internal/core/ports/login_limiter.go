package ports

import "context"

// LoginLimiter throttles repeated login attempts per account. Errors
// from the backing store fail open: availability wins over throttling.
type LoginLimiter interface {
	// Allow records an attempt for the given key and reports whether
	// it is within the window budget.
	Allow(ctx context.Context, key string) (bool, error)
}
