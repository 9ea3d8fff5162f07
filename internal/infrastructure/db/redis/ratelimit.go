package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultWindow      = 15 * time.Minute
	defaultMaxAttempts = 10
)

// LoginLimiter throttles login attempts with a fixed window counter in
// Redis. Key format: login_attempts:<normalized email>. Store errors
// fail open so a Redis outage never locks everyone out.
type LoginLimiter struct {
	client      *redis.Client
	window      time.Duration
	maxAttempts int64
}

// NewLoginLimiter creates a LoginLimiter wrapping the given Redis client.
// Non-positive window or maxAttempts fall back to the defaults.
func NewLoginLimiter(client *redis.Client, window time.Duration, maxAttempts int64) *LoginLimiter {
	if window <= 0 {
		window = defaultWindow
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &LoginLimiter{client: client, window: window, maxAttempts: maxAttempts}
}

// Allow records an attempt for key and reports whether it is within
// the window budget.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		// First attempt starts the window.
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return true, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= l.maxAttempts, nil
}

func (l *LoginLimiter) key(identity string) string {
	return fmt.Sprintf("login_attempts:%s", identity)
}
