package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/daylog-app/daylog-api/pkg/config"
)

// LoginLimiter throttles repeated login attempts per login id and client IP
// using a fixed-window Redis counter. The window starts on the first attempt
// and the counter is cleared on a successful login.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter builds a limiter from configuration. Returns nil when the
// feature is disabled or no Redis client is available; all methods are
// nil-safe.
func NewLoginLimiter(client *redis.Client, cfg config.RateLimitConfig) *LoginLimiter {
	if client == nil || !cfg.Enabled {
		return nil
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	window := cfg.Window
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow reports whether another attempt is permitted for the pair. A Redis
// failure is returned to the caller, which should fail open.
func (l *LoginLimiter) Allow(ctx context.Context, loginID, ip string) (bool, error) {
	if l == nil {
		return true, nil
	}

	key := l.key(loginID, ip)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("increment login attempts: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return true, fmt.Errorf("set attempt window: %w", err)
		}
	}

	return count <= int64(l.maxAttempts), nil
}

// Reset clears the attempt counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, loginID, ip string) {
	if l == nil {
		return
	}
	l.client.Del(ctx, l.key(loginID, ip))
}

func (l *LoginLimiter) key(loginID, ip string) string {
	return fmt.Sprintf("login_attempts:%s:%s", loginID, ip)
}
