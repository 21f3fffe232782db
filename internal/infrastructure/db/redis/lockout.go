package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

const lockoutKeyPrefix = "login_failures:"

// LoginLockout counts consecutive failed logins per account in Redis.
// The counter expires after the configured window, so a quiet period
// unlocks the account without any cleanup job.
type LoginLockout struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

func NewLoginLockout(client *redis.Client, maxFailures int, window time.Duration) *LoginLockout {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLockout{client: client, maxFailures: int64(maxFailures), window: window}
}

func (l *LoginLockout) IsLocked(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(email)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lockout get: %w", err)
	}
	return n >= l.maxFailures, nil
}

// RecordFailure increments the failure counter and starts the expiry window
// on the first failure.
func (l *LoginLockout) RecordFailure(ctx context.Context, email string) error {
	key := l.key(email)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("lockout incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("lockout expire: %w", err)
		}
	}
	return nil
}

func (l *LoginLockout) Clear(ctx context.Context, email string) error {
	if err := l.client.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("lockout clear: %w", err)
	}
	return nil
}

func (l *LoginLockout) key(email string) string {
	return lockoutKeyPrefix + domain.NormalizeEmail(email)
}
