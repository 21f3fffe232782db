package ports

import "context"

// LoginLockout throttles password guessing against a single account.
// Implementations count consecutive failures inside a sliding window.
type LoginLockout interface {
	IsLocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Clear(ctx context.Context, email string) error
}
