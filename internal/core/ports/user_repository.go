package ports

import (
	"context"
	"time"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

// UserRepository defines the persistence contract for accounts and the token
// state mirrored on them. Implementations must make SwapRefreshToken and
// ConsumeOneTimeToken atomic: both are conditional single-document writes
// whose filter miss is the signal that the token was already spent.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByOAuth(ctx context.Context, provider, subject string) (*domain.User, error)
	List(ctx context.Context, offset, limit int64) ([]*domain.User, int64, error)

	UpdateRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id string) error
	LinkOAuth(ctx context.Context, id, provider, subject, avatar string) error

	// Refresh-token set. SwapRefreshToken replaces oldHash with newHash only
	// if oldHash is still a member; it returns domain.ErrInvalidToken when
	// the presented token has been rotated out or revoked.
	AppendRefreshToken(ctx context.Context, id, tokenHash string) error
	SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error
	ClearRefreshTokens(ctx context.Context, id string) error

	// One-time token mirror. SetOneTimeToken overwrites any pending token for
	// the same purpose. ConsumeOneTimeToken clears the stored hash+expiry in
	// the same write that matches them, so a token is consumable at most once.
	SetOneTimeToken(ctx context.Context, id string, purpose domain.OneTimePurpose, tokenHash string, expiresAt time.Time) error
	ConsumeOneTimeToken(ctx context.Context, purpose domain.OneTimePurpose, tokenHash string, now time.Time) (*domain.User, error)
}
