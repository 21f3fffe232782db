package ports

import (
	"context"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

// AuthService orchestrates the authentication flows.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, *domain.TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (*domain.User, error)

	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	OAuthLogin(ctx context.Context, profile OAuthProfile) (*domain.User, *domain.TokenPair, error)
}

// UserService covers admin user management.
type UserService interface {
	List(ctx context.Context, offset, limit int64) ([]*domain.User, int64, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
