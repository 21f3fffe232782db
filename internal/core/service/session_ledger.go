package service

import (
	"context"

	"github.com/meridianlabs/identity-api/internal/core/domain"
	"github.com/meridianlabs/identity-api/internal/core/ports"
)

// SessionLedger tracks which refresh tokens are currently valid for a user
// and enforces single-use rotation. Only hashes of refresh tokens are
// mirrored in the store.
type SessionLedger struct {
	repo  ports.UserRepository
	codec *TokenCodec
}

func NewSessionLedger(repo ports.UserRepository, codec *TokenCodec) *SessionLedger {
	return &SessionLedger{repo: repo, codec: codec}
}

// IssuePair mints a fresh access+refresh pair and records the refresh
// token's hash in the user's valid set.
func (l *SessionLedger) IssuePair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, err := l.codec.Issue(user.ID, user.Role, domain.TokenKindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := l.codec.Issue(user.ID, user.Role, domain.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	if err := l.repo.AppendRefreshToken(ctx, user.ID, HashToken(refresh)); err != nil {
		return nil, err
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate spends the presented refresh token and issues a new pair. The swap
// is a conditional write keyed on the presented hash, so two concurrent
// rotations of the same token cannot both succeed: the second one misses the
// filter and fails with ErrInvalidToken.
func (l *SessionLedger) Rotate(ctx context.Context, presented string) (*domain.TokenPair, error) {
	claims, err := l.codec.Verify(presented, domain.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := l.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	access, err := l.codec.Issue(user.ID, user.Role, domain.TokenKindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := l.codec.Issue(user.ID, user.Role, domain.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	if err := l.repo.SwapRefreshToken(ctx, user.ID, HashToken(presented), HashToken(refresh)); err != nil {
		return nil, err
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RevokeAll clears the user's entire refresh-token set. Used on logout and
// after a successful password reset.
func (l *SessionLedger) RevokeAll(ctx context.Context, userID string) error {
	return l.repo.ClearRefreshTokens(ctx, userID)
}
