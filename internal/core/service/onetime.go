package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/meridianlabs/identity-api/internal/core/domain"
	"github.com/meridianlabs/identity-api/internal/core/ports"
)

const oneTimeSecretBytes = 32

// OneTimeTokens issues and consumes the single-use tokens used for email
// verification and password reset. The plaintext is returned to the caller
// for out-of-band delivery; the store only ever sees its sha256 hash.
type OneTimeTokens struct {
	repo      ports.UserRepository
	verifyTTL time.Duration
	resetTTL  time.Duration
}

func NewOneTimeTokens(repo ports.UserRepository, verifyTTL, resetTTL time.Duration) *OneTimeTokens {
	if verifyTTL <= 0 {
		verifyTTL = 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &OneTimeTokens{repo: repo, verifyTTL: verifyTTL, resetTTL: resetTTL}
}

// Issue generates a high-entropy secret for the user and purpose, storing
// its hash and expiry on the user record. A newer token overwrites any
// pending one for the same purpose.
func (m *OneTimeTokens) Issue(ctx context.Context, userID string, purpose domain.OneTimePurpose) (string, error) {
	buf := make([]byte, oneTimeSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate one-time token: %w", err)
	}
	plaintext := hex.EncodeToString(buf)

	expiresAt := time.Now().UTC().Add(m.ttlFor(purpose))
	if err := m.repo.SetOneTimeToken(ctx, userID, purpose, HashToken(plaintext), expiresAt); err != nil {
		return "", err
	}
	return plaintext, nil
}

// Consume resolves the presented plaintext to a user whose stored hash
// matches and whose expiry has not passed, clearing the stored hash in the
// same write. A second consume with the same plaintext fails.
func (m *OneTimeTokens) Consume(ctx context.Context, plaintext string, purpose domain.OneTimePurpose) (*domain.User, error) {
	if plaintext == "" {
		return nil, invalidOneTimeErr(purpose)
	}

	user, err := m.repo.ConsumeOneTimeToken(ctx, purpose, HashToken(plaintext), time.Now().UTC())
	if err != nil {
		return nil, invalidOneTimeErr(purpose)
	}
	return user, nil
}

func (m *OneTimeTokens) ttlFor(purpose domain.OneTimePurpose) time.Duration {
	if purpose == domain.PurposePasswordReset {
		return m.resetTTL
	}
	return m.verifyTTL
}

func invalidOneTimeErr(purpose domain.OneTimePurpose) error {
	if purpose == domain.PurposePasswordReset {
		return domain.ErrInvalidResetToken
	}
	return domain.ErrInvalidVerificationToken
}
