package service

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

// TokenCodec mints and verifies the signed access and refresh tokens.
// Each kind is signed with its own secret, so possession of a valid token
// of one kind is useless for forging the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Issue signs a token of the given kind for the user. The jti makes every
// minted refresh token distinct even within the same second.
func (c *TokenCodec) Issue(userID, role string, kind domain.TokenKind) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"kind": string(kind),
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(c.ttlFor(kind)).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secretFor(kind))
}

// Verify parses the token against the expected kind's secret and checks the
// kind claim. Every failure mode collapses into domain.ErrInvalidToken so
// callers cannot tell tampering from expiry from kind mismatch.
func (c *TokenCodec) Verify(token string, expected domain.TokenKind) (*domain.TokenClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secretFor(expected), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	kind, _ := claims["kind"].(string)
	if kind != string(expected) {
		return nil, domain.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)

	return &domain.TokenClaims{
		UserID: sub,
		Role:   role,
		Kind:   expected,
		ID:     jti,
	}, nil
}

// RefreshTTL exposes the refresh-token lifetime for cookie expiry.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *TokenCodec) secretFor(kind domain.TokenKind) []byte {
	if kind == domain.TokenKindRefresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

func (c *TokenCodec) ttlFor(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// HashToken returns the hex sha256 digest under which a secret is mirrored
// in the store. The store never holds a usable token value.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
