package service

import (
	"context"
	"testing"
	"time"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

func newTestOneTime(t *testing.T) (*OneTimeTokens, *stubUserRepo, *domain.User) {
	t.Helper()
	repo := newStubUserRepo()
	user, err := repo.Create(context.Background(), &domain.User{
		Email: "bob@example.com",
		Role:  domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewOneTimeTokens(repo, 24*time.Hour, 10*time.Minute), repo, user
}

func TestOneTimeTokens_IssueAndConsume(t *testing.T) {
	mgr, _, user := newTestOneTime(t)
	ctx := context.Background()

	plaintext, err := mgr.Issue(ctx, user.ID, domain.PurposeVerification)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if plaintext == "" {
		t.Fatalf("expected plaintext token")
	}

	got, err := mgr.Consume(ctx, plaintext, domain.PurposeVerification)
	if err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("consumed wrong user: %s", got.ID)
	}
}

func TestOneTimeTokens_SingleUse(t *testing.T) {
	mgr, _, user := newTestOneTime(t)
	ctx := context.Background()

	plaintext, err := mgr.Issue(ctx, user.ID, domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := mgr.Consume(ctx, plaintext, domain.PurposePasswordReset); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if _, err := mgr.Consume(ctx, plaintext, domain.PurposePasswordReset); err != domain.ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken on replay, got %v", err)
	}
}

func TestOneTimeTokens_PurposeIsolation(t *testing.T) {
	mgr, _, user := newTestOneTime(t)
	ctx := context.Background()

	plaintext, err := mgr.Issue(ctx, user.ID, domain.PurposeVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// A verification token must not reset a password.
	if _, err := mgr.Consume(ctx, plaintext, domain.PurposePasswordReset); err != domain.ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}

	// Still consumable for its own purpose afterwards.
	if _, err := mgr.Consume(ctx, plaintext, domain.PurposeVerification); err != nil {
		t.Fatalf("consume for own purpose failed: %v", err)
	}
}

func TestOneTimeTokens_Expiry(t *testing.T) {
	mgr, repo, user := newTestOneTime(t)
	ctx := context.Background()

	plaintext, err := mgr.Issue(ctx, user.ID, domain.PurposeVerification)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	repo.expireOneTimeToken(user.ID, domain.PurposeVerification)

	if _, err := mgr.Consume(ctx, plaintext, domain.PurposeVerification); err != domain.ErrInvalidVerificationToken {
		t.Fatalf("expected ErrInvalidVerificationToken after expiry, got %v", err)
	}
}

func TestOneTimeTokens_NewestOverwrites(t *testing.T) {
	mgr, _, user := newTestOneTime(t)
	ctx := context.Background()

	first, err := mgr.Issue(ctx, user.ID, domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := mgr.Issue(ctx, user.ID, domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := mgr.Consume(ctx, first, domain.PurposePasswordReset); err != domain.ErrInvalidResetToken {
		t.Fatalf("stale token must be rejected, got %v", err)
	}
	if _, err := mgr.Consume(ctx, second, domain.PurposePasswordReset); err != nil {
		t.Fatalf("latest token must be accepted: %v", err)
	}
}

func TestOneTimeTokens_EmptyPlaintext(t *testing.T) {
	mgr, _, _ := newTestOneTime(t)

	if _, err := mgr.Consume(context.Background(), "", domain.PurposeVerification); err != domain.ErrInvalidVerificationToken {
		t.Fatalf("expected ErrInvalidVerificationToken, got %v", err)
	}
}
