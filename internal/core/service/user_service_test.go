package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

func seedUsers(t *testing.T, repo *stubUserRepo, n int) []*domain.User {
	t.Helper()
	users := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := repo.Create(context.Background(), &domain.User{
			Email:              fmt.Sprintf("user%d@example.com", i),
			FirstName:          fmt.Sprintf("User%d", i),
			PasswordHash:       "x",
			Role:               domain.RoleUser,
			HasLocalCredential: true,
		})
		if err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
		users = append(users, u)
	}
	return users
}

func TestUserService_List(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)
	seedUsers(t, repo, 4)

	users, total, err := svc.List(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 || len(users) != 4 {
		t.Fatalf("expected 4 users, got len=%d total=%d", len(users), total)
	}

	// Page past the end: empty page, total unchanged.
	users, total, err = svc.List(context.Background(), 10, 10)
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if total != 4 || len(users) != 0 {
		t.Fatalf("expected empty page with total 4, got len=%d total=%d", len(users), total)
	}
}

func TestUserService_List_ClampsLimit(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)
	seedUsers(t, repo, 30)

	// Zero and oversized limits fall back to the default page size.
	for _, limit := range []int64{0, -5, 500} {
		users, _, err := svc.List(context.Background(), 0, limit)
		if err != nil {
			t.Fatalf("list with limit %d: %v", limit, err)
		}
		if len(users) != defaultPageSize {
			t.Fatalf("limit %d: expected %d users, got %d", limit, defaultPageSize, len(users))
		}
	}
}

func TestUserService_Get(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)
	seeded := seedUsers(t, repo, 1)[0]

	got, err := svc.Get(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != seeded.Email {
		t.Fatalf("expected %s, got %s", seeded.Email, got.Email)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_UpdateRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)
	seeded := seedUsers(t, repo, 1)[0]

	updated, err := svc.UpdateRole(context.Background(), seeded.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("expected role %s, got %s", domain.RoleAdmin, updated.Role)
	}

	if _, err := svc.UpdateRole(context.Background(), seeded.ID, "superuser"); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.UpdateRole(context.Background(), "missing", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo)
	seeded := seedUsers(t, repo, 1)[0]

	if err := svc.Delete(context.Background(), seeded.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), seeded.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), seeded.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on double delete, got %v", err)
	}
}
