package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meridianlabs/identity-api/internal/core/domain"
)

// stubUserRepo is an in-memory UserRepository honouring the port's
// conditional-write semantics, so the rotation and single-use tests exercise
// the same failure paths the Mongo implementation produces.
type stubUserRepo struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*domain.User
	refresh map[string][]string
	onetime map[string]map[domain.OneTimePurpose]otRecord
}

type otRecord struct {
	hash      string
	expiresAt time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:   make(map[string]*domain.User),
		refresh: make(map[string][]string),
		onetime: make(map[string]map[domain.OneTimePurpose]otRecord),
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.seq)
	copy.CreatedAt = time.Now().UTC()
	copy.UpdatedAt = copy.CreatedAt
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByOAuth(_ context.Context, provider, subject string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.OAuthProvider == provider && u.OAuthSubject == subject {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, offset, limit int64) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*domain.User
	for _, u := range r.users {
		users = append(users, cloneUser(u))
	}
	total := int64(len(users))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return users[offset:end], total, nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id, role string) error {
	return r.mutate(id, func(u *domain.User) { u.Role = role })
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) SetPassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, func(u *domain.User) {
		u.PasswordHash = passwordHash
		u.HasLocalCredential = true
	})
}

func (r *stubUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) { u.IsEmailVerified = true })
}

func (r *stubUserRepo) LinkOAuth(_ context.Context, id, provider, subject, avatar string) error {
	return r.mutate(id, func(u *domain.User) {
		u.OAuthProvider = provider
		u.OAuthSubject = subject
		if avatar != "" {
			u.Avatar = avatar
		}
	})
}

func (r *stubUserRepo) AppendRefreshToken(_ context.Context, id, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	r.refresh[id] = append(r.refresh[id], tokenHash)
	return nil
}

func (r *stubUserRepo) SwapRefreshToken(_ context.Context, id, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hashes := r.refresh[id]
	for i, h := range hashes {
		if h == oldHash {
			hashes[i] = newHash
			return nil
		}
	}
	return domain.ErrInvalidToken
}

func (r *stubUserRepo) ClearRefreshTokens(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh[id] = nil
	return nil
}

func (r *stubUserRepo) SetOneTimeToken(_ context.Context, id string, purpose domain.OneTimePurpose, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	if r.onetime[id] == nil {
		r.onetime[id] = make(map[domain.OneTimePurpose]otRecord)
	}
	r.onetime[id][purpose] = otRecord{hash: tokenHash, expiresAt: expiresAt}
	return nil
}

func (r *stubUserRepo) ConsumeOneTimeToken(_ context.Context, purpose domain.OneTimePurpose, tokenHash string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, records := range r.onetime {
		rec, ok := records[purpose]
		if !ok || rec.hash != tokenHash || !rec.expiresAt.After(now) {
			continue
		}
		delete(records, purpose)
		return cloneUser(r.users[id]), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) mutate(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// expireOneTimeToken backdates a pending token so expiry paths can be tested
// without sleeping.
func (r *stubUserRepo) expireOneTimeToken(id string, purpose domain.OneTimePurpose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.onetime[id][purpose]; ok {
		rec.expiresAt = time.Now().UTC().Add(-time.Minute)
		r.onetime[id][purpose] = rec
	}
}

func (r *stubUserRepo) refreshCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refresh[id])
}
