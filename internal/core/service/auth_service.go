package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridianlabs/identity-api/internal/api/metrics"
	"github.com/meridianlabs/identity-api/internal/core/domain"
	"github.com/meridianlabs/identity-api/internal/core/ports"
)

// AuthService orchestrates registration, login, token rotation, one-time
// token flows, and OAuth sign-in over the credential store.
type AuthService struct {
	repo     ports.UserRepository
	sessions *SessionLedger
	onetime  *OneTimeTokens
	mailer   ports.Mailer
	lockout  ports.LoginLockout
	baseURL  string
	log      zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	sessions *SessionLedger,
	onetime *OneTimeTokens,
	mailer ports.Mailer,
	lockout ports.LoginLockout,
	baseURL string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:     repo,
		sessions: sessions,
		onetime:  onetime,
		mailer:   mailer,
		lockout:  lockout,
		baseURL:  baseURL,
		log:      log,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, *domain.TokenPair, error) {
	email = domain.NormalizeEmail(email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:              email,
		FirstName:          firstName,
		LastName:           lastName,
		PasswordHash:       string(hash),
		Role:               domain.RoleUser,
		HasLocalCredential: true,
	}

	// The unique index closes the race between the existence check and the
	// insert; a duplicate surfaces as the same conflict either way.
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.sendVerification(ctx, created)

	pair, err := s.sessions.IssuePair(ctx, created)
	if err != nil {
		return nil, nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("local").Inc()
	return created, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	email = domain.NormalizeEmail(email)

	if s.lockout != nil {
		locked, err := s.lockout.IsLocked(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login lockout check failed")
		} else if locked {
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
			return nil, nil, domain.ErrAccountLocked
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, email)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	// OAuth-only accounts have no usable local credential. Same generic
	// failure as a wrong password so the distinction is not observable.
	if !user.HasLocalCredential ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, email)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}

	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("login lockout clear failed")
		}
	}

	pair, err := s.sessions.IssuePair(ctx, user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	pair, err := s.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			metrics.TokenRotationsTotal.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}
	metrics.TokenRotationsTotal.WithLabelValues("success").Inc()
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.sessions.RevokeAll(ctx, userID)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.onetime.Consume(ctx, token, domain.PurposeVerification)
	if err != nil {
		return err
	}
	return s.repo.MarkEmailVerified(ctx, user.ID)
}

func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return domain.ErrEmailAlreadyVerified
	}
	s.sendVerification(ctx, user)
	return nil
}

// ForgotPassword always reports success to the caller: a missing account and
// a delivery failure are indistinguishable from the happy path, so the
// endpoint cannot be used to probe which emails are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Str("email", email).Msg("password reset requested for unknown account")
			return nil
		}
		return err
	}

	token, err := s.onetime.Issue(ctx, user.ID, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	metrics.OneTimeTokensIssuedTotal.WithLabelValues(string(domain.PurposePasswordReset)).Inc()

	link := s.link("/reset-password", token)
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("password_reset", "failed").Inc()
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password reset mail delivery failed")
		return nil
	}
	metrics.MailDeliveriesTotal.WithLabelValues("password_reset", "sent").Inc()
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.onetime.Consume(ctx, token, domain.PurposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	// A password change invalidates every outstanding session.
	if err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	metrics.PasswordResetsTotal.Inc()
	return nil
}

func (s *AuthService) OAuthLogin(ctx context.Context, profile ports.OAuthProfile) (*domain.User, *domain.TokenPair, error) {
	if profile.Provider == "" || profile.Subject == "" || profile.Email == "" {
		return nil, nil, domain.ErrOAuthProfileMissing
	}
	email := domain.NormalizeEmail(profile.Email)

	user, err := s.repo.FindByOAuth(ctx, profile.Provider, profile.Subject)
	switch {
	case err == nil:
		// Known linkage.
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = s.linkOrCreate(ctx, profile, email)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	pair, err := s.sessions.IssuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) linkOrCreate(ctx context.Context, profile ports.OAuthProfile, email string) (*domain.User, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if err := s.repo.LinkOAuth(ctx, existing.ID, profile.Provider, profile.Subject, profile.Avatar); err != nil {
			return nil, err
		}
		return s.repo.FindByID(ctx, existing.ID)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	// First sign-in through this provider: the provider has already verified
	// the address, and the account starts without a local credential.
	user := &domain.User{
		Email:           email,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		Role:            domain.RoleUser,
		IsEmailVerified: true,
		OAuthProvider:   profile.Provider,
		OAuthSubject:    profile.Subject,
		Avatar:          profile.Avatar,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues(profile.Provider).Inc()
	return created, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *domain.User) {
	token, err := s.onetime.Issue(ctx, user.ID, domain.PurposeVerification)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("issue verification token failed")
		return
	}
	metrics.OneTimeTokensIssuedTotal.WithLabelValues(string(domain.PurposeVerification)).Inc()

	link := s.link("/verify-email", token)
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, link); err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("verification", "failed").Inc()
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("verification mail delivery failed")
		return
	}
	metrics.MailDeliveriesTotal.WithLabelValues("verification", "sent").Inc()
}

func (s *AuthService) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", s.baseURL, path, url.QueryEscape(token))
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.lockout == nil {
		return
	}
	if err := s.lockout.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("login lockout record failed")
	}
}
