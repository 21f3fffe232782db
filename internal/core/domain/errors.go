package domain

import "errors"

// Sentinel errors shared across services, repositories, and the HTTP error
// handler. Credential and token failures deliberately carry one generic
// message each so responses cannot be used to enumerate accounts.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")

	// ErrInvalidToken covers every access/refresh verification failure:
	// bad signature, expiry, wrong kind, and replay of a rotated token.
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")

	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrInvalidRole          = errors.New("invalid role")
	ErrOAuthProfileMissing  = errors.New("provider profile missing required fields")
	ErrAccountLocked        = errors.New("too many failed login attempts, try again later")
	ErrForbidden            = errors.New("access forbidden")
)
