package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/meridianlabs/identity-api/internal/api/handler"
	"github.com/meridianlabs/identity-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes and
//     fixed, enumeration-safe messages.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders every failure in the standard envelope. Internal error text is
//     exposed only when exposeErrors is set (non-production builds).
func NewHTTPErrorHandler(log zerolog.Logger, exposeErrors bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, detail := resolveError(err, log, c, exposeErrors)
		_ = c.JSON(code, handler.Response{
			Success: false,
			Message: msg,
			Error:   detail,
		})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, exposeErrors bool) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		return he.Code, msg, msg
	}

	// Known domain errors → deterministic codes and fixed messages.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password", "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token", "invalid_token"
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusTooManyRequests, "Too many failed login attempts, try again later", "account_locked"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "Email already registered", "email_taken"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", "user_not_found"
	case errors.Is(err, domain.ErrInvalidVerificationToken):
		return http.StatusBadRequest, "Invalid or expired verification token", "invalid_verification_token"
	case errors.Is(err, domain.ErrInvalidResetToken):
		return http.StatusBadRequest, "Invalid or expired reset token", "invalid_reset_token"
	case errors.Is(err, domain.ErrEmailAlreadyVerified):
		return http.StatusBadRequest, "Email already verified", "email_already_verified"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role", "invalid_role"
	case errors.Is(err, domain.ErrOAuthProfileMissing):
		return http.StatusBadRequest, "Provider profile missing required fields", "oauth_profile_missing"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access forbidden", "forbidden"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	detail := "internal_error"
	if exposeErrors {
		detail = err.Error()
	}
	return http.StatusInternalServerError, "Internal server error", detail
}
