package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meridianlabs/identity-api/internal/core/ports"
)

// AccountHandler exposes the one-time-token flows: email verification and
// password reset.
type AccountHandler struct {
	authService ports.AuthService
}

func NewAccountHandler(authService ports.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// VerifyEmail consumes a verification token and marks the account verified.
//
// @Summary      Verify email
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Verification token"
// @Success      200   {object}  Response
// @Failure      400   {object}  Response
// @Router       /auth/verify-email [post]
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Email verified", nil)
}

// ResendVerification re-issues the verification token for the authenticated
// user, overwriting any pending one.
//
// @Summary      Resend verification email
// @Tags         account
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  Response
// @Failure      401  {object}  Response
// @Router       /auth/resend-verification [post]
func (h *AccountHandler) ResendVerification(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.authService.ResendVerification(c.Request().Context(), userID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Verification email sent", nil)
}

// ForgotPassword requests a password-reset token. The response is identical
// whether or not the account exists.
//
// @Summary      Request password reset
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  Response
// @Router       /auth/forgot-password [post]
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "If the account exists, a reset link has been sent", nil)
}

// ResetPassword consumes a reset token, sets the new password, and revokes
// every outstanding session.
//
// @Summary      Reset password
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  Response
// @Failure      400   {object}  Response
// @Router       /auth/reset-password [post]
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Password reset", nil)
}
