package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meridianlabs/identity-api/internal/core/ports"
)

// AuthHandler exposes the session-lifecycle endpoints: registration, login,
// refresh-token rotation, logout, and the current-user lookup.
type AuthHandler struct {
	authService   ports.AuthService
	refreshTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(authService ports.AuthService, refreshTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
	}
}

// Register creates a new account and starts a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  Response{data=sessionResponse}
// @Failure      400   {object}  Response
// @Failure      409   {object}  Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.refreshTTL, h.secureCookies)
	return respond(c, http.StatusCreated, "Registration successful", sessionResponse{User: user, Tokens: pair})
}

// Login authenticates with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  Response{data=sessionResponse}
// @Failure      401   {object}  Response
// @Failure      429   {object}  Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.refreshTTL, h.secureCookies)
	return respond(c, http.StatusOK, "Login successful", sessionResponse{User: user, Tokens: pair})
}

// Refresh rotates the presented refresh token for a new pair. The token is
// read from the cookie channel, with a body field fallback for non-browser
// clients.
//
// @Summary      Rotate refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	presented := ""
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		presented = cookie.Value
	} else {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.authService.Refresh(c.Request().Context(), presented)
	if err != nil {
		clearRefreshCookie(c, h.secureCookies)
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.refreshTTL, h.secureCookies)
	return respond(c, http.StatusOK, "Token refreshed", pair)
}

// Logout revokes every session of the authenticated user and clears the
// refresh-token cookie.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), userID); err != nil {
		return err
	}

	clearRefreshCookie(c, h.secureCookies)
	return respond(c, http.StatusOK, "Logged out", nil)
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Response{data=domain.User}
// @Failure      401  {object}  Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", user)
}
