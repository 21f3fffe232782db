package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meridianlabs/identity-api/internal/core/ports"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// OAuthHandler runs the browser side of the provider handshake: the
// redirect with a state cookie, and the callback that exchanges the code
// and opens a session.
type OAuthHandler struct {
	authService   ports.AuthService
	refreshTTL    time.Duration
	secureCookies bool
}

func NewOAuthHandler(authService ports.AuthService, refreshTTL time.Duration, secureCookies bool) *OAuthHandler {
	return &OAuthHandler{
		authService:   authService,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
	}
}

// Redirect sends the client to the provider's consent screen with a fresh
// anti-CSRF state bound to a short-lived cookie.
func (h *OAuthHandler) Redirect(provider ports.OAuthProvider) echo.HandlerFunc {
	return func(c echo.Context) error {
		state, err := randomState()
		if err != nil {
			return err
		}

		c.SetCookie(&http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/auth",
			MaxAge:   int(stateTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})

		return c.Redirect(http.StatusTemporaryRedirect, provider.AuthURL(state))
	}
}

// Callback validates the state, exchanges the code for a profile, and signs
// the user in — linking or creating the account as needed.
func (h *OAuthHandler) Callback(provider ports.OAuthProvider) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(stateCookieName)
		if err != nil || cookie.Value == "" || c.QueryParam("state") != cookie.Value {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid oauth state")
		}

		code := c.QueryParam("code")
		if code == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing authorization code")
		}

		profile, err := provider.FetchProfile(c.Request().Context(), code)
		if err != nil {
			return err
		}

		user, pair, err := h.authService.OAuthLogin(c.Request().Context(), *profile)
		if err != nil {
			return err
		}

		setRefreshCookie(c, pair.RefreshToken, h.refreshTTL, h.secureCookies)
		return respond(c, http.StatusOK, "Login successful", sessionResponse{User: user, Tokens: pair})
	}
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
