package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/meridianlabs/identity-api/internal/api"
	"github.com/meridianlabs/identity-api/internal/api/handler"
	"github.com/meridianlabs/identity-api/internal/core/domain"
	"github.com/meridianlabs/identity-api/internal/core/ports"
)

// stubAuthService returns canned results so the handler layer can be tested
// in isolation from the real workflows.
type stubAuthService struct {
	user *domain.User
	pair *domain.TokenPair

	registerErr error
	loginErr    error
	refreshErr  error

	refreshedWith string
	loggedOut     []string
}

func (s *stubAuthService) Register(_ context.Context, _, _, _, _ string) (*domain.User, *domain.TokenPair, error) {
	if s.registerErr != nil {
		return nil, nil, s.registerErr
	}
	return s.user, s.pair, nil
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (*domain.User, *domain.TokenPair, error) {
	if s.loginErr != nil {
		return nil, nil, s.loginErr
	}
	return s.user, s.pair, nil
}

func (s *stubAuthService) Refresh(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	s.refreshedWith = refreshToken
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.pair, nil
}

func (s *stubAuthService) Logout(_ context.Context, userID string) error {
	s.loggedOut = append(s.loggedOut, userID)
	return nil
}

func (s *stubAuthService) Me(_ context.Context, _ string) (*domain.User, error) {
	return s.user, nil
}

func (s *stubAuthService) VerifyEmail(context.Context, string) error           { return nil }
func (s *stubAuthService) ResendVerification(context.Context, string) error    { return nil }
func (s *stubAuthService) ForgotPassword(context.Context, string) error        { return nil }
func (s *stubAuthService) ResetPassword(context.Context, string, string) error { return nil }

func (s *stubAuthService) OAuthLogin(context.Context, ports.OAuthProfile) (*domain.User, *domain.TokenPair, error) {
	return s.user, s.pair, nil
}

func newHandlerEcho(svc ports.AuthService) *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop(), false)

	h := handler.NewAuthHandler(svc, time.Hour, false)
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", func(c echo.Context) error {
		c.Set("user_id", "user-1")
		c.Set("role", domain.RoleUser)
		return h.Logout(c)
	})
	return e
}

func defaultStub() *stubAuthService {
	return &stubAuthService{
		user: &domain.User{ID: "user-1", Email: "alice@example.com", Role: domain.RoleUser},
		pair: &domain.TokenPair{AccessToken: "access-abc", RefreshToken: "refresh-abc"},
	}
}

func postJSON(e *echo.Echo, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) handler.Response {
	t.Helper()
	var resp handler.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	return resp
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refresh_token" {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	e := newHandlerEcho(defaultStub())

	rec := postJSON(e, "/auth/register",
		`{"email":"alice@example.com","password":"Passw0rd!","firstName":"Alice","lastName":"Smith"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if !resp.Success || resp.Message != "Registration successful" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}

	ck := refreshCookie(rec)
	if ck == nil {
		t.Fatalf("refresh cookie not set")
	}
	if ck.Value != "refresh-abc" || !ck.HttpOnly || ck.Path != "/auth" {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	e := newHandlerEcho(defaultStub())

	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","password":"Passw0rd!","firstName":"A","lastName":"B"}`},
		{"short password", `{"email":"a@example.com","password":"short","firstName":"A","lastName":"B"}`},
		{"missing names", `{"email":"a@example.com","password":"Passw0rd!"}`},
	}
	for _, tc := range cases {
		rec := postJSON(e, "/auth/register", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if resp := decodeEnvelope(t, rec); resp.Success {
			t.Fatalf("%s: failure envelope marked success", tc.name)
		}
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	svc := defaultStub()
	svc.registerErr = domain.ErrEmailTaken
	e := newHandlerEcho(svc)

	rec := postJSON(e, "/auth/register",
		`{"email":"alice@example.com","password":"Passw0rd!","firstName":"Alice","lastName":"Smith"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success || resp.Message != "Email already registered" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := defaultStub()
	svc.loginErr = domain.ErrInvalidCredentials
	e := newHandlerEcho(svc)

	rec := postJSON(e, "/auth/login", `{"email":"alice@example.com","password":"wrong-pass"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success || resp.Message != "Invalid email or password" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	svc := defaultStub()
	svc.pair = &domain.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}
	e := newHandlerEcho(svc)

	rec := postJSON(e, "/auth/refresh", "",
		&http.Cookie{Name: "refresh_token", Value: "refresh-1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.refreshedWith != "refresh-1" {
		t.Fatalf("expected cookie token to be presented, got %q", svc.refreshedWith)
	}
	ck := refreshCookie(rec)
	if ck == nil || ck.Value != "refresh-2" {
		t.Fatalf("rotated cookie not set: %+v", ck)
	}
}

func TestAuthHandler_Refresh_BodyFallback(t *testing.T) {
	svc := defaultStub()
	e := newHandlerEcho(svc)

	rec := postJSON(e, "/auth/refresh", `{"refreshToken":"refresh-body"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.refreshedWith != "refresh-body" {
		t.Fatalf("expected body token to be presented, got %q", svc.refreshedWith)
	}
}

func TestAuthHandler_Refresh_Missing(t *testing.T) {
	e := newHandlerEcho(defaultStub())

	rec := postJSON(e, "/auth/refresh", `{}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Refresh_InvalidClearsCookie(t *testing.T) {
	svc := defaultStub()
	svc.refreshErr = domain.ErrInvalidToken
	e := newHandlerEcho(svc)

	rec := postJSON(e, "/auth/refresh", "",
		&http.Cookie{Name: "refresh_token", Value: "stolen"})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	ck := refreshCookie(rec)
	if ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected cookie cleared, got %+v", ck)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := defaultStub()
	e := newHandlerEcho(svc)

	rec := postJSON(e, "/auth/logout", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "user-1" {
		t.Fatalf("logout not forwarded: %v", svc.loggedOut)
	}
	ck := refreshCookie(rec)
	if ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected cookie cleared, got %+v", ck)
	}
}
