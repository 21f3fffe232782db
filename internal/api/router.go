package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meridianlabs/identity-api/internal/api/handler"
	"github.com/meridianlabs/identity-api/internal/api/middleware"
	"github.com/meridianlabs/identity-api/internal/core/domain"
	"github.com/meridianlabs/identity-api/internal/core/ports"
	"github.com/meridianlabs/identity-api/internal/core/service"
)

// Deps bundles everything the router needs.
type Deps struct {
	AuthService ports.AuthService
	UserService ports.UserService
	Codec       *service.TokenCodec
	Providers   []ports.OAuthProvider

	Mongo *mongo.Database
	Redis *redis.Client

	Log               zerolog.Logger
	SecureCookies     bool
	ExposeErrors      bool
	RequestsPerMinute int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.ExposeErrors)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	refreshTTL := d.Codec.RefreshTTL()
	authHandler := handler.NewAuthHandler(d.AuthService, refreshTTL, d.SecureCookies)
	accountHandler := handler.NewAccountHandler(d.AuthService)
	oauthHandler := handler.NewOAuthHandler(d.AuthService, refreshTTL, d.SecureCookies)
	userHandler := handler.NewUserHandler(d.UserService)

	authGuard := middleware.Auth(d.Codec)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	throttle := middleware.NewRateLimiter(d.RequestsPerMinute).Middleware()

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register, throttle)
	e.POST("/auth/login", authHandler.Login, throttle)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout, authGuard)
	e.GET("/auth/me", authHandler.Me, authGuard)

	e.POST("/auth/verify-email", accountHandler.VerifyEmail)
	e.POST("/auth/resend-verification", accountHandler.ResendVerification, authGuard)
	e.POST("/auth/forgot-password", accountHandler.ForgotPassword, throttle)
	e.POST("/auth/reset-password", accountHandler.ResetPassword)

	for _, p := range d.Providers {
		e.GET("/auth/"+p.Name(), oauthHandler.Redirect(p))
		e.GET("/auth/"+p.Name()+"/callback", oauthHandler.Callback(p))
	}

	// --- Admin user management ---
	users := e.Group("/users", authGuard, adminOnly)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.UpdateRole)
	users.DELETE("/:id", userHandler.Delete)

	// --- Observability (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
