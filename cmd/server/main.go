package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridianlabs/identity-api/internal/api"
	"github.com/meridianlabs/identity-api/internal/core/ports"
	"github.com/meridianlabs/identity-api/internal/core/service"
	"github.com/meridianlabs/identity-api/internal/infrastructure/config"
	mongodb "github.com/meridianlabs/identity-api/internal/infrastructure/db/mongo"
	redisdb "github.com/meridianlabs/identity-api/internal/infrastructure/db/redis"
	"github.com/meridianlabs/identity-api/internal/infrastructure/mail"
	"github.com/meridianlabs/identity-api/internal/infrastructure/oauth"
	"github.com/meridianlabs/identity-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	// --- Core services ---
	codec := service.NewTokenCodec(
		cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL,
	)
	sessions := service.NewSessionLedger(userRepo, codec)
	onetime := service.NewOneTimeTokens(userRepo, cfg.OneTime.VerifyTTL, cfg.OneTime.ResetTTL)
	lockout := redisdb.NewLoginLockout(rdb, cfg.Limits.MaxLoginFailures, cfg.Limits.LoginFailureWindow)

	var mailer ports.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn().Msg("SMTP_HOST not set, using log mail sender")
		mailer = mail.NewLogSender(log)
	}

	authService := service.NewAuthService(userRepo, sessions, onetime, mailer, lockout, cfg.BaseURL, log)
	userService := service.NewUserService(userRepo)

	var providers []ports.OAuthProvider
	if cfg.OAuth.GoogleClientID != "" {
		providers = append(providers, oauth.NewGoogleProvider(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			cfg.OAuth.GoogleCallbackURL,
		))
	}

	e := api.NewRouter(api.Deps{
		AuthService:       authService,
		UserService:       userService,
		Codec:             codec,
		Providers:         providers,
		Mongo:             db,
		Redis:             rdb,
		Log:               log,
		SecureCookies:     cfg.IsProduction(),
		ExposeErrors:      !cfg.IsProduction(),
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
