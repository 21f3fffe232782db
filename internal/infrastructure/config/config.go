package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	BaseURL  string `env:"BASE_URL, default=http://localhost:8080"`

	JWT     JWTConfig
	OneTime OneTimeConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	SMTP    SMTPConfig
	OAuth   OAuthConfig
	Limits  LimitsConfig
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL,  default=15m"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL, default=168h"`
}

type OneTimeConfig struct {
	VerifyTTL time.Duration `env:"VERIFY_TOKEN_TTL, default=24h"`
	ResetTTL  time.Duration `env:"RESET_TOKEN_TTL,  default=10m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM, default=no-reply@localhost"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"OAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"OAUTH_GOOGLE_CALLBACK_URL"`
}

type LimitsConfig struct {
	RequestsPerMinute  int           `env:"RATE_LIMIT_PER_MINUTE, default=30"`
	MaxLoginFailures   int           `env:"LOCKOUT_MAX_FAILURES,  default=5"`
	LoginFailureWindow time.Duration `env:"LOCKOUT_WINDOW,        default=15m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// IsProduction reports whether the service runs with production hardening
// (JSON logs, no error internals in responses, Secure cookies).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
