package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes the would-be email to the log instead of delivering it.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendVerificationEmail(_ context.Context, to, link string) error {
	s.log.Info().
		Str("to", to).
		Str("link", link).
		Msg("verification email (log sender)")
	return nil
}

func (s *LogSender) SendPasswordResetEmail(_ context.Context, to, link string) error {
	s.log.Info().
		Str("to", to).
		Str("link", link).
		Msg("password reset email (log sender)")
	return nil
}
