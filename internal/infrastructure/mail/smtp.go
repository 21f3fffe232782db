// Package mail provides the outbound mail senders behind the Mailer port.
// The SMTP sender is used in deployment; the log sender stands in during
// development and tests.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig captures the settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail over plain SMTP with optional AUTH.
type SMTPSender struct {
	cfg  SMTPConfig
	addr string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, to, link string) error {
	body := "Welcome! Please verify your email address by opening:\r\n\r\n" + link + "\r\n"
	return s.send(ctx, to, "Verify your email address", body)
}

func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, to, link string) error {
	body := "A password reset was requested for your account. Open:\r\n\r\n" + link +
		"\r\n\r\nIf you did not request this, you can ignore this message.\r\n"
	return s.send(ctx, to, "Reset your password", body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(s.addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
