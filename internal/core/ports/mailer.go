package ports

import "context"

// Mailer delivers out-of-band notifications. Delivery is best-effort
// everywhere: callers log and count failures but never propagate them.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, link string) error
	SendPasswordResetEmail(ctx context.Context, to, link string) error
}
