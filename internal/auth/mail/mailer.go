// Package mail abstracts outbound email so the service layer depends on an
// interface, not on a concrete provider.
package mail

import (
	"context"
	"log/slog"

	"github.com/starkpulse/auth/pkg/slogx"
)

// Mailer delivers the two transactional emails the service sends. Tokens
// arrive in plaintext here; only their fingerprints are ever persisted.
type Mailer interface {
	// SendVerification sends the email-verification link for a new account.
	SendVerification(ctx context.Context, toEmail, token string) error

	// SendPasswordReset sends the password-reset link.
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

// LogMailer writes emails to the structured log instead of sending them.
// Used in development and tests where no provider is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) SendVerification(ctx context.Context, toEmail, token string) error {
	slogx.FromContext(ctx).Info("mail: verification (not sent)",
		slog.String("to", toEmail),
		slog.String("token", token),
	)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	slogx.FromContext(ctx).Info("mail: password reset (not sent)",
		slog.String("to", toEmail),
		slog.String("token", token),
	)
	return nil
}
