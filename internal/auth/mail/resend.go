package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendMailer sends transactional email through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string // verified sender address, e.g. noreply@starkpulse.app
	appURL string // public base URL embedded in links
}

func NewResendMailer(apiKey, from, appURL string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		appURL: appURL,
	}
}

func (m *ResendMailer) SendVerification(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.appURL, token)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("StarkPulse <%s>", m.from),
		To:      []string{toEmail},
		Subject: "Verify your email address",
		Html: fmt.Sprintf(`<p>Welcome to StarkPulse. Confirm your email address to finish setting up your account:</p>
<p><a href="%s">Verify email</a></p>
<p>If the link doesn't work, copy and paste this URL:<br>%s</p>
<p>If you didn't create this account, you can ignore this email.</p>`, link, link),
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func (m *ResendMailer) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.appURL, token)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("StarkPulse <%s>", m.from),
		To:      []string{toEmail},
		Subject: "Reset your password",
		Html: fmt.Sprintf(`<p>We received a request to reset your password. Use the link below to choose a new one:</p>
<p><a href="%s">Reset password</a></p>
<p>If the link doesn't work, copy and paste this URL:<br>%s</p>
<p>The link expires soon. If you didn't request a reset, you can ignore this email.</p>`, link, link),
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}
