package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// Mailer delivers a raw verification code to a guest's RSVP email. The code
// is never persisted in plaintext; this is the single point where it leaves
// the process.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to string, code string, expiresAt time.Time) error
}

// ResendMailer sends verification codes through the Resend API.
type ResendMailer struct {
	Client *resend.Client
	From   string
	Logger *slog.Logger
}

func NewResendMailer(apiKey, from string, logger *slog.Logger) *ResendMailer {
	return &ResendMailer{
		Client: resend.NewClient(apiKey),
		From:   from,
		Logger: logger,
	}
}

func (m *ResendMailer) SendVerificationCode(ctx context.Context, to string, code string, expiresAt time.Time) error {
	params := &resend.SendEmailRequest{
		From:    m.From,
		To:      []string{to},
		Subject: "Your verification code",
		Html: fmt.Sprintf(
			"<p>Your verification code is <strong>%s</strong>.</p><p>It expires at %s.</p>",
			code, expiresAt.Format("15:04 MST"),
		),
	}

	if _, err := m.Client.Emails.SendWithContext(ctx, params); err != nil {
		m.Logger.Error("failed to send verification email", "to", to, "error", err)
		return fmt.Errorf("email: send verification code: %w", err)
	}

	m.Logger.Debug("verification email sent", "to", to)
	return nil
}

// LogMailer writes codes to the log instead of sending email. Used outside
// production so the flow can be exercised without a mail provider.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendVerificationCode(ctx context.Context, to string, code string, expiresAt time.Time) error {
	m.Logger.Info("email verification code",
		"to", to,
		"code", code,
		"expires_at", expiresAt,
	)
	return nil
}
