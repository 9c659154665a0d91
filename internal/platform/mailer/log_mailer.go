package mailer

import (
	"context"

	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"
)

// LogMailer writes links to the log instead of sending mail. Used when no
// SMTP host is configured.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{log: logger.With("component", "mailer")}
}

func (m *LogMailer) SendEmailVerification(ctx context.Context, to, _ string, link string) error {
	m.log.Info(ctx, "verification email", "to", to, "link", link)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, _ string, link string) error {
	m.log.Info(ctx, "password reset email", "to", to, "link", link)
	return nil
}
