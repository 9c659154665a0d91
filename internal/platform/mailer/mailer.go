// Package mailer delivers the account emails: verification links and
// password reset links.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/textproto"
	"strings"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/config"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	verificationTemplate = "email_verification.html"
	resetTemplate        = "password_reset.html"

	verificationSubject = "Verify your email address"
	resetSubject        = "Reset your password"
)

type templateData struct {
	FirstName string
	Link      string
	Expiry    string
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func plainText(data templateData, intro string) string {
	return fmt.Sprintf("Hello %s,\n\n%s\n\n%s\n\nThis link expires in %s.\n", data.FirstName, intro, data.Link, data.Expiry)
}

// SMTPMailer sends templated HTML mail through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
	expiry string
	log    logging.Logger
}

func NewSMTPMailer(cfg *config.Config, logger logging.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.SMTPSecure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &SMTPMailer{
		client: client,
		from:   cfg.MailFrom,
		expiry: humanize(cfg.ActionTokenTTL),
		log:    logger.With("component", "mailer"),
	}, nil
}

func (m *SMTPMailer) SendEmailVerification(ctx context.Context, to, firstName, link string) error {
	data := templateData{FirstName: firstName, Link: link, Expiry: m.expiry}
	return m.send(ctx, to, verificationSubject, verificationTemplate, data,
		plainText(data, "Please verify your email address by opening the link below."))
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, firstName, link string) error {
	data := templateData{FirstName: firstName, Link: link, Expiry: m.expiry}
	return m.send(ctx, to, resetSubject, resetTemplate, data,
		plainText(data, "Open the link below to reset your password."))
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, tmpl string, data templateData, text string) error {
	body, err := render(tmpl, data)
	if err != nil {
		return common.MailFailure(nil, err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return common.MailFailure(nil, fmt.Errorf("invalid sender: %w", err))
	}
	if err := msg.To(to); err != nil {
		return common.MailFailure(nil, fmt.Errorf("invalid recipient: %w", err))
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	msg.AddAlternativeString(mail.TypeTextPlain, text)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		cause := classify(err)
		m.log.Error(ctx, "mail delivery failed", "subject", subject, "error", err)
		return common.MailFailure(cause, err)
	}
	return nil
}

// classify maps SMTP replies onto the dependency causes the fault handler
// reports distinctly. Unknown failures return nil. Mailbox and storage
// replies (450, 452) are plain delivery failures, not throttling.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return common.ErrTransportAuth
		case 421:
			return common.ErrRateLimited
		}
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "535"), strings.Contains(msg, "authentication failed"),
		strings.Contains(msg, "username and password not accepted"):
		return common.ErrTransportAuth
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many"):
		return common.ErrRateLimited
	}
	return nil
}

func humanize(d time.Duration) string {
	if d%time.Hour == 0 && d >= time.Hour {
		return fmt.Sprintf("%d hour(s)", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
