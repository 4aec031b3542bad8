// Package smtp sends account emails over SMTPS using go-mail.
package smtp

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type Mailer struct {
	cfg       Config
	templates *template.Template
}

func NewMailer(cfg Config) (ports.Mailer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}
	return &Mailer{cfg: cfg, templates: templates}, nil
}

type mailData struct {
	Username string
	Link     string
}

func (m *Mailer) SendVerification(ctx context.Context, to, username, link string) error {
	return m.send(ctx, to, "Email Verification", "verification_email.html", mailData{Username: username, Link: link})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, username, link string) error {
	return m.send(ctx, to, "Reset Password", "reset_password_email.html", mailData{Username: username, Link: link})
}

func (m *Mailer) send(ctx context.Context, to, subject, templateName string, data mailData) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", templateName, err)
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
