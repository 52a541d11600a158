// Package mail sends admin notifications. Delivery is best-effort; callers
// fire it off a request path and only log failures.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"kidotrendz/storefront/internal/config"
)

type Mailer interface {
	Send(subject, body string) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Configured reports whether enough SMTP settings are present to send.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.From != "" && m.cfg.AdminEmail != ""
}

func (m *SMTPMailer) Send(subject, body string) error {
	if !m.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + m.cfg.AdminEmail,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{m.cfg.AdminEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// NopMailer drops notifications; used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) Send(string, string) error { return nil }
