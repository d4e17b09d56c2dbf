package client

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"otomar/internal/config"
)

type Mail struct {
	To      []string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, mail *Mail) error
}

type smtpMailer struct {
	cfg  config.SMTP
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer returns a no-op mailer when no SMTP host is configured.
func NewMailer(cfg *config.SMTP) Mailer {
	if cfg.Host == "" {
		return noopMailer{}
	}
	return &smtpMailer{
		cfg:  *cfg,
		send: smtp.SendMail,
	}
}

func (m *smtpMailer) Send(ctx context.Context, mail *Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(mail.To) == 0 {
		return fmt.Errorf("mail %q has no recipients", mail.Subject)
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, mail.To, buildMessage(m.cfg.From, mail)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", strings.Join(mail.To, ","), err)
	}
	return nil
}

func buildMessage(from string, mail *Mail) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(mail.To, ", ") + "\r\n")
	b.WriteString("Subject: " + mail.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(mail.Body)
	return []byte(b.String())
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, *Mail) error { return nil }
