package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"artisan_dispo/internal/config"
	"log/slog"
)

// Sender delivers transactional email.
type Sender interface {
	SendMail(ctx context.Context, msg Message) error
	IsEnabled() bool
}

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type smtpSender struct {
	addr     string
	from     string
	auth     smtp.Auth
	log      *slog.Logger
}

// NewSender builds an SMTP sender.
func NewSender(cfg config.MailerConfig, log *slog.Logger) Sender {
	if !cfg.Enabled {
		return &noopSender{log: log}
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &smtpSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: auth,
		log:  log,
	}
}

func (s *smtpSender) SendMail(ctx context.Context, msg Message) error {
	const op = "mailer.Sender.SendMail"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *smtpSender) IsEnabled() bool {
	return true
}

// noopSender swallows messages when SMTP is disabled.
type noopSender struct {
	log *slog.Logger
}

func (s *noopSender) SendMail(ctx context.Context, msg Message) error {
	s.log.Debug("mailer is disabled", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}

func (s *noopSender) IsEnabled() bool {
	return false
}
