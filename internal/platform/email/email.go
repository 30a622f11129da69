// Package email sends transactional mail. Delivery failures are the caller's
// to log; nothing here should take a request down with it.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"zolo-auth/internal/platform/config"
)

// Message is a single outbound mail.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail over plain SMTP with optional AUTH.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTP builds a sender from config. Returns nil when no host is
// configured, so callers can treat mail as optional.
func NewSMTP(cfg config.SMTPConfig) *SMTPSender {
	if cfg.Host == "" {
		return nil
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.FromAddress,
		auth: auth,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, msg.To, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// NopSender drops mail. Used when SMTP is not configured and in tests.
type NopSender struct{}

func (NopSender) Send(context.Context, Message) error { return nil }
