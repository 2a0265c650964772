// Package mail provides delivery agents for account notifications.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"authgate/internal/config"
)

// SMTPAgent delivers mail through an SMTP relay
type SMTPAgent struct {
	addr string
	from string
}

// NewSMTPAgent creates an agent for the configured relay
func NewSMTPAgent(cfg config.MailConfig) *SMTPAgent {
	return &SMTPAgent{
		addr: net.JoinHostPort(cfg.Host, cfg.Port),
		from: cfg.From,
	}
}

// Send delivers a single plain-text message
func (a *SMTPAgent) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", a.from)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return smtp.SendMail(a.addr, nil, a.from, []string{recipient}, []byte(msg.String()))
}
