package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/config"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// EmailSender delivers mail over SMTP. With SMTP disabled in config it
// logs the message instead of sending, which keeps development setups
// working without a relay.
type EmailSender struct {
	cfg    config.SMTPConfig
	logger *logging.Logger

	// send is swappable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates a sender from SMTP configuration.
func NewEmailSender(cfg config.SMTPConfig, logger *logging.Logger) *EmailSender {
	return &EmailSender{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Send delivers one message. Implements the auth.Mailer interface.
func (e *EmailSender) Send(to, subject, body string) error {
	if !e.cfg.Enabled {
		e.logger.Info("smtp disabled, mail not sent", "to", to, "subject", subject)
		return nil
	}

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Pass, e.cfg.Host)
	}

	msg := buildMessage(e.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, auth, e.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
