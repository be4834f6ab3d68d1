package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer sends plain-text receipt mail over SMTP. A zero-value Host
// disables sending, which keeps local setups working without a relay.
type Mailer struct {
	host string
	port int
	from string
	pass string
	log  *zerolog.Logger
}

func New(host string, port int, from, pass string, log *zerolog.Logger) *Mailer {
	return &Mailer{host: host, port: port, from: from, pass: pass, log: log}
}

func (m *Mailer) Enabled() bool {
	return m.host != ""
}

// SendReceipt mails the student a summary of what was just registered.
func (m *Mailer) SendReceipt(to, studentName string, eventTitles []string, total float64, payment string) error {
	if !m.Enabled() {
		m.log.Debug().Str("to", to).Msg("smtp disabled, skipping receipt")
		return nil
	}

	subject := "Your event registration receipt"
	body := fmt.Sprintf(
		"Hello %s,\n\nYou have been registered for:\n  - %s\n\nTotal paid: %.2f (%s)\n\nSee you there!",
		studentName,
		strings.Join(eventTitles, "\n  - "),
		total,
		payment,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, to, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.from, m.pass, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("to", to).Msg("failed to send receipt email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", to).Msg("receipt email sent")
	return nil
}
