// Package mailer sends outbound notification email over SMTP.
package mailer

import (
	"gopkg.in/gomail.v2"

	"shopmate/internal/config"
)

// Mailer sends HTML email through a configured SMTP relay.
type Mailer struct {
	cfg    *config.SMTPConfig
	dialer *gomail.Dialer
}

// New creates a mailer. The connection is dialed per message; SMTP relays
// are cheap to reconnect and notification volume is low.
func New(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != ""
}

// Send delivers one HTML message.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}
