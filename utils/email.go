package utils

import (
	"log"

	gomail "gopkg.in/gomail.v2"
)

// Mailer delivers out-of-band notifications over SMTP. Delivery is
// fire-and-forget: a slow or failing mail server must never block or roll
// back the request that triggered the send.
type Mailer struct {
	dialer *gomail.Dialer
	sender string
}

func NewMailer(cfg *Config) *Mailer {
	dialer := gomail.NewDialer(cfg.MailServer, cfg.MailPort, cfg.MailUsername, cfg.MailPassword)
	dialer.SSL = cfg.MailPort == 465
	return &Mailer{dialer: dialer, sender: cfg.MailSender}
}

// SendAsync dispatches the message on its own goroutine and logs failures.
func (m *Mailer) SendAsync(recipient, subject, body string) {
	go func() {
		if err := m.send(recipient, subject, body); err != nil {
			log.Printf("error sending email to %s: %v", recipient, err)
		}
	}()
}

func (m *Mailer) send(recipient, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
