// Package mailer delivers contact form submissions to the site owner
// over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/calebmartin/portfolio/internal/form"
)

// Config holds SMTP settings. Enabled is false until credentials and a
// destination address are configured; Send then returns ErrDisabled
// instead of dialing.
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	UseTLS   bool

	TimeoutSeconds int
}

// Timeout returns the SMTP timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send mails one contact submission to the configured owner address.
// It blocks until the SMTP dialog finishes, the context is done, or the
// configured timeout elapses, whichever comes first.
func (m *Mailer) Send(ctx context.Context, sub form.Data) error {
	if !m.cfg.Enabled {
		return ErrDisabled{}
	}

	msg, err := m.buildMessage(sub)
	if err != nil {
		return err
	}

	d := m.newDialer()

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	// Respect the ctx deadline if it's sooner than our config timeout.
	wait := m.cfg.Timeout()
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until > 0 && until < wait {
			wait = until
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return ErrSend{Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func (m *Mailer) newDialer() *gomail.Dialer {
	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	d.SSL = m.cfg.UseTLS
	if m.cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: m.cfg.Host}
	}

	return d
}

func (m *Mailer) buildMessage(sub form.Data) (*gomail.Message, error) {
	from := strings.TrimSpace(m.cfg.From)
	if from == "" {
		from = strings.TrimSpace(m.cfg.Username)
	}
	if from == "" {
		return nil, ErrInvalidMessage{Reason: "from address is required"}
	}

	to := strings.TrimSpace(m.cfg.To)
	if to == "" {
		return nil, ErrInvalidMessage{Reason: "owner address is required"}
	}

	subject := strings.TrimSpace(sub.Subject)
	if subject == "" {
		subject = "(no subject)"
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Portfolio contact: "+subject)
	if email := strings.TrimSpace(sub.Email); email != "" {
		msg.SetHeader("Reply-To", email)
	}
	msg.SetBody("text/plain", bodyText(sub))

	return msg, nil
}

func bodyText(sub form.Data) string {
	return fmt.Sprintf(`New contact form submission:

Name: %s
Email: %s
Subject: %s

%s

---
Sent from the portfolio contact form
`, sub.Name, sub.Email, sub.Subject, sub.Message)
}
