package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type Config struct {
	Host     string
	Port     int
	Username string
	From     string
}

// Mailer dispatches alert mail over SMTP. The password comes through a
// callback so it can live in the OS keychain and be rotated without a
// restart.
type Mailer struct {
	cfg      Config
	password func() (string, error)
}

func NewMailer(cfg Config, password func() (string, error)) *Mailer {
	return &Mailer{cfg: cfg, password: password}
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	pw, err := m.password()
	if err != nil {
		return fmt.Errorf("smtp password: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("smtp from %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(pw),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
