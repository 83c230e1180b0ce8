// Package mail defines the notification transport and its SMTP implementation.
package mail

import (
	"context"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends one plain-text message to one recipient per call.
type Mailer interface {
	// Send delivers a message. Failures are returned, not retried here;
	// the dispatcher decides what a failure means for the batch.
	Send(ctx context.Context, to, subject, body string) error
}

// implicitTLSPort is the SMTPS port. The server opens with a TLS handshake,
// so a client must not wait for a plaintext greeting or attempt STARTTLS.
const implicitTLSPort = 465

// defaultTimeout bounds dial, greeting, and every protocol exchange so a
// silent or misconfigured server cannot wedge a dispatch cycle.
const defaultTimeout = 30 * time.Second

// SMTPConfig holds transport settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration // zero means defaultTimeout
}

// SMTPMailer implements Mailer over authenticated SMTP. Port 465 speaks
// implicit TLS; any other port requires STARTTLS.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTP constructs an SMTP mailer.
func NewSMTP(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Port == implicitTLSPort {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// Send composes and delivers a single plain-text message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return m.client.DialAndSendWithContext(ctx, msg)
}
