// Package smtp delivers composed messages over authenticated SMTP submission.
//
// Every Send opens a fresh connection, negotiates STARTTLS, authenticates with
// the row's credentials and submits one message. Connections are not pooled:
// senders differ from row to row and a batch sends at most one message per
// inter-send delay.
package smtp

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

// Defaults for the submission endpoint.
const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 587
	DefaultTimeout = 10 * time.Second
)

// Config describes the single submission server every row is sent through.
type Config struct {
	// Host is the SMTP server hostname.
	Host string `yaml:"host" env:"HOST"`

	// Port is the submission port. Default: 587.
	Port int `yaml:"port" env:"PORT"`

	// TLS requires STARTTLS before authenticating. Disable only for local relays.
	TLS bool `yaml:"tls" env:"TLS"`

	// Timeout bounds dialing and every protocol exchange of one attempt.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// DefaultConfig returns the STARTTLS submission defaults.
func DefaultConfig() Config {
	return Config{
		Host:    DefaultHost,
		Port:    DefaultPort,
		TLS:     true,
		Timeout: DefaultTimeout,
	}
}

// Transport implements mailer.Transport using go-mail.
type Transport struct {
	cfg Config
}

// New validates cfg and creates a transport.
func New(cfg Config) (*Transport, error) {
	if cfg.Host == "" {
		return nil, ErrInvalidHost
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Transport{cfg: cfg}, nil
}

// Send implements mailer.Transport.
func (t *Transport) Send(ctx context.Context, auth mailer.Credentials, email *mailer.Email) error {
	msg, err := compose(email)
	if err != nil {
		return &SendError{Op: "compose", Recipient: email.To, Err: err}
	}

	policy := mail.TLSMandatory
	if !t.cfg.TLS {
		policy = mail.NoTLS
	}

	client, err := mail.NewClient(t.cfg.Host,
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
		mail.WithTLSPolicy(policy),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(auth.Username),
		mail.WithPassword(auth.Password),
	)
	if err != nil {
		return &SendError{Op: "configure", Recipient: email.To, Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &SendError{Op: "deliver", Recipient: email.To, Err: err}
	}
	return nil
}

func compose(email *mailer.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(email.FromName, email.FromAddress); err != nil {
		return nil, err
	}
	if err := msg.To(email.To); err != nil {
		return nil, err
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	return msg, nil
}

var _ mailer.Transport = (*Transport)(nil)
