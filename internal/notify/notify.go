// Package notify emails quiz results through an SMTP relay.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/pyquiz/internal/model"

	"github.com/wneessen/go-mail"
)

const (
	DefaultHost = "smtp.gmail.com"
	DefaultPort = 587
)

// Config holds relay settings and sender credentials.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// sendFunc delivers a composed message. Tests replace it to avoid dialing.
type sendFunc func(ctx context.Context, cfg Config, msg *mail.Msg) error

// Notifier sends result emails.
type Notifier struct {
	cfg  Config
	send sendFunc
}

// New creates a Notifier, filling in the default relay when unset.
func New(cfg Config) *Notifier {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	return &Notifier{cfg: cfg, send: dialAndSend}
}

// Enabled reports whether sender credentials and a recipient are all set.
func (n *Notifier) Enabled(to string) bool {
	return n.cfg.Username != "" && n.cfg.Password != "" && to != ""
}

// Send emails body as a plain-text message to a single recipient. The
// message is sent once; every failure wraps model.ErrNotificationFailed.
func (n *Notifier) Send(ctx context.Context, to, subject, body string) error {
	msg, err := n.compose(to, subject, body)
	if err != nil {
		return fmt.Errorf("%w: compose message: %v", model.ErrNotificationFailed, err)
	}
	if err := n.send(ctx, n.cfg, msg); err != nil {
		return fmt.Errorf("%w: %v", model.ErrNotificationFailed, err)
	}
	slog.Info("results email sent", "to", to, "relay", n.cfg.Host)
	return nil
}

func (n *Notifier) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.Username); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func dialAndSend(ctx context.Context, cfg Config, msg *mail.Msg) error {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send via %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return nil
}
