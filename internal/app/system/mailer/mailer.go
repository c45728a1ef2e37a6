// internal/app/system/mailer/mailer.go
//
// Package mailer sends the transactional email the service produces:
// registration review notices, password reset links, and activity close
// notifications. When no SMTP host is configured the mailer runs disabled
// and logs what it would have sent, which keeps local development and
// tests free of SMTP setup.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config carries SMTP settings from application config.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	AdminEmail string
	// BaseURL is the public URL of the frontend, used to build links in
	// email bodies.
	BaseURL string
}

// Mailer sends templated messages over SMTP.
type Mailer struct {
	client *mail.Client
	cfg    Config
	log    *zap.Logger
}

// New builds a Mailer. An empty Host yields a disabled mailer, not an
// error.
func New(cfg Config, log *zap.Logger) (*Mailer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Host == "" {
		log.Info("smtp host not configured; outgoing mail disabled")
		return &Mailer{cfg: cfg, log: log}, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, cfg: cfg, log: log}, nil
}

// Enabled reports whether the mailer will actually send.
func (m *Mailer) Enabled() bool { return m.client != nil }

// send delivers one message, or logs it when the mailer is disabled.
func (m *Mailer) send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if m.client == nil {
		m.log.Debug("mail suppressed (mailer disabled)",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody)
	if htmlBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	m.log.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
