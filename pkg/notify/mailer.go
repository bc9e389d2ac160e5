// Package notify delivers email and SMS messages to applicants and the admin.
package notify

import (
	"context"

	"applicant-api-io/api/pkg/util"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	SendMail(ctx context.Context, to, subject, html string) error
}

type smtpMailer struct {
	cfg    util.SMTPConfig
	dialer *gomail.Dialer
}

// NewMailer returns an SMTP mailer, or one that only logs when no SMTP host
// is configured.
func NewMailer(cfg util.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return logMailer{}
	}
	return &smtpMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (m *smtpMailer) SendMail(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return err
	}
	util.LogInfo("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type logMailer struct{}

func (logMailer) SendMail(_ context.Context, to, subject, _ string) error {
	util.LogWarning("SMTP not configured, email not sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
