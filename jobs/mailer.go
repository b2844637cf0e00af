package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// Mailer sends transactional mail over SMTP. Mailpit in development, a relay
// in production.
type Mailer struct {
	addr   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

// MailerConfig holds SMTP connection settings.
type MailerConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	Logger   *slog.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(cfg MailerConfig) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Mailer{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:   cfg.From,
		auth:   auth,
		logger: cfg.Logger,
	}
}

// Send delivers a single plain-text message.
func (m *Mailer) Send(to, subject, body string) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("mailer: recipient required")
	}
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg))
}

// HandleTask fulfils the asynq.HandlerFunc contract for TaskTypeSendEmail.
func (m *Mailer) HandleTask(_ context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}
	if err := m.Send(payload.To, payload.Subject, payload.Body); err != nil {
		if m.logger != nil {
			m.logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		}
		return err
	}
	if m.logger != nil {
		m.logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	}
	return nil
}
