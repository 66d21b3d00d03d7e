package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/hutangku/internal/config"
	"github.com/Dan9191/hutangku/internal/reminder"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending reminder emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// buildDigestEmail formats the digest as a plain-text email
func (s *Sender) buildDigestEmail(digest reminder.Digest) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.ReminderEmail}
	e.Subject = fmt.Sprintf("[HutangKu] %s", digest.Subject())

	var body strings.Builder
	body.WriteString(fmt.Sprintf("Debt reminders for %s\n\n", digest.Date.Format("02 Jan 2006")))
	if len(digest.Overdue) > 0 {
		body.WriteString("Overdue payments:\n")
	}
	lines := digest.Lines()
	for i, line := range lines {
		if i == len(digest.Overdue) && len(digest.DueSoon) > 0 {
			if i > 0 {
				body.WriteString("\n")
			}
			body.WriteString("Upcoming payments:\n")
		}
		body.WriteString("  - " + line + "\n")
	}
	body.WriteString("\nHutangKu")
	e.Text = []byte(body.String())
	return e
}

// Notify sends the digest to the configured reminder address
func (s *Sender) Notify(ctx context.Context, digest reminder.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.buildDigestEmail(digest)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", s.cfg.ReminderEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.ReminderEmail, e.Subject)
	return nil
}
