package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"consult-scheduler/pkg/logging"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	dialer    Dialer
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Pass      string
	FromEmail string
	FromName  string
}

// NewSMTPSender returns nil when no host is configured.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.User
	}
	return newSMTPSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass), cfg, logger)
}

func newSMTPSender(d Dialer, cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SMTPSender{dialer: d, fromEmail: cfg.FromEmail, fromName: cfg.FromName, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.dialer == nil {
		return fmt.Errorf("mail: smtp dialer not configured")
	}
	// gomail has no context support; honour cancellation before dialing
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, s.fromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("smtp send failed", "error", err, "to", msg.To)
		return fmt.Errorf("mail: smtp send failed: %w", err)
	}
	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ Sender = (*SMTPSender)(nil)
