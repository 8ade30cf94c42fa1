// Package mail renders the scheduler's transactional emails and hands them
// to a delivery provider.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"consult-scheduler/pkg/logging"
)

// Kind selects the template.
type Kind string

const (
	KindOTP       Kind = "OTP"
	KindReminder  Kind = "REMINDER"
	KindCompleted Kind = "COMPLETED"
)

var ErrUnknownKind = errors.New("mail: unknown template kind")

type Recipient struct {
	Email string
	Name  string
}

// Data is the template input. Only the fields a kind uses need to be set.
type Data struct {
	Code          string
	ValidFor      time.Duration
	AppointmentID string
	SlotStart     time.Time
	SlotEnd       time.Time
}

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string
}

// Sender delivers one rendered message. Implementations can be swapped
// (SendGrid, SES, SMTP) without changing callers.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer is what the rest of the system depends on.
type Mailer interface {
	Send(ctx context.Context, to Recipient, kind Kind, data Data) error
}

// TemplateMailer renders Kind templates and delivers them through a Sender.
type TemplateMailer struct {
	sender Sender
	logger *logging.Logger
	loc    *time.Location
}

func NewTemplateMailer(sender Sender, logger *logging.Logger) *TemplateMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &TemplateMailer{sender: sender, logger: logger, loc: time.UTC}
}

// WithLocation sets the zone appointment times are shown in.
func (m *TemplateMailer) WithLocation(loc *time.Location) *TemplateMailer {
	if loc != nil {
		m.loc = loc
	}
	return m
}

func (m *TemplateMailer) Send(ctx context.Context, to Recipient, kind Kind, data Data) error {
	if m.sender == nil {
		return errors.New("mail: sender not configured")
	}
	if strings.TrimSpace(to.Email) == "" {
		return errors.New("mail: recipient email is required")
	}
	msg, err := m.Render(to, kind, data)
	if err != nil {
		return err
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("mail: send %s: %w", kind, err)
	}
	m.logger.Debug("mail: delivered", "kind", string(kind), "to", to.Email)
	return nil
}

// Render produces the message for kind without sending it.
func (m *TemplateMailer) Render(to Recipient, kind Kind, data Data) (Message, error) {
	t, ok := templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	view := newView(to, data, m.loc)

	var subject, text, html strings.Builder
	if err := t.subject.Execute(&subject, view); err != nil {
		return Message{}, fmt.Errorf("mail: render %s subject: %w", kind, err)
	}
	if err := t.text.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("mail: render %s text: %w", kind, err)
	}
	if err := t.html.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("mail: render %s html: %w", kind, err)
	}
	return Message{
		To:      to.Email,
		ToName:  to.Name,
		Subject: strings.TrimSpace(subject.String()),
		Body:    text.String(),
		HTML:    html.String(),
	}, nil
}
