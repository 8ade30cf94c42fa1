package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	msgs []Message
	err  error
}

func (c *captureSender) Send(ctx context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestRenderOTP(t *testing.T) {
	m := NewTemplateMailer(&captureSender{}, nil)
	msg, err := m.Render(Recipient{Email: "a@example.com", Name: "Asha"}, KindOTP, Data{Code: "482913", ValidFor: 10 * time.Minute})
	require.NoError(t, err)

	assert.Equal(t, "a@example.com", msg.To)
	assert.Equal(t, "Your verification code", msg.Subject)
	assert.Contains(t, msg.Body, "Hi Asha,")
	assert.Contains(t, msg.Body, "Your verification code is 482913. It expires in 10 minutes.")
	assert.Contains(t, msg.HTML, "<strong>482913</strong>")
}

func TestRenderReminderUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	m := NewTemplateMailer(&captureSender{}, nil).WithLocation(loc)

	start := time.Date(2026, 10, 21, 4, 30, 0, 0, time.UTC) // 10:00 IST
	msg, err := m.Render(Recipient{Email: "a@example.com"}, KindReminder, Data{
		AppointmentID: "appt-1",
		SlotStart:     start,
		SlotEnd:       start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	assert.Equal(t, "Reminder: consultation at 10:00 IST", msg.Subject)
	assert.Contains(t, msg.Body, "Hi there,")
	assert.Contains(t, msg.Body, "Wednesday, 21 October 2026")
	assert.Contains(t, msg.Body, "Appointment: appt-1")
}

func TestRenderCompletedEscapesHTML(t *testing.T) {
	m := NewTemplateMailer(&captureSender{}, nil)
	start := time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC)
	msg, err := m.Render(Recipient{Email: "a@example.com", Name: "<b>Eve</b>"}, KindCompleted, Data{
		SlotStart: start, SlotEnd: start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "Wednesday, 21 October 2026")
	assert.Contains(t, msg.Body, "(10:00 UTC to 10:30)")
	assert.Contains(t, msg.Body, "<b>Eve</b>")
	assert.NotContains(t, msg.HTML, "<b>Eve</b>")
}

func TestSend(t *testing.T) {
	sender := &captureSender{}
	m := NewTemplateMailer(sender, nil)

	err := m.Send(context.Background(), Recipient{Email: "a@example.com"}, KindOTP, Data{Code: "1"})
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	err = m.Send(context.Background(), Recipient{Email: "a@example.com"}, Kind("WELCOME"), Data{})
	assert.ErrorIs(t, err, ErrUnknownKind)

	err = m.Send(context.Background(), Recipient{}, KindOTP, Data{})
	assert.Error(t, err)
	assert.Len(t, sender.msgs, 1)
}

func TestSendWrapsSenderError(t *testing.T) {
	boom := errors.New("relay down")
	m := NewTemplateMailer(&captureSender{err: boom}, nil)

	err := m.Send(context.Background(), Recipient{Email: "a@example.com"}, KindReminder, Data{SlotStart: time.Now()})
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.HasPrefix(err.Error(), "mail: send REMINDER"))
}

func TestNewSendGridSender(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "x@example.com"}, nil))

	s := NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "x@example.com"}, nil)
	require.NotNil(t, s)
	assert.Equal(t, defaultFromName, s.fromName)

	var nilSender *SendGridSender
	assert.Error(t, nilSender.Send(context.Background(), Message{To: "a@example.com"}))
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESSender(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))

	client := &fakeSES{}
	s := NewSESSender(client, SESConfig{FromEmail: "noreply@example.com", FromName: "Desk"}, nil)
	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", Body: "text", HTML: "<p>html</p>"})
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "Desk <noreply@example.com>", aws.ToString(client.input.FromEmailAddress))
	assert.Equal(t, []string{"a@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "text", aws.ToString(client.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(client.input.Content.Simple.Body.Html.Data))

	client.err = errors.New("throttled")
	assert.Error(t, s.Send(context.Background(), Message{To: "a@example.com"}))
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPSender(t *testing.T) {
	assert.Nil(t, NewSMTPSender(SMTPConfig{}, nil))

	d := &fakeDialer{}
	s := newSMTPSender(d, SMTPConfig{FromEmail: "noreply@example.com"}, nil)
	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com", ToName: "Asha", Subject: "Hi", Body: "text"}))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"Hi"}, d.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{`"Asha" <a@example.com>`}, d.sent[0].GetHeader("To"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
	assert.Len(t, d.sent, 1)

	d.err = errors.New("auth failed")
	assert.Error(t, s.Send(context.Background(), Message{To: "a@example.com"}))
}
