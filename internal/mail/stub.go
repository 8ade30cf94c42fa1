package mail

import (
	"context"

	"consult-scheduler/pkg/logging"
)

// StubSender logs instead of sending. Used when MAIL_PROVIDER=stub.
type StubSender struct {
	logger *logging.Logger
}

func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

func (s *StubSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	s.logger.Debug("stub email body", "to", msg.To, "body", msg.Body)
	return nil
}

var _ Sender = (*StubSender)(nil)
