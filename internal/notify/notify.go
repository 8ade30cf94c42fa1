// Package notify pushes best-effort real-time events to connected
// principals. Delivery is not durable; callers log and move on.
package notify

import (
	"context"
	"time"

	"consult-scheduler/internal/model"
	"consult-scheduler/pkg/logging"
)

const (
	EventStatusChanged = "appointment.status"
	EventReminder      = "appointment.reminder"
)

type Event struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	Status        string    `json:"status"`
	SlotStart     time.Time `json:"slot_start"`
	At            time.Time `json:"at"`
}

// Notifier routes an event to one principal.
type Notifier interface {
	Publish(ctx context.Context, principalID string, evt Event) error
}

func AppointmentEvent(kind string, a *model.Appointment, at time.Time) Event {
	return Event{
		Type:          kind,
		AppointmentID: a.ID,
		Status:        string(a.Status),
		SlotStart:     a.SlotStart,
		At:            at,
	}
}

const publishTimeout = 2 * time.Second

// Broadcast publishes evt to each principal, logging failures. It never
// returns an error and never waits longer than publishTimeout per call.
// A nil Notifier is a no-op.
func Broadcast(ctx context.Context, n Notifier, logger *logging.Logger, evt Event, principalIDs ...string) {
	if n == nil {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	for _, id := range principalIDs {
		if id == "" {
			continue
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		if err := n.Publish(pctx, id, evt); err != nil {
			logger.Warn("notify: publish failed",
				"principal_id", id, "type", evt.Type, "appointment_id", evt.AppointmentID, "error", err)
		}
		cancel()
	}
}
