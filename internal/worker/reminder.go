// Package worker runs the scheduler's periodic background jobs: reminder
// delivery and the appointment lifecycle sweep.
package worker

import (
	"context"
	"fmt"
	"time"

	"consult-scheduler/internal/mail"
	"consult-scheduler/internal/model"
	"consult-scheduler/internal/notify"
	"consult-scheduler/internal/observability/metrics"
	"consult-scheduler/pkg/logging"
)

const jobReminder = "reminder"

type reminderStore interface {
	FindAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error)
}

// Reminder emails subjects whose confirmed appointment starts within the
// lead window. reminder_sent is the only guard against duplicates: a
// failed send leaves it false so a later tick retries.
type Reminder struct {
	store     reminderStore
	mailer    mail.Mailer
	notifier  notify.Notifier
	metrics   *metrics.SchedulerMetrics
	logger    *logging.Logger
	lead      time.Duration
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewReminder(store reminderStore, mailer mail.Mailer, lead time.Duration, logger *logging.Logger) *Reminder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reminder{
		store:     store,
		mailer:    mailer,
		logger:    logger,
		lead:      lead,
		interval:  time.Minute,
		batchSize: 100,
		now:       time.Now,
	}
}

func (r *Reminder) WithInterval(d time.Duration) *Reminder {
	if d > 0 {
		r.interval = d
	}
	return r
}

func (r *Reminder) WithBatchSize(n int) *Reminder {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

func (r *Reminder) WithNotifier(n notify.Notifier) *Reminder {
	r.notifier = n
	return r
}

func (r *Reminder) WithMetrics(m *metrics.SchedulerMetrics) *Reminder {
	r.metrics = m
	return r
}

func (r *Reminder) WithClock(now func() time.Time) *Reminder {
	if now != nil {
		r.now = now
	}
	return r
}

// Run ticks until ctx is cancelled, starting with an immediate tick.
func (r *Reminder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reminder) tick(ctx context.Context) {
	started := time.Now()
	res, err := r.Tick(ctx)
	r.metrics.ObserveTick(jobReminder, time.Since(started), err)
	if err != nil {
		r.logger.Error("reminder: tick failed", "error", err)
		return
	}
	if res.Due > 0 {
		r.logger.Info("reminder: tick done", "due", res.Due, "sent", res.Sent, "failed", res.Failed)
	}
}

type ReminderResult struct {
	Due    int
	Sent   int
	Failed int
}

// Tick drains every due appointment in pages of batchSize. Reminded rows
// leave the due set, so each page skips only the failures before it.
// Only a fetch can fail the tick; per appointment failures are logged and
// counted.
func (r *Reminder) Tick(ctx context.Context) (ReminderResult, error) {
	var res ReminderResult
	if r.store == nil || r.mailer == nil {
		return res, nil
	}
	now := r.now()
	for ctx.Err() == nil {
		due, err := r.store.FindAppointments(ctx, model.Filter{
			Statuses:         []model.Status{model.StatusConfirmed},
			ReminderSent:     model.Bool(false),
			StartsAtOrAfter:  now,
			StartsAtOrBefore: now.Add(r.lead),
			Limit:            r.batchSize,
			Offset:           res.Failed,
		})
		if err != nil {
			return res, fmt.Errorf("reminder: find due appointments: %w", err)
		}
		res.Due += len(due)

		for i := range due {
			if ctx.Err() != nil {
				break
			}
			if r.remind(ctx, &due[i], now) {
				res.Sent++
			} else {
				res.Failed++
			}
		}
		if len(due) < r.batchSize {
			break
		}
	}
	return res, nil
}

func (r *Reminder) remind(ctx context.Context, a *model.Appointment, now time.Time) bool {
	err := r.mailer.Send(ctx,
		mail.Recipient{Email: a.SubjectEmail, Name: a.SubjectName},
		mail.KindReminder,
		mail.Data{AppointmentID: a.ID, SlotStart: a.SlotStart, SlotEnd: a.SlotEnd},
	)
	if err != nil {
		r.metrics.ObserveReminder("send_failed")
		r.logger.Warn("reminder: send failed", "appointment_id", a.ID, "error", err)
		return false
	}

	marked, err := r.store.MarkReminderSent(ctx, a.ID, now)
	switch {
	case err != nil:
		r.metrics.ObserveReminder("mark_failed")
		r.logger.Error("reminder: mark sent failed", "appointment_id", a.ID, "error", err)
		return false
	case !marked:
		// cancelled or flagged by another instance after the fetch
		r.metrics.ObserveReminder("skipped")
		r.logger.Debug("reminder: already flagged", "appointment_id", a.ID)
		return true
	}

	r.metrics.ObserveReminder("sent")
	a.ReminderSent = true
	notify.Broadcast(ctx, r.notifier, r.logger, notify.AppointmentEvent(notify.EventReminder, a, now), a.SubjectID)
	return true
}
