package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consult-scheduler/internal/mail"
	"consult-scheduler/internal/model"
	"consult-scheduler/internal/notify"
	"consult-scheduler/internal/observability/metrics"
	"consult-scheduler/internal/scheduling"
	"consult-scheduler/pkg/logging"
)

const (
	jobSweeper   = "sweeper"
	passComplete = "complete"
	passPurge    = "purge"
)

type sweeperStore interface {
	UpdateStatusWhere(ctx context.Context, f model.Filter, to model.Status, at time.Time) ([]model.Appointment, error)
	DeleteWhere(ctx context.Context, f model.Filter) (int64, error)
}

// Sweeper completes confirmed appointments whose slot has ended and purges
// completed ones older than the retention window. Elapsed PENDING
// appointments are left untouched.
type Sweeper struct {
	store     sweeperStore
	mailer    mail.Mailer
	notifier  notify.Notifier
	metrics   *metrics.SchedulerMetrics
	logger    *logging.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewSweeper(store sweeperStore, mailer mail.Mailer, retention time.Duration, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		store:     store,
		mailer:    mailer,
		logger:    logger,
		retention: retention,
		interval:  10 * time.Minute,
		now:       time.Now,
	}
}

func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Sweeper) WithNotifier(n notify.Notifier) *Sweeper {
	s.notifier = n
	return s
}

func (s *Sweeper) WithMetrics(m *metrics.SchedulerMetrics) *Sweeper {
	s.metrics = m
	return s
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	started := time.Now()
	res, err := s.Tick(ctx)
	s.metrics.ObserveTick(jobSweeper, time.Since(started), err)
	if err != nil {
		s.logger.Error("sweeper: tick failed", "error", err)
	}
	if res.Completed > 0 || res.Purged > 0 {
		s.logger.Info("sweeper: tick done", "completed", res.Completed, "purged", res.Purged)
	}
}

type SweepResult struct {
	Completed int
	Purged    int64
}

// Tick runs both passes. They are independent: a failing auto-complete does
// not prevent the purge, and the errors are joined.
func (s *Sweeper) Tick(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if s.store == nil {
		return res, nil
	}
	now := s.now()

	completed, errComplete := s.autoComplete(ctx, now)
	res.Completed = completed

	purged, errPurge := s.purge(ctx, now)
	res.Purged = purged

	return res, errors.Join(errComplete, errPurge)
}

func (s *Sweeper) autoComplete(ctx context.Context, now time.Time) (int, error) {
	done, err := s.store.UpdateStatusWhere(ctx, model.Filter{
		Statuses:   []model.Status{model.StatusConfirmed},
		EndsBefore: now,
	}, model.StatusCompleted, now)
	if err != nil {
		return 0, fmt.Errorf("sweeper: auto-complete: %w", err)
	}
	s.metrics.ObserveSweep(passComplete, int64(len(done)))

	for i := range done {
		a := &done[i]
		s.metrics.ObserveTransition(string(model.StatusConfirmed), string(model.StatusCompleted), scheduling.ActorSweeper.String())
		if s.mailer != nil {
			err := s.mailer.Send(ctx,
				mail.Recipient{Email: a.SubjectEmail, Name: a.SubjectName},
				mail.KindCompleted,
				mail.Data{AppointmentID: a.ID, SlotStart: a.SlotStart, SlotEnd: a.SlotEnd},
			)
			if err != nil {
				s.logger.Warn("sweeper: completion mail failed", "appointment_id", a.ID, "error", err)
			}
		}
		notify.Broadcast(ctx, s.notifier, s.logger, notify.AppointmentEvent(notify.EventStatusChanged, a, now), a.SubjectID)
	}
	return len(done), nil
}

func (s *Sweeper) purge(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.DeleteWhere(ctx, model.Filter{
		Statuses:   []model.Status{model.StatusCompleted},
		EndsBefore: now.Add(-s.retention),
	})
	if err != nil {
		return 0, fmt.Errorf("sweeper: purge: %w", err)
	}
	s.metrics.ObserveSweep(passPurge, n)
	return n, nil
}
