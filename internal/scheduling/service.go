// Package scheduling allocates consultant slots and drives the appointment
// status state machine.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"consult-scheduler/internal/model"
	"consult-scheduler/internal/notify"
	"consult-scheduler/internal/observability/metrics"
	"consult-scheduler/internal/store"
	"consult-scheduler/internal/timerules"
	"consult-scheduler/pkg/logging"
)

// Store is the part of the scheduling store the request path uses.
type Store interface {
	InsertAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	FindAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error)
	CountAppointments(ctx context.Context, f model.Filter) (int, error)
	UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (*model.Appointment, error)
}

// IdentityProvider resolves a verified principal by id, reporting
// store.ErrNotFound when there is none.
type IdentityProvider interface {
	ResolvePrincipal(ctx context.Context, id string) (*model.Principal, error)
}

// Service is the request-path entry point: booking, cancellation, admin
// status changes and listing.
type Service struct {
	store    Store
	ids      IdentityProvider
	rules    timerules.Rules
	notifier notify.Notifier
	metrics  *metrics.SchedulerMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(st Store, ids IdentityProvider, rules timerules.Rules, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:  st,
		ids:    ids,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) WithNotifier(n notify.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithMetrics(m *metrics.SchedulerMetrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) Rules() timerules.Rules { return s.rules }

// Book reserves the consultant slot at date+label for subjectID. The slot
// uniqueness is enforced by the store's conditional insert; the daily
// quota is a read-then-decide check that may admit one extra booking under
// a race.
func (s *Service) Book(ctx context.Context, subjectID, consultantID, date, label string) (*model.Appointment, error) {
	a, err := s.book(ctx, strings.TrimSpace(subjectID), strings.TrimSpace(consultantID), date, label)
	outcome := "ok"
	if err != nil {
		outcome = CodeOf(err)
	}
	s.metrics.ObserveBooking(outcome)
	return a, err
}

func (s *Service) book(ctx context.Context, subjectID, consultantID, date, label string) (*model.Appointment, error) {
	if subjectID == "" || consultantID == "" {
		return nil, malformed("subject and consultant are required")
	}
	if subjectID == consultantID {
		return nil, malformed("cannot book an appointment with yourself")
	}

	subject, err := s.ids.ResolvePrincipal(ctx, subjectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("book: resolve subject: %w", err)
	}
	if subject.IsAdmin() {
		return nil, ErrAdminCannotBook
	}

	consultant, err := s.ids.ResolvePrincipal(ctx, consultantID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !consultant.IsConsultant()) {
		return nil, ErrConsultantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("book: resolve consultant: %w", err)
	}

	start, err := s.rules.Combine(date, label)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if !s.rules.IsBookable(start) {
		return nil, ErrOutsideWorkingHours
	}
	now := s.now()
	if !start.After(now) {
		return nil, ErrSlotInPast
	}

	dayStart, dayEnd := s.rules.DayRange(start)
	held, err := s.store.CountAppointments(ctx, model.Filter{
		SubjectID: subject.ID,
		Statuses:  []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusCompleted},
		DayFrom:   dayStart,
		DayBefore: dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("book: count daily appointments: %w", err)
	}
	if held >= s.rules.MaxPerSubjectPerDay {
		return nil, ErrDailyQuotaExceeded
	}

	a := &model.Appointment{
		ID:           uuid.New().String(),
		SubjectID:    subject.ID,
		SubjectName:  subject.DisplayName,
		SubjectEmail: subject.Email,
		ConsultantID: consultant.ID,
		CalendarDate: dayStart,
		SlotLabel:    s.rules.Label(start),
		SlotStart:    start,
		SlotEnd:      s.rules.SlotEnd(start),
		Status:       model.StatusPending,
		ReminderSent: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertAppointment(ctx, a); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, fmt.Errorf("book: insert: %w", err)
	}

	s.logger.Info("appointment booked",
		"appointment_id", a.ID, "subject_id", a.SubjectID, "consultant_id", a.ConsultantID,
		"slot_start", a.SlotStart)
	return a, nil
}

// Cancel cancels subjectID's own appointment. Appointments owned by
// someone else are reported as not found.
func (s *Service) Cancel(ctx context.Context, subjectID, appointmentID string) (*model.Appointment, error) {
	a, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.SubjectID != subjectID {
		return nil, ErrNotFound
	}
	return s.apply(ctx, a, model.StatusCancelled, ActorSubject)
}

// UpdateStatus is the admin path for status changes.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID string, status model.Status) (*model.Appointment, error) {
	a, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, a, status, ActorAdmin)
}

// SetStatus checks that caller is an admin and applies a status given as
// text.
func (s *Service) SetStatus(ctx context.Context, caller *model.Principal, appointmentID, status string) (*model.Appointment, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	st, ok := model.ParseStatus(status)
	if !ok {
		return nil, malformed("unknown status %q", status)
	}
	return s.UpdateStatus(ctx, appointmentID, st)
}

func (s *Service) load(ctx context.Context, id string) (*model.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, malformed("appointment id is required")
	}
	a, err := s.store.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return a, nil
}

func (s *Service) apply(ctx context.Context, a *model.Appointment, to model.Status, actor Actor) (*model.Appointment, error) {
	now := s.now()
	if err := CheckTransition(a, to, actor, now); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateStatus(ctx, a.ID, a.Status, to, now)
	switch {
	case errors.Is(err, store.ErrStale):
		return nil, ErrConcurrentUpdate
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.metrics.ObserveTransition(string(a.Status), string(to), actor.String())
	s.logger.Info("appointment status changed",
		"appointment_id", a.ID, "from", a.Status, "to", to, "actor", actor.String())
	notify.Broadcast(ctx, s.notifier, s.logger,
		notify.AppointmentEvent(notify.EventStatusChanged, updated, now),
		updated.SubjectID, updated.ConsultantID)
	return updated, nil
}

// ListQuery holds the optional list filters as received from callers.
type ListQuery struct {
	Date         string
	ConsultantID string
	Status       string
}

// List returns appointments visible to caller. Admins see everything,
// oldest first; anyone else sees only their own bookings, newest first.
func (s *Service) List(ctx context.Context, caller *model.Principal, q ListQuery) ([]model.Appointment, error) {
	if caller == nil || caller.ID == "" {
		return nil, malformed("caller is required")
	}
	f := model.Filter{ConsultantID: strings.TrimSpace(q.ConsultantID)}
	if f.ConsultantID != "" {
		if _, err := uuid.Parse(f.ConsultantID); err != nil {
			return nil, malformed("invalid consultant id %q", f.ConsultantID)
		}
	}
	if q.Date != "" {
		d, err := s.rules.ParseDate(q.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		f.DayFrom, f.DayBefore = s.rules.DayRange(d)
	}
	if q.Status != "" {
		st, ok := model.ParseStatus(q.Status)
		if !ok {
			return nil, malformed("unknown status %q", q.Status)
		}
		f.Statuses = []model.Status{st}
	}
	if !caller.IsAdmin() {
		f.SubjectID = caller.ID
		f.Newest = true
	}

	out, err := s.store.FindAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}
