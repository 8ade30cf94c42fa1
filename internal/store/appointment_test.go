package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consult-scheduler/internal/model"
)

var appointmentColumns = []string{
	"id", "subject_id", "subject_name", "subject_email", "consultant_id",
	"calendar_date", "slot_label", "slot_start", "slot_end", "status", "reminder_sent",
	"created_at", "updated_at",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func appointmentRow(a *model.Appointment) []any {
	return []any{
		a.ID, a.SubjectID, a.SubjectName, a.SubjectEmail, a.ConsultantID,
		a.CalendarDate, a.SlotLabel, a.SlotStart, a.SlotEnd, string(a.Status), a.ReminderSent,
		a.CreatedAt, a.UpdatedAt,
	}
}

func TestInsertAppointmentMapsSlotConflict(t *testing.T) {
	s, mock := newMockStore(t)
	a := appointmentAt(uuid.New().String(), time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), model.StatusPending)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(appointmentRow(a)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_active_slot_key"})

	err := s.InsertAppointment(context.Background(), a)
	assert.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAppointmentOtherUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	a := appointmentAt(uuid.New().String(), time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), model.StatusPending)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(appointmentRow(a)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_pkey"})

	err := s.InsertAppointment(context.Background(), a)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotTaken)
}

func TestGetAppointment(t *testing.T) {
	s, mock := newMockStore(t)
	a := appointmentAt(uuid.New().String(), time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), model.StatusConfirmed)

	mock.ExpectQuery("SELECT .* FROM appointments WHERE id = \\$1").
		WithArgs(a.ID).
		WillReturnRows(pgxmock.NewRows(appointmentColumns).AddRow(appointmentRow(a)...))

	got, err := s.GetAppointment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.True(t, got.SlotStart.Equal(a.SlotStart))

	_, err = s.GetAppointment(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusStale(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New().String()
	at := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("UPDATE appointments SET status = \\$1, updated_at = \\$2").
		WithArgs("CANCELLED", at, id, "PENDING").
		WillReturnRows(pgxmock.NewRows(appointmentColumns))

	_, err := s.UpdateStatus(context.Background(), id, model.StatusPending, model.StatusCancelled, at)
	assert.ErrorIs(t, err, ErrStale)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAppointmentsBuildsFilter(t *testing.T) {
	s, mock := newMockStore(t)
	subject := uuid.New().String()
	from := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	before := from.AddDate(0, 0, 1)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM appointments WHERE subject_id = \\$1 AND status = ANY\\(\\$2\\) AND calendar_date >= \\$3 AND calendar_date < \\$4").
		WithArgs(subject, []string{"PENDING", "CONFIRMED"}, from, before).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	n, err := s.CountAppointments(context.Background(), model.Filter{
		SubjectID: subject,
		Statuses:  []model.Status{model.StatusPending, model.StatusConfirmed},
		DayFrom:   from,
		DayBefore: before,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusWhereContinuesPlaceholders(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2026, 10, 21, 18, 0, 0, 0, time.UTC)
	a := appointmentAt(uuid.New().String(), time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), model.StatusCompleted)

	mock.ExpectQuery("UPDATE appointments SET status = \\$1, updated_at = \\$2 WHERE status = \\$3 AND slot_end < \\$4 RETURNING").
		WithArgs("COMPLETED", now, "CONFIRMED", now).
		WillReturnRows(pgxmock.NewRows(appointmentColumns).AddRow(appointmentRow(a)...))

	out, err := s.UpdateStatusWhere(context.Background(), model.Filter{
		Statuses:   []model.Status{model.StatusConfirmed},
		EndsBefore: now,
	}, model.StatusCompleted, now)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, a.ID, out[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWhere(t *testing.T) {
	s, mock := newMockStore(t)
	cutoff := time.Date(2026, 9, 21, 18, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM appointments WHERE status = \\$1 AND slot_end < \\$2").
		WithArgs("COMPLETED", cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteWhere(context.Background(), model.Filter{
		Statuses:   []model.Status{model.StatusCompleted},
		EndsBefore: cutoff,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, err = s.DeleteWhere(context.Background(), model.Filter{})
	assert.ErrorIs(t, err, ErrUnbounded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReminderSent(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New().String()
	at := time.Date(2026, 10, 21, 9, 50, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE appointments SET reminder_sent = true").
		WithArgs(id, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE appointments SET reminder_sent = true").
		WithArgs(id, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	first, err := s.MarkReminderSent(context.Background(), id, at)
	require.NoError(t, err)
	second, err := s.MarkReminderSent(context.Background(), id, at)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAppointmentsPagesInStableOrder(t *testing.T) {
	s, mock := newMockStore(t)
	consultant := uuid.New().String()
	a := appointmentAt(consultant, time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC), model.StatusConfirmed)

	mock.ExpectQuery(`FROM appointments WHERE consultant_id = \$1 ORDER BY slot_start ASC, id LIMIT \$2 OFFSET \$3`).
		WithArgs(consultant, 10, 20).
		WillReturnRows(pgxmock.NewRows(appointmentColumns).AddRow(appointmentRow(a)...))

	got, err := s.FindAppointments(context.Background(), model.Filter{ConsultantID: consultant, Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
