package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"consult-scheduler/internal/model"
)

const appointmentCols = `id, subject_id, subject_name, subject_email, consultant_id,
	calendar_date, slot_label, slot_start, slot_end, status, reminder_sent,
	created_at, updated_at`

// InsertAppointment writes a in one statement. The partial unique index on
// (consultant_id, slot_start) for non-cancelled rows makes this the
// conditional insert: a violation is reported as ErrSlotTaken.
func (s *Store) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO appointments (`+appointmentCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		a.ID, a.SubjectID, a.SubjectName, a.SubjectEmail, a.ConsultantID,
		a.CalendarDate, a.SlotLabel, a.SlotStart, a.SlotEnd, string(a.Status), a.ReminderSent,
		a.CreatedAt, a.UpdatedAt,
	)
	if isUnique(err, slotConstraint) {
		return ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *Store) FindAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error) {
	clause, args := where(f, nil)
	q := `SELECT ` + appointmentCols + ` FROM appointments` + clause
	if f.Newest {
		q += ` ORDER BY slot_start DESC, id`
	} else {
		q += ` ORDER BY slot_start ASC, id`
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	return collect(rows)
}

func (s *Store) CountAppointments(ctx context.Context, f model.Filter) (int, error) {
	clause, args := where(f, nil)
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return n, nil
}

// UpdateStatus moves one appointment from -> to, only if it is still in
// from. A lost race yields ErrStale.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (*model.Appointment, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx,
		`UPDATE appointments SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4
		 RETURNING `+appointmentCols,
		string(to), at, id, string(from),
	)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return a, nil
}

// UpdateStatusWhere sets status on every row matching f and returns the
// updated rows.
func (s *Store) UpdateStatusWhere(ctx context.Context, f model.Filter, to model.Status, at time.Time) ([]model.Appointment, error) {
	args := []any{string(to), at}
	clause, args := where(f, args)
	if clause == "" {
		return nil, ErrUnbounded
	}
	rows, err := s.db.Query(ctx,
		`UPDATE appointments SET status = $1, updated_at = $2`+clause+` RETURNING `+appointmentCols,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("bulk update status: %w", err)
	}
	return collect(rows)
}

// DeleteWhere permanently removes every row matching f.
func (s *Store) DeleteWhere(ctx context.Context, f model.Filter) (int64, error) {
	clause, args := where(f, nil)
	if clause == "" {
		return 0, ErrUnbounded
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM appointments`+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkReminderSent flips reminder_sent once, only while the appointment is
// confirmed. It reports whether this call made the change.
func (s *Store) MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE appointments SET reminder_sent = true, updated_at = $2
		 WHERE id = $1 AND status = 'CONFIRMED' AND reminder_sent = false`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	var status string
	err := row.Scan(
		&a.ID, &a.SubjectID, &a.SubjectName, &a.SubjectEmail, &a.ConsultantID,
		&a.CalendarDate, &a.SlotLabel, &a.SlotStart, &a.SlotEnd, &status, &a.ReminderSent,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	return a, nil
}

func collect(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
