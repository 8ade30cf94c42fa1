package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrSlotTaken = errors.New("store: slot already taken")
	ErrDuplicate = errors.New("store: duplicate record")
	// ErrStale means a conditional single-row update matched nothing
	// because the row changed since it was read.
	ErrStale = errors.New("store: record changed concurrently")
	// ErrUnbounded guards bulk writes against an empty filter.
	ErrUnbounded = errors.New("store: refusing bulk write without a filter")
)

const (
	uniqueViolation = "23505"
	slotConstraint  = "appointments_active_slot_key"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres-backed scheduling store.
type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

// Ping checks connectivity when the underlying DB supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.db.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func isUnique(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// validID rejects ids the uuid columns could not hold, so lookups report
// not-found instead of a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
