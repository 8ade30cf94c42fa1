// Package bootstrap builds the process dependencies from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "consult-scheduler/internal/config"
	"consult-scheduler/internal/model"
	"consult-scheduler/internal/store"
	"consult-scheduler/pkg/logging"
)

// Backend is everything the service, handler and workers need from
// storage. Both *store.Store and *store.Memory satisfy it.
type Backend interface {
	InsertAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	FindAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error)
	CountAppointments(ctx context.Context, f model.Filter) (int, error)
	UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (*model.Appointment, error)
	UpdateStatusWhere(ctx context.Context, f model.Filter, to model.Status, at time.Time) ([]model.Appointment, error)
	DeleteWhere(ctx context.Context, f model.Filter) (int64, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error)

	CreatePrincipal(ctx context.Context, c *model.Credentials) error
	CredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error)
	ResolvePrincipal(ctx context.Context, id string) (*model.Principal, error)
	MarkVerified(ctx context.Context, id string) error
	RecordOTPFailure(ctx context.Context, id string) (int, error)
	DeleteUnverified(ctx context.Context, id string) error
	ListConsultants(ctx context.Context) ([]model.Principal, error)

	Ping(ctx context.Context) error
}

var (
	_ Backend = (*store.Store)(nil)
	_ Backend = (*store.Memory)(nil)
)

// BuildStore opens the configured backend. The returned close func is
// never nil.
func BuildStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (Backend, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.StoreDriver == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	if cfg.RunMigrations {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("bootstrap: migrate: %w", err)
		}
		logger.Info("database migrations applied")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	st := store.New(pool)
	if err := st.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("connected to postgres")
	return st, pool.Close, nil
}
