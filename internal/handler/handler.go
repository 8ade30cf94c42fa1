// Package handler implements rpc.ScheduleServer on top of the scheduling
// service and the principal store.
package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"consult-scheduler/internal/auth"
	"consult-scheduler/internal/mail"
	"consult-scheduler/internal/middleware"
	"consult-scheduler/internal/model"
	"consult-scheduler/internal/rpc"
	"consult-scheduler/internal/scheduling"
	"consult-scheduler/internal/store"
	"consult-scheduler/pkg/logging"
)

// Identity is the principal store used for registration and login.
type Identity interface {
	CreatePrincipal(ctx context.Context, c *model.Credentials) error
	CredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error)
	ResolvePrincipal(ctx context.Context, id string) (*model.Principal, error)
	MarkVerified(ctx context.Context, id string) error
	RecordOTPFailure(ctx context.Context, id string) (int, error)
	DeleteUnverified(ctx context.Context, id string) error
	ListConsultants(ctx context.Context) ([]model.Principal, error)
}

type Handler struct {
	svc    *scheduling.Service
	ids    Identity
	tokens *auth.Issuer
	mailer mail.Mailer
	otpTTL time.Duration
	logger *logging.Logger
	now    func() time.Time
}

var _ rpc.ScheduleServer = (*Handler)(nil)

func New(svc *scheduling.Service, ids Identity, tokens *auth.Issuer, mailer mail.Mailer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		svc:    svc,
		ids:    ids,
		tokens: tokens,
		mailer: mailer,
		otpTTL: 10 * time.Minute,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) WithOTPTTL(d time.Duration) *Handler {
	if d > 0 {
		h.otpTTL = d
	}
	return h
}

// WithClock overrides the clock used for OTP expiry.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	if now != nil {
		h.now = now
	}
	return h
}

// caller resolves the authenticated principal. A token for a principal
// that no longer resolves is treated as unauthenticated.
func (h *Handler) caller(ctx context.Context) (*model.Principal, error) {
	id, ok := middleware.UserID(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}
	p, err := h.ids.ResolvePrincipal(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "unknown principal")
	}
	if err != nil {
		return nil, h.internal(ctx, "resolve caller", err)
	}
	return p, nil
}

// toStatus maps a scheduling error onto a gRPC status. Infrastructure
// failures are logged and reported without detail.
func (h *Handler) toStatus(ctx context.Context, op string, err error) error {
	msg := err.Error()
	switch scheduling.KindOf(err) {
	case scheduling.KindValidation:
		return status.Error(codes.InvalidArgument, msg)
	case scheduling.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case scheduling.KindConflict:
		switch {
		case errors.Is(err, scheduling.ErrSlotAlreadyBooked):
			return status.Error(codes.AlreadyExists, msg)
		case errors.Is(err, scheduling.ErrConcurrentUpdate):
			return status.Error(codes.Aborted, msg)
		}
		return status.Error(codes.FailedPrecondition, msg)
	case scheduling.KindPolicy:
		return status.Error(codes.FailedPrecondition, msg)
	case scheduling.KindPermission:
		return status.Error(codes.PermissionDenied, msg)
	}
	return h.internal(ctx, op, err)
}

func (h *Handler) internal(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	h.logger.Error("handler: "+op+" failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
