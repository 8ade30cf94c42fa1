package handler

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"consult-scheduler/internal/auth"
	mailer "consult-scheduler/internal/mail"
	"consult-scheduler/internal/model"
	"consult-scheduler/internal/rpc"
	"consult-scheduler/internal/store"
)

func (h *Handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return nil, status.Error(codes.InvalidArgument, "email, password and name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid email")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return nil, status.Error(codes.InvalidArgument, "password too short")
	}
	role := model.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleConsultant {
		return nil, status.Error(codes.InvalidArgument, "role must be USER or CONSULTANT")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, h.internal(ctx, "hash password", err)
	}
	code, otpHash, err := auth.GenerateOTP()
	if err != nil {
		return nil, h.internal(ctx, "generate otp", err)
	}
	expires := h.now().Add(h.otpTTL)

	c := &model.Credentials{
		Principal: model.Principal{
			ID:          uuid.New().String(),
			Role:        role,
			DisplayName: name,
			Email:       email,
		},
		PasswordHash: hash,
		OTPHash:      otpHash,
		OTPExpiresAt: &expires,
	}
	if role == model.RoleConsultant {
		c.Consultant = &model.ConsultantProfile{Specialization: strings.TrimSpace(req.Specialization)}
	}

	if err := h.create(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// don't reveal whether the email exists
			return nil, status.Error(codes.AlreadyExists, "registration failed")
		}
		return nil, h.internal(ctx, "create principal", err)
	}

	err = h.mailer.Send(ctx,
		mailer.Recipient{Email: email, Name: name},
		mailer.KindOTP,
		mailer.Data{Code: code, ValidFor: h.otpTTL},
	)
	if err != nil {
		h.logger.Error("handler: otp mail failed", "principal_id", c.ID, "error", err)
		if derr := h.ids.DeleteUnverified(context.WithoutCancel(ctx), c.ID); derr != nil {
			h.logger.Error("handler: remove unverified principal failed", "principal_id", c.ID, "error", derr)
		}
		return nil, status.Error(codes.Unavailable, "could not send verification code, try again")
	}

	h.logger.Info("principal registered", "principal_id", c.ID, "role", string(role))
	return &rpc.RegisterResponse{PrincipalID: c.ID, Message: "verification code sent"}, nil
}

// create inserts c, replacing an earlier registration for the same email
// that was never verified.
func (h *Handler) create(ctx context.Context, c *model.Credentials) error {
	err := h.ids.CreatePrincipal(ctx, c)
	if !errors.Is(err, store.ErrDuplicate) {
		return err
	}
	existing, lookupErr := h.ids.CredentialsByEmail(ctx, c.Email)
	if lookupErr != nil || existing.Verified {
		return err
	}
	if err := h.ids.DeleteUnverified(ctx, existing.ID); err != nil {
		return err
	}
	return h.ids.CreatePrincipal(ctx, c)
}

func (h *Handler) VerifyOTP(ctx context.Context, req *rpc.VerifyOTPRequest) (*rpc.AuthResponse, error) {
	if req.Email == "" || req.Code == "" {
		return nil, status.Error(codes.InvalidArgument, "email and code required")
	}
	c, err := h.ids.CredentialsByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.InvalidArgument, "invalid or expired code")
	}
	if err != nil {
		return nil, h.internal(ctx, "load credentials", err)
	}
	if c.Verified {
		return nil, status.Error(codes.FailedPrecondition, "account already verified")
	}
	if c.OTPAttempts >= auth.MaxOTPAttempts {
		return nil, status.Error(codes.ResourceExhausted, "too many attempts, register again for a new code")
	}
	if c.OTPExpiresAt == nil || h.now().After(*c.OTPExpiresAt) {
		return nil, status.Error(codes.InvalidArgument, "invalid or expired code")
	}
	if !auth.CheckOTP(c.OTPHash, strings.TrimSpace(req.Code)) {
		if _, err := h.ids.RecordOTPFailure(ctx, c.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, h.internal(ctx, "record otp failure", err)
		}
		return nil, status.Error(codes.InvalidArgument, "invalid or expired code")
	}

	if err := h.ids.MarkVerified(ctx, c.ID); err != nil {
		return nil, h.internal(ctx, "mark verified", err)
	}
	return h.issue(ctx, &c.Principal)
}

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password required")
	}

	c, err := h.ids.CredentialsByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, h.internal(ctx, "load credentials", err)
	}
	if err != nil || !auth.CheckPassword(c.PasswordHash, req.Password) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if !c.Verified {
		return nil, status.Error(codes.FailedPrecondition, "account not verified")
	}
	return h.issue(ctx, &c.Principal)
}

func (h *Handler) issue(ctx context.Context, p *model.Principal) (*rpc.AuthResponse, error) {
	tok, exp, err := h.tokens.MakeToken(p.ID, string(p.Role))
	if err != nil {
		return nil, h.internal(ctx, "sign token", err)
	}
	return &rpc.AuthResponse{
		AccessToken: tok,
		PrincipalID: p.ID,
		Role:        string(p.Role),
		Name:        p.DisplayName,
		ExpiresAt:   exp,
	}, nil
}

func (h *Handler) ListConsultants(ctx context.Context, _ *rpc.ListConsultantsRequest) (*rpc.ListConsultantsResponse, error) {
	list, err := h.ids.ListConsultants(ctx)
	if err != nil {
		return nil, h.internal(ctx, "list consultants", err)
	}
	out := &rpc.ListConsultantsResponse{Consultants: make([]*rpc.Consultant, 0, len(list))}
	for i := range list {
		out.Consultants = append(out.Consultants, toConsultant(&list[i]))
	}
	return out, nil
}

// GetConsultant returns one verified consultant's public profile.
func (h *Handler) GetConsultant(ctx context.Context, req *rpc.GetConsultantRequest) (*rpc.Consultant, error) {
	id := strings.TrimSpace(req.ConsultantID)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "consultant_id required")
	}
	p, err := h.ids.ResolvePrincipal(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !p.IsConsultant()) {
		return nil, status.Error(codes.NotFound, "consultant not found")
	}
	if err != nil {
		return nil, h.internal(ctx, "get consultant", err)
	}
	return toConsultant(p), nil
}

func toConsultant(p *model.Principal) *rpc.Consultant {
	c := &rpc.Consultant{ID: p.ID, Name: p.DisplayName, Email: p.Email}
	if p.Consultant != nil {
		c.Specialization = p.Consultant.Specialization
	}
	return c
}
