package handler

import (
	"context"

	"consult-scheduler/internal/model"
	"consult-scheduler/internal/rpc"
	"consult-scheduler/internal/scheduling"
	"consult-scheduler/internal/timerules"
)

func (h *Handler) BookAppointment(ctx context.Context, req *rpc.BookAppointmentRequest) (*rpc.AppointmentResponse, error) {
	p, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.Book(ctx, p.ID, req.ConsultantID, req.Date, req.Time)
	if err != nil {
		return nil, h.toStatus(ctx, "book appointment", err)
	}
	return &rpc.AppointmentResponse{Appointment: h.toRPC(a)}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *rpc.CancelAppointmentRequest) (*rpc.AppointmentResponse, error) {
	p, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.Cancel(ctx, p.ID, req.AppointmentID)
	if err != nil {
		return nil, h.toStatus(ctx, "cancel appointment", err)
	}
	return &rpc.AppointmentResponse{Appointment: h.toRPC(a)}, nil
}

func (h *Handler) ListAppointments(ctx context.Context, req *rpc.ListAppointmentsRequest) (*rpc.ListAppointmentsResponse, error) {
	p, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := h.svc.List(ctx, p, scheduling.ListQuery{
		Date:         req.Date,
		ConsultantID: req.ConsultantID,
		Status:       req.Status,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "list appointments", err)
	}
	out := &rpc.ListAppointmentsResponse{Appointments: make([]*rpc.Appointment, 0, len(list))}
	for i := range list {
		out.Appointments = append(out.Appointments, h.toRPC(&list[i]))
	}
	return out, nil
}

func (h *Handler) SetAppointmentStatus(ctx context.Context, req *rpc.SetAppointmentStatusRequest) (*rpc.AppointmentResponse, error) {
	p, err := h.caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.SetStatus(ctx, p, req.AppointmentID, req.Status)
	if err != nil {
		return nil, h.toStatus(ctx, "set appointment status", err)
	}
	return &rpc.AppointmentResponse{Appointment: h.toRPC(a)}, nil
}

func (h *Handler) toRPC(a *model.Appointment) *rpc.Appointment {
	rules := h.svc.Rules()
	return &rpc.Appointment{
		ID:           a.ID,
		SubjectID:    a.SubjectID,
		SubjectName:  a.SubjectName,
		SubjectEmail: a.SubjectEmail,
		ConsultantID: a.ConsultantID,
		Date:         rules.StartOfDay(a.SlotStart).Format(timerules.DateLayout),
		Time:         a.SlotLabel,
		SlotStart:    a.SlotStart,
		SlotEnd:      a.SlotEnd,
		Status:       string(a.Status),
		ReminderSent: a.ReminderSent,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
