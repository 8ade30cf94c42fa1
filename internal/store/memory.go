package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"consult-scheduler/internal/model"
)

// Memory is an in-process store with the same guarantees as Store: the
// slot check and the insert happen under one lock, so concurrent bookings
// of a slot resolve to exactly one winner. Used for local runs and tests.
type Memory struct {
	mu           sync.RWMutex
	appointments map[string]*model.Appointment
	principals   map[string]*model.Credentials
}

func NewMemory() *Memory {
	return &Memory{
		appointments: make(map[string]*model.Appointment),
		principals:   make(map[string]*model.Credentials),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.appointments[a.ID]; ok {
		return ErrDuplicate
	}
	if a.Occupies() {
		for _, existing := range m.appointments {
			if existing.Occupies() && existing.ConsultantID == a.ConsultantID && existing.SlotStart.Equal(a.SlotStart) {
				return ErrSlotTaken
			}
		}
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *Memory) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) FindAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.matchLocked(f)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SlotStart.Equal(out[j].SlotStart) {
			return out[i].SlotStart.Before(out[j].SlotStart) != f.Newest
		}
		return out[i].ID < out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) CountAppointments(ctx context.Context, f model.Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchLocked(f)), nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != from {
		return nil, ErrStale
	}
	a.Status = to
	a.UpdatedAt = at
	cp := *a
	return &cp, nil
}

func (m *Memory) UpdateStatusWhere(ctx context.Context, f model.Filter, to model.Status, at time.Time) ([]model.Appointment, error) {
	if isEmpty(f) {
		return nil, ErrUnbounded
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if f.Match(a) {
			a.Status = to
			a.UpdatedAt = at
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *Memory) DeleteWhere(ctx context.Context, f model.Filter) (int64, error) {
	if isEmpty(f) {
		return 0, ErrUnbounded
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.appointments {
		if f.Match(a) {
			delete(m.appointments, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != model.StatusConfirmed || a.ReminderSent {
		return false, nil
	}
	a.ReminderSent = true
	a.UpdatedAt = at
	return true, nil
}

func (m *Memory) matchLocked(f model.Filter) []model.Appointment {
	var out []model.Appointment
	for _, a := range m.appointments {
		if f.Match(a) {
			out = append(out, *a)
		}
	}
	return out
}

func isEmpty(f model.Filter) bool {
	clause, _ := where(f, nil)
	return clause == ""
}

func (m *Memory) CreatePrincipal(ctx context.Context, c *model.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(c.Email)
	for _, p := range m.principals {
		if p.Email == email || p.ID == c.ID {
			return ErrDuplicate
		}
	}
	cp := *c
	cp.Email = email
	now := time.Now()
	cp.CreatedAt, cp.UpdatedAt = now, now
	m.principals[c.ID] = &cp
	return nil
}

func (m *Memory) CredentialsByEmail(ctx context.Context, email string) (*model.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range m.principals {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ResolvePrincipal(ctx context.Context, id string) (*model.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.principals[id]
	if !ok || !p.Verified {
		return nil, ErrNotFound
	}
	cp := p.Principal
	return &cp, nil
}

func (m *Memory) MarkVerified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[id]
	if !ok {
		return ErrNotFound
	}
	p.Verified = true
	p.OTPHash = ""
	p.OTPExpiresAt = nil
	p.OTPAttempts = 0
	p.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) RecordOTPFailure(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[id]
	if !ok || p.Verified {
		return 0, ErrNotFound
	}
	p.OTPAttempts++
	p.UpdatedAt = time.Now()
	return p.OTPAttempts, nil
}

func (m *Memory) DeleteUnverified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.principals[id]; ok && !p.Verified {
		delete(m.principals, id)
	}
	return nil
}

func (m *Memory) ListConsultants(ctx context.Context) ([]model.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Principal
	for _, p := range m.principals {
		if p.Role == model.RoleConsultant && p.Verified {
			out = append(out, p.Principal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}
