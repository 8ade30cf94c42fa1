package rpc

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every request and response type. The field
// numbers match api/schedule/v1/schedule.proto.
type Message interface {
	AppendWire(b []byte) []byte
	UnmarshalWire(b []byte) error
}

type RegisterRequest struct {
	Email          string
	Password       string
	Name           string
	Role           string
	Specialization string
}

func (m *RegisterRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.Password)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.Role)
	return appendString(b, 5, m.Specialization)
}

func (m *RegisterRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.Email = f.str()
		case 2:
			m.Password = f.str()
		case 3:
			m.Name = f.str()
		case 4:
			m.Role = f.str()
		case 5:
			m.Specialization = f.str()
		}
		return nil
	})
}

type RegisterResponse struct {
	PrincipalID string
	Message     string
}

func (m *RegisterResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.PrincipalID)
	return appendString(b, 2, m.Message)
}

func (m *RegisterResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.PrincipalID = f.str()
		case 2:
			m.Message = f.str()
		}
		return nil
	})
}

type VerifyOTPRequest struct {
	Email string
	Code  string
}

func (m *VerifyOTPRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	return appendString(b, 2, m.Code)
}

func (m *VerifyOTPRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.Email = f.str()
		case 2:
			m.Code = f.str()
		}
		return nil
	})
}

type LoginRequest struct {
	Email    string
	Password string
}

func (m *LoginRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	return appendString(b, 2, m.Password)
}

func (m *LoginRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.Email = f.str()
		case 2:
			m.Password = f.str()
		}
		return nil
	})
}

// AuthResponse is returned by VerifyOTP and Login.
type AuthResponse struct {
	AccessToken string
	PrincipalID string
	Role        string
	Name        string
	ExpiresAt   time.Time
}

func (m *AuthResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.AccessToken)
	b = appendString(b, 2, m.PrincipalID)
	b = appendString(b, 3, m.Role)
	b = appendString(b, 4, m.Name)
	return appendTime(b, 5, m.ExpiresAt)
}

func (m *AuthResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		var err error
		switch f.num {
		case 1:
			m.AccessToken = f.str()
		case 2:
			m.PrincipalID = f.str()
		case 3:
			m.Role = f.str()
		case 4:
			m.Name = f.str()
		case 5:
			m.ExpiresAt, err = f.time()
		}
		return err
	})
}

type ListConsultantsRequest struct{}

func (m *ListConsultantsRequest) AppendWire(b []byte) []byte { return b }

func (m *ListConsultantsRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(field) error { return nil })
}

type GetConsultantRequest struct {
	ConsultantID string
}

func (m *GetConsultantRequest) AppendWire(b []byte) []byte {
	return appendString(b, 1, m.ConsultantID)
}

func (m *GetConsultantRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num == 1 && f.typ == protowire.BytesType {
			m.ConsultantID = f.str()
		}
		return nil
	})
}

type Consultant struct {
	ID             string
	Name           string
	Email          string
	Specialization string
}

func (m *Consultant) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.Email)
	return appendString(b, 4, m.Specialization)
}

func (m *Consultant) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.ID = f.str()
		case 2:
			m.Name = f.str()
		case 3:
			m.Email = f.str()
		case 4:
			m.Specialization = f.str()
		}
		return nil
	})
}

type ListConsultantsResponse struct {
	Consultants []*Consultant
}

func (m *ListConsultantsResponse) AppendWire(b []byte) []byte {
	for _, c := range m.Consultants {
		b = appendMessage(b, 1, c)
	}
	return b
}

func (m *ListConsultantsResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 || f.typ != protowire.BytesType {
			return nil
		}
		c := &Consultant{}
		if err := c.UnmarshalWire(f.bytes); err != nil {
			return err
		}
		m.Consultants = append(m.Consultants, c)
		return nil
	})
}

type BookAppointmentRequest struct {
	ConsultantID string
	Date         string // YYYY-MM-DD
	Time         string // HH:mm
}

func (m *BookAppointmentRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ConsultantID)
	b = appendString(b, 2, m.Date)
	return appendString(b, 3, m.Time)
}

func (m *BookAppointmentRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.ConsultantID = f.str()
		case 2:
			m.Date = f.str()
		case 3:
			m.Time = f.str()
		}
		return nil
	})
}

type CancelAppointmentRequest struct {
	AppointmentID string
}

func (m *CancelAppointmentRequest) AppendWire(b []byte) []byte {
	return appendString(b, 1, m.AppointmentID)
}

func (m *CancelAppointmentRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num == 1 && f.typ == protowire.BytesType {
			m.AppointmentID = f.str()
		}
		return nil
	})
}

type ListAppointmentsRequest struct {
	Date         string
	ConsultantID string
	Status       string
}

func (m *ListAppointmentsRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Date)
	b = appendString(b, 2, m.ConsultantID)
	return appendString(b, 3, m.Status)
}

func (m *ListAppointmentsRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.Date = f.str()
		case 2:
			m.ConsultantID = f.str()
		case 3:
			m.Status = f.str()
		}
		return nil
	})
}

type SetAppointmentStatusRequest struct {
	AppointmentID string
	Status        string
}

func (m *SetAppointmentStatusRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.AppointmentID)
	return appendString(b, 2, m.Status)
}

func (m *SetAppointmentStatusRequest) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.AppointmentID = f.str()
		case 2:
			m.Status = f.str()
		}
		return nil
	})
}

type Appointment struct {
	ID           string
	SubjectID    string
	SubjectName  string
	SubjectEmail string
	ConsultantID string
	Date         string
	Time         string
	SlotStart    time.Time
	SlotEnd      time.Time
	Status       string
	ReminderSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (m *Appointment) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.SubjectID)
	b = appendString(b, 3, m.SubjectName)
	b = appendString(b, 4, m.SubjectEmail)
	b = appendString(b, 5, m.ConsultantID)
	b = appendString(b, 6, m.Date)
	b = appendString(b, 7, m.Time)
	b = appendTime(b, 8, m.SlotStart)
	b = appendTime(b, 9, m.SlotEnd)
	b = appendString(b, 10, m.Status)
	b = appendBool(b, 11, m.ReminderSent)
	b = appendTime(b, 12, m.CreatedAt)
	return appendTime(b, 13, m.UpdatedAt)
}

func (m *Appointment) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num == 11 && f.typ == protowire.VarintType {
			m.ReminderSent = f.boolean()
			return nil
		}
		if f.typ != protowire.BytesType {
			return nil
		}
		var err error
		switch f.num {
		case 1:
			m.ID = f.str()
		case 2:
			m.SubjectID = f.str()
		case 3:
			m.SubjectName = f.str()
		case 4:
			m.SubjectEmail = f.str()
		case 5:
			m.ConsultantID = f.str()
		case 6:
			m.Date = f.str()
		case 7:
			m.Time = f.str()
		case 8:
			m.SlotStart, err = f.time()
		case 9:
			m.SlotEnd, err = f.time()
		case 10:
			m.Status = f.str()
		case 12:
			m.CreatedAt, err = f.time()
		case 13:
			m.UpdatedAt, err = f.time()
		}
		return err
	})
}

type AppointmentResponse struct {
	Appointment *Appointment
}

func (m *AppointmentResponse) AppendWire(b []byte) []byte {
	if m.Appointment == nil {
		return b
	}
	return appendMessage(b, 1, m.Appointment)
}

func (m *AppointmentResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 || f.typ != protowire.BytesType {
			return nil
		}
		m.Appointment = &Appointment{}
		return m.Appointment.UnmarshalWire(f.bytes)
	})
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment
}

func (m *ListAppointmentsResponse) AppendWire(b []byte) []byte {
	for _, a := range m.Appointments {
		b = appendMessage(b, 1, a)
	}
	return b
}

func (m *ListAppointmentsResponse) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 || f.typ != protowire.BytesType {
			return nil
		}
		a := &Appointment{}
		if err := a.UnmarshalWire(f.bytes); err != nil {
			return err
		}
		m.Appointments = append(m.Appointments, a)
		return nil
	})
}
