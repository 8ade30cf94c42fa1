package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus accepts any letter case; ok is false for unknown values.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Appointment is one booked slot. SubjectName and SubjectEmail are a
// snapshot taken at booking time and never refreshed.
type Appointment struct {
	ID           string
	SubjectID    string
	SubjectName  string
	SubjectEmail string
	ConsultantID string
	CalendarDate time.Time
	SlotLabel    string
	SlotStart    time.Time
	SlotEnd      time.Time
	Status       Status
	ReminderSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Occupies reports whether a holds its consultant slot.
func (a *Appointment) Occupies() bool {
	return a.Status != StatusCancelled
}
