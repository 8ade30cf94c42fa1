package model

import "time"

// Filter selects appointments. Zero fields do not constrain. Time bounds
// are named for their inclusivity.
type Filter struct {
	ID           string
	SubjectID    string
	ConsultantID string
	Statuses     []Status
	ReminderSent *bool

	DayFrom   time.Time // calendar_date >= DayFrom
	DayBefore time.Time // calendar_date < DayBefore

	StartsAtOrAfter  time.Time
	StartsAtOrBefore time.Time
	EndsBefore       time.Time

	// Newest orders by slot start descending. Ties break on id either way
	// so Offset pages are stable.
	Newest bool
	Limit  int
	Offset int
}

// Match evaluates f against a in memory.
func (f Filter) Match(a *Appointment) bool {
	if f.ID != "" && a.ID != f.ID {
		return false
	}
	if f.SubjectID != "" && a.SubjectID != f.SubjectID {
		return false
	}
	if f.ConsultantID != "" && a.ConsultantID != f.ConsultantID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
		return false
	}
	if f.ReminderSent != nil && a.ReminderSent != *f.ReminderSent {
		return false
	}
	if !f.DayFrom.IsZero() && a.CalendarDate.Before(f.DayFrom) {
		return false
	}
	if !f.DayBefore.IsZero() && !a.CalendarDate.Before(f.DayBefore) {
		return false
	}
	if !f.StartsAtOrAfter.IsZero() && a.SlotStart.Before(f.StartsAtOrAfter) {
		return false
	}
	if !f.StartsAtOrBefore.IsZero() && a.SlotStart.After(f.StartsAtOrBefore) {
		return false
	}
	if !f.EndsBefore.IsZero() && !a.SlotEnd.Before(f.EndsBefore) {
		return false
	}
	return true
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func Bool(b bool) *bool { return &b }
