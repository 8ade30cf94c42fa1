// Package timerules holds the pure calendar arithmetic behind slot booking:
// working hours, slot size and date/time decomposition. Nothing here reads
// the wall clock.
package timerules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrBadDate  = errors.New("date must be YYYY-MM-DD")
	ErrBadTime  = errors.New("time must be HH:mm")
	ErrBadRules = errors.New("invalid scheduling rules")
)

var timeLabel = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Rules is the scheduling configuration. All instants are interpreted in
// Location, the single zone the deployment schedules in.
type Rules struct {
	WorkStartHour       int
	WorkEndHour         int
	SlotMinutes         int
	MaxPerSubjectPerDay int
	ReminderLeadMinutes int
	RetentionDays       int
	WorkingDays         []time.Weekday
	Location            *time.Location
}

// Default returns Mon-Fri 10:00-18:00 with 30 minute slots, three bookings
// per subject per day, 15 minute reminders and 30 day retention, in UTC.
func Default() Rules {
	return Rules{
		WorkStartHour:       10,
		WorkEndHour:         18,
		SlotMinutes:         30,
		MaxPerSubjectPerDay: 3,
		ReminderLeadMinutes: 15,
		RetentionDays:       30,
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		Location: time.UTC,
	}
}

// Validate reports the first inconsistency in r.
func (r Rules) Validate() error {
	switch {
	case r.WorkStartHour < 0 || r.WorkEndHour > 24 || r.WorkStartHour >= r.WorkEndHour:
		return fmt.Errorf("%w: working hours %d-%d", ErrBadRules, r.WorkStartHour, r.WorkEndHour)
	case r.SlotMinutes <= 0 || ((r.WorkEndHour-r.WorkStartHour)*60)%r.SlotMinutes != 0:
		return fmt.Errorf("%w: slot of %d minutes does not tile working hours", ErrBadRules, r.SlotMinutes)
	case r.MaxPerSubjectPerDay <= 0:
		return fmt.Errorf("%w: daily quota must be positive", ErrBadRules)
	case r.ReminderLeadMinutes <= 0:
		return fmt.Errorf("%w: reminder lead must be positive", ErrBadRules)
	case r.RetentionDays <= 0:
		return fmt.Errorf("%w: retention must be positive", ErrBadRules)
	case len(r.WorkingDays) == 0:
		return fmt.Errorf("%w: no working days", ErrBadRules)
	}
	return nil
}

func (r Rules) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// SlotDuration is the fixed length of every slot.
func (r Rules) SlotDuration() time.Duration {
	return time.Duration(r.SlotMinutes) * time.Minute
}

// ReminderLead is how long before slot start a reminder becomes due.
func (r Rules) ReminderLead() time.Duration {
	return time.Duration(r.ReminderLeadMinutes) * time.Minute
}

// Retention is how long a completed appointment is kept after it ends.
func (r Rules) Retention() time.Duration {
	return time.Duration(r.RetentionDays) * 24 * time.Hour
}

// ParseDate parses a YYYY-MM-DD string as midnight in the rules' zone.
func (r Rules) ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), r.loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, date)
	}
	return d, nil
}

// Combine joins a calendar date and an HH:mm label into an instant.
func (r Rules) Combine(date, label string) (time.Time, error) {
	d, err := r.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	m := timeLabel.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTime, label)
	}
	hour := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	minute := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, r.loc()), nil
}

// IsBookable reports whether a slot may start at t: a working weekday, on a
// slot boundary, and ending no later than the close of working hours.
func (r Rules) IsBookable(t time.Time) bool {
	t = t.In(r.loc())
	if !r.isWorkingDay(t.Weekday()) {
		return false
	}
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	if minutes%r.SlotMinutes != 0 {
		return false
	}
	return minutes >= r.WorkStartHour*60 && minutes+r.SlotMinutes <= r.WorkEndHour*60
}

func (r Rules) isWorkingDay(d time.Weekday) bool {
	for _, w := range r.WorkingDays {
		if w == d {
			return true
		}
	}
	return false
}

// SlotEnd is the exclusive end of the slot starting at start.
func (r Rules) SlotEnd(start time.Time) time.Time {
	return start.Add(r.SlotDuration())
}

// StartOfDay is midnight of t's calendar day in the rules' zone.
func (r Rules) StartOfDay(t time.Time) time.Time {
	t = t.In(r.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.loc())
}

// DayRange returns [midnight, next midnight) for t's calendar day.
func (r Rules) DayRange(t time.Time) (time.Time, time.Time) {
	start := r.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// Label formats t as the HH:mm slot label.
func (r Rules) Label(t time.Time) string {
	return t.In(r.loc()).Format(TimeLayout)
}

// ParseWeekdays parses a comma separated list such as "MON,TUE,WED".
func ParseWeekdays(s string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
		"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
	}
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		d, ok := names[part]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrBadRules, part)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no working days", ErrBadRules)
	}
	return out, nil
}
