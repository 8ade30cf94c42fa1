package store

import (
	"fmt"
	"strings"

	"consult-scheduler/internal/model"
)

// where renders f as a WHERE clause whose placeholders continue after the
// args already bound by the caller.
func where(f model.Filter, args []any) (string, []any) {
	var conds []string
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.ID != "" {
		add("id = $%d", f.ID)
	}
	if f.SubjectID != "" {
		add("subject_id = $%d", f.SubjectID)
	}
	if f.ConsultantID != "" {
		add("consultant_id = $%d", f.ConsultantID)
	}
	if len(f.Statuses) == 1 {
		add("status = $%d", string(f.Statuses[0]))
	} else if len(f.Statuses) > 1 {
		list := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			list[i] = string(st)
		}
		add("status = ANY($%d)", list)
	}
	if f.ReminderSent != nil {
		add("reminder_sent = $%d", *f.ReminderSent)
	}
	if !f.DayFrom.IsZero() {
		add("calendar_date >= $%d", f.DayFrom)
	}
	if !f.DayBefore.IsZero() {
		add("calendar_date < $%d", f.DayBefore)
	}
	if !f.StartsAtOrAfter.IsZero() {
		add("slot_start >= $%d", f.StartsAtOrAfter)
	}
	if !f.StartsAtOrBefore.IsZero() {
		add("slot_start <= $%d", f.StartsAtOrBefore)
	}
	if !f.EndsBefore.IsZero() {
		add("slot_end < $%d", f.EndsBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
