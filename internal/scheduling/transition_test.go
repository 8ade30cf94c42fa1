package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"consult-scheduler/internal/model"
)

func TestCheckTransition(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		from  model.Status
		start time.Time
		to    model.Status
		actor Actor
		want  error
	}{
		{"admin confirms pending", model.StatusPending, future, model.StatusConfirmed, ActorAdmin, nil},
		{"admin cancels pending", model.StatusPending, future, model.StatusCancelled, ActorAdmin, nil},
		{"subject cancels pending", model.StatusPending, future, model.StatusCancelled, ActorSubject, nil},
		{"subject cancels confirmed", model.StatusConfirmed, future, model.StatusCancelled, ActorSubject, nil},
		{"sweeper completes confirmed", model.StatusConfirmed, past, model.StatusCompleted, ActorSweeper, nil},

		{"subject cannot confirm", model.StatusPending, future, model.StatusConfirmed, ActorSubject, ErrForbiddenTransition},
		{"admin cannot complete", model.StatusConfirmed, past, model.StatusCompleted, ActorAdmin, ErrForbiddenTransition},
		{"subject cannot complete", model.StatusConfirmed, past, model.StatusCompleted, ActorSubject, ErrForbiddenTransition},
		{"sweeper cannot complete pending", model.StatusPending, past, model.StatusCompleted, ActorSweeper, ErrIllegalTransition},
		{"sweeper cannot cancel", model.StatusConfirmed, future, model.StatusCancelled, ActorSweeper, ErrForbiddenTransition},

		{"confirmed back to pending", model.StatusConfirmed, future, model.StatusPending, ActorAdmin, ErrIllegalTransition},
		{"pending to pending", model.StatusPending, future, model.StatusPending, ActorAdmin, ErrIllegalTransition},
		{"confirm twice", model.StatusConfirmed, future, model.StatusConfirmed, ActorAdmin, ErrIllegalTransition},

		{"cancelled to confirmed", model.StatusCancelled, future, model.StatusConfirmed, ActorAdmin, ErrAlreadyTerminal},
		{"cancelled to cancelled", model.StatusCancelled, future, model.StatusCancelled, ActorSubject, ErrAlreadyTerminal},
		{"cancelled to completed", model.StatusCancelled, past, model.StatusCompleted, ActorAdmin, ErrAlreadyTerminal},
		{"completed to cancelled", model.StatusCompleted, past, model.StatusCancelled, ActorAdmin, ErrAlreadyTerminal},

		{"cancel after start", model.StatusConfirmed, past, model.StatusCancelled, ActorSubject, ErrSlotAlreadyElapsed},
		{"admin cancel at start instant", model.StatusPending, now, model.StatusCancelled, ActorAdmin, ErrSlotAlreadyElapsed},

		{"unknown target", model.StatusPending, future, model.Status("ARCHIVED"), ActorAdmin, ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &model.Appointment{Status: tt.from, SlotStart: tt.start, SlotEnd: tt.start.Add(30 * time.Minute)}
			err := CheckTransition(a, tt.to, tt.actor, now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			assert.Equal(t, tt.from, a.Status, "CheckTransition must not mutate")
		})
	}
}

func TestIllegalTransitionCarriesStatuses(t *testing.T) {
	a := &model.Appointment{Status: model.StatusConfirmed, SlotStart: time.Now().Add(time.Hour)}
	err := CheckTransition(a, model.StatusPending, ActorAdmin, time.Now())

	var it *IllegalTransition
	if assert.ErrorAs(t, err, &it) {
		assert.Equal(t, model.StatusConfirmed, it.From)
		assert.Equal(t, model.StatusPending, it.To)
	}
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "IllegalTransition", CodeOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(malformed("x")))
	assert.Equal(t, KindPolicy, KindOf(ErrDailyQuotaExceeded))
	assert.Equal(t, KindNotFound, KindOf(ErrConsultantNotFound))
	assert.Equal(t, KindConflict, KindOf(ErrSlotAlreadyBooked))
	assert.Equal(t, KindPermission, KindOf(ErrForbiddenTransition))
	assert.Equal(t, KindInfrastructure, KindOf(errors.New("connection reset")))
	assert.Equal(t, "Internal", CodeOf(errors.New("connection reset")))
}
