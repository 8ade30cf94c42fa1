package scheduling

import (
	"time"

	"consult-scheduler/internal/model"
)

// Actor is who asks for a status change.
type Actor int

const (
	ActorSubject Actor = iota
	ActorAdmin
	// ActorSweeper is the lifecycle sweeper, the only legitimate source of
	// COMPLETED.
	ActorSweeper
)

func (a Actor) String() string {
	switch a {
	case ActorAdmin:
		return "admin"
	case ActorSweeper:
		return "sweeper"
	default:
		return "subject"
	}
}

// legal lists, per source status, the targets and who may request them.
var legal = map[model.Status]map[model.Status][]Actor{
	model.StatusPending: {
		model.StatusConfirmed: {ActorAdmin},
		model.StatusCancelled: {ActorAdmin, ActorSubject},
	},
	model.StatusConfirmed: {
		model.StatusCancelled: {ActorAdmin, ActorSubject},
		model.StatusCompleted: {ActorSweeper},
	},
}

// CheckTransition validates moving a to status to on behalf of actor at
// instant now. It does not mutate a.
//
// Order of checks: unknown target, terminal source, COMPLETED requested by
// a direct actor, transition table, actor, then the cancellation deadline.
func CheckTransition(a *model.Appointment, to model.Status, actor Actor, now time.Time) error {
	if !to.Valid() {
		return malformed("unknown status %q", to)
	}
	if a.Status.Terminal() {
		return ErrAlreadyTerminal
	}
	if to == model.StatusCompleted && actor != ActorSweeper {
		return ErrForbiddenTransition
	}
	actors, ok := legal[a.Status][to]
	if !ok {
		return &IllegalTransition{From: a.Status, To: to}
	}
	if !allowed(actors, actor) {
		return ErrForbiddenTransition
	}
	if to == model.StatusCancelled && !a.SlotStart.After(now) {
		return ErrSlotAlreadyElapsed
	}
	return nil
}

func allowed(actors []Actor, actor Actor) bool {
	for _, a := range actors {
		if a == actor {
			return true
		}
	}
	return false
}
