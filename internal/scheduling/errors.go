package scheduling

import (
	"errors"
	"fmt"

	"consult-scheduler/internal/model"
)

// Kind classifies errors for callers deciding how to respond.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindPolicy
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	case KindPermission:
		return "permission"
	default:
		return "infrastructure"
	}
}

// Error is a classified scheduling failure with a stable code.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

var (
	ErrMalformedInput = newErr(KindValidation, "MalformedInput", "malformed input")

	ErrSubjectNotFound    = newErr(KindNotFound, "SubjectNotFound", "subject not found")
	ErrConsultantNotFound = newErr(KindNotFound, "ConsultantNotFound", "consultant not found")
	ErrNotFound           = newErr(KindNotFound, "NotFound", "appointment not found")

	ErrSlotAlreadyBooked = newErr(KindConflict, "SlotAlreadyBooked", "this slot is already booked, choose a different time")
	ErrAlreadyTerminal   = newErr(KindConflict, "AlreadyTerminal", "appointment is already cancelled or completed")
	ErrIllegalTransition = newErr(KindConflict, "IllegalTransition", "illegal status transition")
	ErrConcurrentUpdate  = newErr(KindConflict, "ConcurrentUpdate", "appointment changed concurrently, reload and retry")

	ErrOutsideWorkingHours = newErr(KindPolicy, "OutsideWorkingHours", "slot is outside working hours")
	ErrSlotInPast          = newErr(KindPolicy, "SlotInPast", "appointment time must be in the future")
	ErrDailyQuotaExceeded  = newErr(KindPolicy, "DailyQuotaExceeded", "daily appointment limit reached")
	ErrSlotAlreadyElapsed  = newErr(KindPolicy, "SlotAlreadyElapsed", "appointment has already started or passed")

	ErrForbiddenTransition = newErr(KindPermission, "ForbiddenTransition", "status cannot be set by this actor")
	ErrAdminOnly           = newErr(KindPermission, "AdminOnly", "admin role required")
	ErrAdminCannotBook     = newErr(KindPermission, "AdminCannotBook", "admins cannot book appointments")
)

// IllegalTransition is returned when from -> to is not in the transition
// table. It matches ErrIllegalTransition under errors.Is.
type IllegalTransition struct {
	From, To model.Status
}

func (e *IllegalTransition) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

func (e *IllegalTransition) Is(target error) bool { return target == ErrIllegalTransition }

// KindOf classifies err; anything unrecognised is infrastructure.
func KindOf(err error) Kind {
	if errors.Is(err, ErrIllegalTransition) {
		return KindConflict
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// CodeOf returns the stable code of a classified error, or "Internal".
func CodeOf(err error) string {
	if errors.Is(err, ErrIllegalTransition) {
		return ErrIllegalTransition.Code
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "Internal"
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
