package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyCancelled  = errors.New("booking is already cancelled")
	ErrBookingCancelled  = errors.New("cannot edit a cancelled booking")
	ErrLockWindow        = errors.New("cannot modify within 7 days of the event date")
	ErrPaymentFinalized  = errors.New("payment has already been verified or rejected")
	ErrNothingToRecord   = errors.New("no pending payments to record")
)

// ValidationError rejects a request before any state change.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// CapacityError carries the exact remaining capacity so the client
// message can cite it.
type CapacityError struct {
	Date            string
	RemainingPax    int
	RemainingEvents int
}

func (e *CapacityError) Error() string {
	if e.RemainingEvents <= 0 {
		return fmt.Sprintf("booking unavailable: maximum events for %s reached", e.Date)
	}
	return fmt.Sprintf("booking unavailable: exceeds daily capacity for %s, remaining capacity: %d pax", e.Date, e.RemainingPax)
}
