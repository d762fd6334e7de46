package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an identifier has no record
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a compare-and-set loses and retries
	// (where applicable) are exhausted
	ErrConflict = errors.New("conflict")

	// ErrNoCapacity is returned by allocation when no bed is available
	ErrNoCapacity = errors.New("no beds available")

	// ErrReservationExpired is returned for operations on a reservation
	// past its deadline
	ErrReservationExpired = errors.New("reservation expired")

	// ErrBedMismatch is returned when a check-in names a bed the
	// reservation does not hold
	ErrBedMismatch = errors.New("reservation holds a different bed")

	// ErrAlreadyReserved is returned when a caller who already holds an
	// active reservation asks for another bed
	ErrAlreadyReserved = errors.New("caller already has an active reservation")

	// ErrSlotTaken is returned when a chapel slot already has a
	// non-cancelled booking
	ErrSlotTaken = errors.New("chapel slot already booked")

	// ErrWeekendDisallowed is returned for chapel bookings on Saturday
	// or Sunday
	ErrWeekendDisallowed = errors.New("chapel services run on weekdays only")
)

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
