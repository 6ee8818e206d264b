package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when the actor lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the room, reservation or user does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidSlot is returned for malformed or fully elapsed time ranges.
	ErrInvalidSlot = scheduler.ErrInvalidSlot
	// ErrInvalidTransition is returned when the status/event pair is not allowed.
	ErrInvalidTransition = scheduler.ErrInvalidTransition
	// ErrSlotConflict is returned when confirmation is blocked by a CONFIRMED overlap.
	ErrSlotConflict = errors.New("application: slot conflict")
	// ErrBusy is returned when the room lock could not be taken in time. Callers may retry.
	ErrBusy = errors.New("application: room busy")
	// ErrAlreadyExists is returned when a seeded record collides with an existing one.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned for unknown emails or wrong passwords.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrInvalidToken is returned for missing, expired or forged session tokens.
	ErrInvalidToken = errors.New("application: invalid token")
)

// ConflictError names the CONFIRMED reservation that blocks a confirmation.
type ConflictError struct {
	Blocking scheduler.Reservation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("application: slot conflict with reservation %s (%s)", e.Blocking.ID, e.Blocking.Slot)
}

// Unwrap lets errors.Is match ErrSlotConflict.
func (e *ConflictError) Unwrap() error {
	return ErrSlotConflict
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// Merge copies entries from another validation error into the receiver.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.Add(field, msg)
	}
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrForeignKeyViolation):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	default:
		return err
	}
}
