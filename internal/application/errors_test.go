package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/scheduler"
)

func TestErrorKind(t *testing.T) {
	vErr := &ValidationError{}
	vErr.Add("slot", "bad")

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthorized, "unauthorized"},
		{fmt.Errorf("wrap: %w", ErrNotFound), "not_found"},
		{scheduler.ErrInvalidSlot, "invalid_slot"},
		{scheduler.ErrInvalidTransition, "invalid_transition"},
		{&ConflictError{}, "slot_conflict"},
		{fmt.Errorf("%w: room r", ErrBusy), "busy"},
		{ErrAlreadyExists, "already_exists"},
		{ErrInvalidCredentials, "invalid_credentials"},
		{ErrInvalidToken, "invalid_token"},
		{vErr, "validation"},
		{errors.New("boom"), "unexpected"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}

func TestMapRepoError(t *testing.T) {
	assert.NoError(t, mapRepoError(nil))
	assert.ErrorIs(t, mapRepoError(persistence.ErrNotFound), ErrNotFound)
	assert.ErrorIs(t, mapRepoError(persistence.ErrForeignKeyViolation), ErrNotFound)
	assert.ErrorIs(t, mapRepoError(persistence.ErrDuplicate), ErrAlreadyExists)

	other := errors.New("io")
	assert.Same(t, other, mapRepoError(other))
}

func TestValidationError(t *testing.T) {
	var empty *ValidationError
	assert.False(t, empty.HasErrors())
	assert.Equal(t, "validation failed", empty.Error())

	v := &ValidationError{}
	v.Add("to", "must not be before from")
	other := &ValidationError{}
	other.Add("date", "invalid")
	v.Merge(other)
	v.Merge(nil)

	assert.True(t, v.HasErrors())
	assert.Equal(t, "validation failed: date, to", v.Error())
}

func TestConflictErrorNamesBlockingReservation(t *testing.T) {
	s, err := scheduler.NewTimeSlot("2025-04-25", "14:00", "16:00")
	assert.NoError(t, err)
	cErr := &ConflictError{Blocking: scheduler.Reservation{ID: "r1", Slot: s}}
	assert.ErrorIs(t, cErr, ErrSlotConflict)
	assert.Contains(t, cErr.Error(), "r1")
	assert.Contains(t, cErr.Error(), "2025-04-25 14:00-16:00")
}
