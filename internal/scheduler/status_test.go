package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	legal := []struct {
		from  Status
		event Event
		to    Status
	}{
		{"", EventCreate, StatusPending},
		{StatusPending, EventConfirm, StatusConfirmed},
		{StatusPending, EventReject, StatusRejected},
		{StatusPending, EventCancel, StatusCancelled},
		{StatusConfirmed, EventCancel, StatusCancelled},
	}
	for _, tc := range legal {
		next, err := Transition(tc.from, tc.event)
		require.NoError(t, err, "%s/%s", tc.from, tc.event)
		assert.Equal(t, tc.to, next)
	}

	illegal := []struct {
		from  Status
		event Event
	}{
		{StatusConfirmed, EventConfirm},
		{StatusConfirmed, EventReject},
		{StatusRejected, EventCancel},
		{StatusCancelled, EventCancel},
		{StatusCancelled, EventConfirm},
		{StatusPending, EventCreate},
		{"", EventConfirm},
	}
	for _, tc := range illegal {
		_, err := Transition(tc.from, tc.event)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s/%s", tc.from, tc.event)
	}
}

func TestTransitionNeverReentersPending(t *testing.T) {
	events := []Event{EventCreate, EventConfirm, EventReject, EventCancel}
	for _, from := range Statuses {
		for _, event := range events {
			next, err := Transition(from, event)
			if err == nil {
				assert.NotEqual(t, StatusPending, next, "%s/%s", from, event)
			}
		}
	}
}

func TestReleasesSlot(t *testing.T) {
	assert.True(t, ReleasesSlot(StatusPending, StatusRejected))
	assert.True(t, ReleasesSlot(StatusPending, StatusCancelled))
	assert.True(t, ReleasesSlot(StatusConfirmed, StatusCancelled))
	assert.False(t, ReleasesSlot(StatusPending, StatusConfirmed))
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus(" confirmed ")
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, status)

	_, ok = ParseStatus("upcoming")
	assert.False(t, ok)
}
