package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, date, start, end string) TimeSlot {
	t.Helper()
	slot, err := NewTimeSlot(date, start, end)
	require.NoError(t, err)
	return slot
}

func TestParseTimeOfDay(t *testing.T) {
	t.Run("accepts HH:MM and midnight end", func(t *testing.T) {
		v, err := ParseTimeOfDay("14:30")
		require.NoError(t, err)
		assert.Equal(t, TimeOfDay(14*60+30), v)
		assert.Equal(t, "14:30", v.String())

		v, err = ParseTimeOfDay("24:00")
		require.NoError(t, err)
		assert.Equal(t, TimeOfDay(MinutesPerDay), v)
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		for _, raw := range []string{"", "9:00", "14h00", "24:30", "12:60", "ab:cd"} {
			_, err := ParseTimeOfDay(raw)
			assert.ErrorIs(t, err, ErrInvalidSlot, raw)
		}
	})
}

func TestNewTimeSlot(t *testing.T) {
	t.Run("requires start before end", func(t *testing.T) {
		_, err := NewTimeSlot("2025-04-25", "16:00", "14:00")
		assert.ErrorIs(t, err, ErrInvalidSlot)

		_, err = NewTimeSlot("2025-04-25", "14:00", "14:00")
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		_, err := NewTimeSlot("25/04/2025", "14:00", "16:00")
		assert.True(t, errors.Is(err, ErrInvalidSlot))
	})

	t.Run("renders date and range", func(t *testing.T) {
		slot := mustSlot(t, "2025-04-25", "14:00", "16:00")
		assert.Equal(t, "2025-04-25 14:00-16:00", slot.String())
		assert.Equal(t, 120, slot.Minutes())
	})
}

func TestTimeSlot_Overlaps(t *testing.T) {
	base := mustSlot(t, "2025-04-25", "14:00", "16:00")

	cases := []struct {
		name  string
		other TimeSlot
		want  bool
	}{
		{"partial overlap", mustSlot(t, "2025-04-25", "15:00", "17:00"), true},
		{"contained", mustSlot(t, "2025-04-25", "14:30", "15:00"), true},
		{"touching end is free", mustSlot(t, "2025-04-25", "16:00", "18:00"), false},
		{"touching start is free", mustSlot(t, "2025-04-25", "12:00", "14:00"), false},
		{"different date never overlaps", mustSlot(t, "2025-04-26", "14:00", "16:00"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestTimeSlot_Elapsed(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)
	slot := mustSlot(t, "2025-04-25", "14:00", "16:00")

	assert.False(t, slot.Elapsed(time.Date(2025, time.April, 25, 15, 0, 0, 0, paris)), "slot in progress is not elapsed")
	assert.True(t, slot.Elapsed(time.Date(2025, time.April, 25, 16, 0, 0, 0, paris)))
	assert.False(t, slot.Elapsed(time.Date(2025, time.April, 24, 23, 0, 0, 0, time.UTC)))
}

func TestSortReservations(t *testing.T) {
	created := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)
	rs := []Reservation{
		{ID: "c", Slot: mustSlot(t, "2025-04-25", "14:00", "16:00"), CreatedAt: created.Add(time.Minute)},
		{ID: "b", Slot: mustSlot(t, "2025-04-24", "09:00", "10:00"), CreatedAt: created.Add(time.Hour)},
		{ID: "a", Slot: mustSlot(t, "2025-04-25", "14:00", "16:00"), CreatedAt: created},
		{ID: "d", Slot: mustSlot(t, "2025-04-25", "14:00", "16:00"), CreatedAt: created},
	}

	SortReservations(rs)

	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "a", "d", "c"}, ids)
}
