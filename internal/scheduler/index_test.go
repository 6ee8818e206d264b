package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reservation(t *testing.T, id, room, date, start, end string, status Status) Reservation {
	t.Helper()
	return Reservation{
		ID:          id,
		RoomID:      room,
		RequesterID: "p-" + id,
		Slot:        mustSlot(t, date, start, end),
		Status:      status,
		CreatedAt:   time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestIndex_ConflictsFor(t *testing.T) {
	idx := NewIndex()
	r1 := reservation(t, "r1", "room-a", "2025-04-25", "14:00", "16:00", StatusPending)
	r2 := reservation(t, "r2", "room-a", "2025-04-25", "15:00", "17:00", StatusConfirmed)
	r3 := reservation(t, "r3", "room-b", "2025-04-25", "14:00", "16:00", StatusPending)
	idx.Register(r1)
	idx.Register(r2)
	idx.Register(r3)

	conflicts := idx.ConflictsFor("room-a", mustSlot(t, "2025-04-25", "15:30", "16:30"), "")
	require.Len(t, conflicts, 2)
	assert.Equal(t, "r1", conflicts[0].ID)
	assert.Equal(t, "r2", conflicts[1].ID)

	conflicts = idx.ConflictsFor("room-a", r1.Slot, "r1")
	require.Len(t, conflicts, 1)
	assert.Equal(t, "r2", conflicts[0].ID)

	assert.Empty(t, idx.ConflictsFor("room-a", mustSlot(t, "2025-04-26", "14:00", "16:00"), ""))
	assert.Empty(t, idx.ConflictsFor("room-a", mustSlot(t, "2025-04-25", "17:00", "18:00"), ""))
}

func TestIndex_IsConfirmableIgnoresPending(t *testing.T) {
	idx := NewIndex()
	p1 := reservation(t, "p1", "room-a", "2025-04-25", "14:00", "16:00", StatusPending)
	p2 := reservation(t, "p2", "room-a", "2025-04-25", "15:00", "17:00", StatusPending)
	idx.Register(p1)
	idx.Register(p2)

	assert.True(t, idx.IsConfirmable("room-a", p1.Slot, "p1"))
	assert.True(t, idx.IsConfirmable("room-a", p2.Slot, "p2"))

	require.True(t, idx.MarkConfirmed("p1", time.Now()))

	assert.False(t, idx.IsConfirmable("room-a", p2.Slot, "p2"))
	blocking, ok := idx.BlockingConfirmed("room-a", p2.Slot, "p2")
	require.True(t, ok)
	assert.Equal(t, "p1", blocking.ID)
	assert.True(t, idx.IsConfirmable("room-a", p1.Slot, "p1"), "a reservation never blocks itself")
}

func TestIndex_RegisterRelease(t *testing.T) {
	idx := NewIndex()
	r := reservation(t, "r1", "room-a", "2025-04-25", "14:00", "16:00", StatusPending)

	idx.Register(r)
	assert.True(t, idx.Contains("r1"))
	assert.Equal(t, 1, idx.Len())

	idx.Register(r)
	assert.Equal(t, 1, idx.Len(), "re-registering replaces the entry")

	idx.Release(r)
	assert.False(t, idx.Contains("r1"))
	assert.Empty(t, idx.ConflictsFor("room-a", r.Slot, ""))

	terminal := reservation(t, "r2", "room-a", "2025-04-25", "14:00", "16:00", StatusCancelled)
	idx.Register(terminal)
	assert.False(t, idx.Contains("r2"), "terminal reservations never occupy the index")

	assert.False(t, idx.MarkConfirmed("missing", time.Now()))
}

func TestIndex_FreeSlots(t *testing.T) {
	idx := NewIndex()
	idx.Register(reservation(t, "r1", "room-a", "2025-04-25", "09:00", "10:00", StatusConfirmed))
	idx.Register(reservation(t, "r2", "room-a", "2025-04-25", "09:30", "11:00", StatusPending))
	idx.Register(reservation(t, "r3", "room-a", "2025-04-25", "14:00", "16:00", StatusPending))
	idx.Register(reservation(t, "r4", "room-a", "2025-04-25", "19:00", "21:00", StatusConfirmed))

	date := time.Date(2025, time.April, 25, 0, 0, 0, 0, time.UTC)
	free := idx.FreeSlots("room-a", date, 8*60, 20*60)

	got := make([]string, 0, len(free))
	for _, slot := range free {
		got = append(got, slot.String())
	}
	assert.Equal(t, []string{
		"2025-04-25 08:00-09:00",
		"2025-04-25 11:00-14:00",
		"2025-04-25 16:00-19:00",
	}, got)

	assert.Equal(t, 180, idx.ConfirmedMinutes("room-a", date, 0, MinutesPerDay))
	assert.Equal(t, 120, idx.ConfirmedMinutes("room-a", date, 8*60, 20*60))
	assert.Zero(t, idx.ConfirmedMinutes("room-a", date, 11*60, 12*60))
	assert.Len(t, idx.FreeSlots("room-b", date, 8*60, 20*60), 1)
	assert.Nil(t, idx.FreeSlots("room-a", date, 20*60, 8*60))
}
