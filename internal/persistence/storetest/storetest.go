// Package storetest holds the behaviour every persistence.Store must share.
// Implementations call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservation/internal/persistence"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) persistence.Store

var base = time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)

// Run exercises users, rooms and reservations against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("rooms", func(t *testing.T) { testRooms(t, newStore(t)) })
	t.Run("reservations", func(t *testing.T) { testReservations(t, newStore(t)) })
	t.Run("reservation filters", func(t *testing.T) { testReservationFilters(t, newStore(t)) })
}

func seedUser(t *testing.T, store persistence.Store, id, email, role string, at time.Time) persistence.User {
	t.Helper()
	user := persistence.User{
		ID:           id,
		Email:        email,
		DisplayName:  "User " + id,
		Role:         role,
		PasswordHash: "hash-" + id,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func seedRoom(t *testing.T, store persistence.Store, id, name string) persistence.Room {
	t.Helper()
	room := persistence.Room{
		ID:          id,
		Name:        name,
		Description: "Salle de cours",
		Location:    "Bâtiment Central",
		Capacity:    30,
		Features:    []string{"Vidéoprojecteur", "Wi-Fi"},
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	require.NoError(t, store.CreateRoom(context.Background(), room))
	return room
}

func testUsers(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	prof := seedUser(t, store, "u-prof", "prof@university.fr", "PROFESSOR", base)
	seedUser(t, store, "u-admin", "admin@university.fr", "ADMIN", base.Add(time.Minute))

	got, err := store.GetUser(ctx, "u-prof")
	require.NoError(t, err)
	assert.Equal(t, prof.Email, got.Email)
	assert.Equal(t, "PROFESSOR", got.Role)
	assert.Equal(t, prof.PasswordHash, got.PasswordHash)
	assert.True(t, prof.CreatedAt.Equal(got.CreatedAt))

	byEmail, err := store.GetUserByEmail(ctx, "PROF@University.fr")
	require.NoError(t, err)
	assert.Equal(t, "u-prof", byEmail.ID)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.GetUserByEmail(ctx, "nobody@university.fr")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	err = store.CreateUser(ctx, persistence.User{ID: "u-other", Email: "Prof@university.fr", Role: "PROFESSOR", CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
	err = store.CreateUser(ctx, persistence.User{ID: "u-prof", Email: "new@university.fr", Role: "PROFESSOR", CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u-prof", users[0].ID)
	assert.Equal(t, "u-admin", users[1].ID)
}

func testRooms(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedRoom(t, store, "r-b", "Salle B201")
	seedRoom(t, store, "r-a", "Salle A101")

	room, err := store.GetRoom(ctx, "r-a")
	require.NoError(t, err)
	assert.Equal(t, "Salle A101", room.Name)
	assert.Equal(t, 30, room.Capacity)
	assert.Equal(t, []string{"Vidéoprojecteur", "Wi-Fi"}, room.Features)

	room.Features[0] = "mutated"
	again, err := store.GetRoom(ctx, "r-a")
	require.NoError(t, err)
	assert.Equal(t, "Vidéoprojecteur", again.Features[0])

	_, err = store.GetRoom(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	err = store.CreateRoom(ctx, persistence.Room{ID: "r-a", Name: "dup", Capacity: 1, CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
	err = store.CreateRoom(ctx, persistence.Room{ID: "r-zero", Name: "zero", Capacity: 0, CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Salle A101", rooms[0].Name)
	assert.Equal(t, "Salle B201", rooms[1].Name)
}

func testReservations(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "u-prof", "prof@university.fr", "PROFESSOR", base)
	seedRoom(t, store, "r-a", "Salle A101")

	reservation := persistence.Reservation{
		ID:          "res-1",
		RoomID:      "r-a",
		RequesterID: "u-prof",
		Date:        "2025-04-25",
		StartMinute: 14 * 60,
		EndMinute:   16 * 60,
		Status:      "PENDING",
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	require.NoError(t, store.CreateReservation(ctx, reservation))

	got, err := store.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-25", got.Date)
	assert.Equal(t, 14*60, got.StartMinute)
	assert.Equal(t, 16*60, got.EndMinute)
	assert.Equal(t, "PENDING", got.Status)
	assert.True(t, base.Equal(got.CreatedAt))

	updatedAt := base.Add(time.Hour)
	require.NoError(t, store.UpdateReservationStatus(ctx, "res-1", "CONFIRMED", updatedAt))
	got, err = store.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", got.Status)
	assert.True(t, updatedAt.Equal(got.UpdatedAt))
	assert.True(t, base.Equal(got.CreatedAt))

	assert.ErrorIs(t, store.UpdateReservationStatus(ctx, "missing", "CANCELLED", updatedAt), persistence.ErrNotFound)
	_, err = store.GetReservation(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	assert.ErrorIs(t, store.CreateReservation(ctx, reservation), persistence.ErrDuplicate)

	orphan := reservation
	orphan.ID = "res-orphan"
	orphan.RoomID = "no-such-room"
	assert.ErrorIs(t, store.CreateReservation(ctx, orphan), persistence.ErrForeignKeyViolation)

	inverted := reservation
	inverted.ID = "res-inverted"
	inverted.StartMinute, inverted.EndMinute = 16*60, 14*60
	assert.ErrorIs(t, store.CreateReservation(ctx, inverted), persistence.ErrConstraintViolation)
}

func testReservationFilters(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "u-p1", "p1@university.fr", "PROFESSOR", base)
	seedUser(t, store, "u-p2", "p2@university.fr", "PROFESSOR", base)
	seedRoom(t, store, "r-a", "Salle A101")
	seedRoom(t, store, "r-b", "Salle B201")

	add := func(id, room, requester, date string, start int, status string, created time.Duration) {
		t.Helper()
		require.NoError(t, store.CreateReservation(ctx, persistence.Reservation{
			ID:          id,
			RoomID:      room,
			RequesterID: requester,
			Date:        date,
			StartMinute: start,
			EndMinute:   start + 60,
			Status:      status,
			CreatedAt:   base.Add(created),
			UpdatedAt:   base.Add(created),
		}))
	}
	add("late-created", "r-a", "u-p1", "2025-04-25", 600, "PENDING", 2*time.Second)
	add("early-created", "r-a", "u-p2", "2025-04-25", 600, "PENDING", time.Second)
	add("next-day", "r-b", "u-p1", "2025-04-26", 480, "CONFIRMED", 0)
	add("morning", "r-b", "u-p2", "2025-04-25", 480, "CANCELLED", 3*time.Second)

	ids := func(filter persistence.ReservationFilter) []string {
		t.Helper()
		list, err := store.ListReservations(ctx, filter)
		require.NoError(t, err)
		out := make([]string, 0, len(list))
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"morning", "early-created", "late-created", "next-day"}, ids(persistence.ReservationFilter{}))
	assert.Equal(t, []string{"late-created", "next-day"}, ids(persistence.ReservationFilter{RequesterID: "u-p1"}))
	assert.Equal(t, []string{"morning", "next-day"}, ids(persistence.ReservationFilter{RoomID: "r-b"}))
	assert.Equal(t, []string{"morning", "next-day"}, ids(persistence.ReservationFilter{Statuses: []string{"CONFIRMED", "CANCELLED"}}))
	assert.Equal(t, []string{"next-day"}, ids(persistence.ReservationFilter{DateFrom: "2025-04-26"}))
	assert.Equal(t, []string{"morning", "early-created", "late-created"}, ids(persistence.ReservationFilter{DateTo: "2025-04-25"}))
	assert.Empty(t, ids(persistence.ReservationFilter{RoomID: "r-a", Statuses: []string{"CONFIRMED"}}))
}
