package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/room-reservation/internal/scheduler"
)

var (
	professor1 = scheduler.Actor{ID: "p1", Role: scheduler.RoleProfessor}
	professor2 = scheduler.Actor{ID: "p2", Role: scheduler.RoleProfessor}
	admin      = scheduler.Actor{ID: "admin", Role: scheduler.RoleAdmin}
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type sequence struct {
	mu sync.Mutex
	n  int
}

func (s *sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("res-%d", s.n)
}

type roomCatalogStub struct {
	rooms map[string]Room
	err   error
}

func (s *roomCatalogStub) GetRoom(ctx context.Context, id string) (Room, error) {
	if s.err != nil {
		return Room{}, s.err
	}
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return room, nil
}

func (s *roomCatalogStub) ListRooms(ctx context.Context) ([]Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out, nil
}

type userDirectoryStub struct {
	users map[string]User
}

func (s *userDirectoryStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *userDirectoryStub) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

type reservationStoreStub struct {
	mu           sync.Mutex
	reservations map[string]scheduler.Reservation
	createErr    error
	updateErr    error
}

func newReservationStoreStub() *reservationStoreStub {
	return &reservationStoreStub{reservations: make(map[string]scheduler.Reservation)}
}

func (s *reservationStoreStub) CreateReservation(ctx context.Context, r scheduler.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.reservations[r.ID] = r
	return nil
}

func (s *reservationStoreStub) GetReservation(ctx context.Context, id string) (scheduler.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return scheduler.Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *reservationStoreStub) UpdateReservationStatus(ctx context.Context, id string, status scheduler.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	s.reservations[id] = r
	return nil
}

func (s *reservationStoreStub) ListReservations(ctx context.Context, filter ReservationFilter) ([]scheduler.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []scheduler.Reservation
	for _, r := range s.reservations {
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		if filter.RequesterID != "" && r.RequesterID != filter.RequesterID {
			continue
		}
		if !filter.From.IsZero() && r.Slot.DateKey() < filter.From.Format(scheduler.DateLayout) {
			continue
		}
		if !filter.To.IsZero() && r.Slot.DateKey() > filter.To.Format(scheduler.DateLayout) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, r.Status) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func containsStatus(statuses []scheduler.Status, status scheduler.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type recordingSink struct {
	mu     sync.Mutex
	events []Notification
}

func (s *recordingSink) Notify(ctx context.Context, n Notification) {
	s.mu.Lock()
	s.events = append(s.events, n)
	s.mu.Unlock()
}

func (s *recordingSink) Events() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.events))
	copy(out, s.events)
	return out
}

type harness struct {
	service *ReservationService
	store   *reservationStoreStub
	rooms   *roomCatalogStub
	users   *userDirectoryStub
	sink    *recordingSink
	clock   *testClock
}

func newHarness(t *testing.T, mutate ...func(*ReservationServiceConfig)) *harness {
	t.Helper()
	h := &harness{
		store: newReservationStoreStub(),
		rooms: &roomCatalogStub{rooms: map[string]Room{
			"room-r": {ID: "room-r", Name: "Room R", Capacity: 30, Location: "Bâtiment Central"},
			"room-s": {ID: "room-s", Name: "Room S", Capacity: 12, Location: "Annexe 1"},
		}},
		users: &userDirectoryStub{users: map[string]User{
			"p1":    {ID: "p1", DisplayName: "P1", Role: scheduler.RoleProfessor},
			"p2":    {ID: "p2", DisplayName: "P2", Role: scheduler.RoleProfessor},
			"admin": {ID: "admin", DisplayName: "Admin", Role: scheduler.RoleAdmin},
		}},
		sink:  &recordingSink{},
		clock: newTestClock(),
	}
	cfg := ReservationServiceConfig{
		Rooms:       h.rooms,
		Users:       h.users,
		Store:       h.store,
		Sink:        h.sink,
		IDGenerator: (&sequence{}).Next,
		Now:         h.clock.Now,
		LockTimeout: 50 * time.Millisecond,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	h.service = NewReservationService(cfg)
	return h
}

func slot(t *testing.T, date, start, end string) scheduler.TimeSlot {
	t.Helper()
	s, err := scheduler.NewTimeSlot(date, start, end)
	require.NoError(t, err)
	return s
}

func (h *harness) request(t *testing.T, actor scheduler.Actor, roomID string, s scheduler.TimeSlot) scheduler.Reservation {
	t.Helper()
	r, err := h.service.Request(context.Background(), actor, roomID, s)
	require.NoError(t, err)
	return r
}
