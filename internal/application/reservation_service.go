package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/room-reservation/internal/scheduler"
)

// ReservationServiceConfig wires the dependencies of a ReservationService.
type ReservationServiceConfig struct {
	Rooms        RoomCatalog
	Users        UserDirectory
	Store        ReservationStore
	Sink         NotificationSink
	IDGenerator  func() string
	Now          func() time.Time
	Location     *time.Location
	OpeningHours OpeningHours
	LockTimeout  time.Duration
	Logger       *slog.Logger
}

// ReservationService is the only entry point that changes reservation state.
// Mutations on one room are serialized by a per-room lock; the store write and
// the index update of every mutation happen under one write lock so readers
// never see them disagree.
type ReservationService struct {
	rooms RoomCatalog
	users UserDirectory
	store ReservationStore
	sink  NotificationSink

	index *scheduler.Index
	guard scheduler.Guard
	locks *roomLocks
	mu    sync.RWMutex

	idGenerator func() string
	now         func() time.Time
	location    *time.Location
	hours       OpeningHours
	logger      *slog.Logger
}

// NewReservationService constructs a service with an empty availability index.
// Call Warm to load the active reservations already in the store.
func NewReservationService(cfg ReservationServiceConfig) *ReservationService {
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.OpeningHours.Minutes() == 0 {
		cfg.OpeningHours = DefaultOpeningHours
	}
	return &ReservationService{
		rooms:       cfg.Rooms,
		users:       cfg.Users,
		store:       cfg.Store,
		sink:        cfg.Sink,
		index:       scheduler.NewIndex(),
		locks:       newRoomLocks(cfg.LockTimeout),
		idGenerator: cfg.IDGenerator,
		now:         cfg.Now,
		location:    cfg.Location,
		hours:       cfg.OpeningHours,
		logger:      defaultLogger(cfg.Logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// OpeningHours returns the window used for free slots and occupancy.
func (s *ReservationService) OpeningHours() OpeningHours {
	return s.hours
}

// Warm rebuilds the availability index from the store's PENDING and CONFIRMED
// reservations and returns how many were loaded.
func (s *ReservationService) Warm(ctx context.Context) (loaded int, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, "Warm")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to warm availability index", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "availability index warmed", "reservations", loaded)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	var active []scheduler.Reservation
	active, err = s.store.ListReservations(ctx, ReservationFilter{
		Statuses: []scheduler.Status{scheduler.StatusPending, scheduler.StatusConfirmed},
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	s.index.Reset()
	for _, r := range active {
		s.index.Register(r)
	}
	loaded = s.index.Len()
	return
}

// Request creates a PENDING reservation. Overlapping PENDING or CONFIRMED
// reservations do not block a request; only confirmation is exclusive.
func (s *ReservationService) Request(ctx context.Context, actor scheduler.Actor, roomID string, slot scheduler.TimeSlot) (reservation scheduler.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, "Request",
		"actor_id", actor.ID,
		"room_id", roomID,
		"slot", slot.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation request failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation requested")
	}()

	if !s.guard.CanCreate(actor) {
		err = ErrUnauthorized
		return
	}
	if err = slot.Validate(); err != nil {
		return
	}
	if slot.Elapsed(s.now().In(s.location)) {
		err = fmt.Errorf("%w: %s has already ended", ErrInvalidSlot, slot)
		return
	}
	if err = s.requireRoom(ctx, roomID); err != nil {
		return
	}
	if err = s.requireUser(ctx, actor.ID); err != nil {
		return
	}

	err = s.withRoom(ctx, roomID, func() error {
		status, err := scheduler.Transition("", scheduler.EventCreate)
		if err != nil {
			return err
		}
		now := s.now()
		created := scheduler.Reservation{
			ID:          s.idGenerator(),
			RoomID:      roomID,
			RequesterID: actor.ID,
			Slot:        slot,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.store.CreateReservation(ctx, created); err != nil {
			return mapRepoError(err)
		}
		s.index.Register(created)
		reservation = created
		return nil
	})
	if err != nil {
		return
	}

	s.notify(ctx, actor, reservation)
	return
}

// Confirm moves a PENDING reservation to CONFIRMED. It fails with a
// *ConflictError when a CONFIRMED reservation already overlaps the slot.
// Overlapping PENDING requests are left untouched.
func (s *ReservationService) Confirm(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error) {
	return s.apply(ctx, "Confirm", actor, id, scheduler.EventConfirm)
}

// Reject moves a PENDING reservation to REJECTED and frees its slot.
func (s *ReservationService) Reject(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error) {
	return s.apply(ctx, "Reject", actor, id, scheduler.EventReject)
}

// Cancel moves a PENDING or CONFIRMED reservation to CANCELLED and frees its
// slot. Administrators may cancel any reservation, professors only their own.
func (s *ReservationService) Cancel(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error) {
	return s.apply(ctx, "Cancel", actor, id, scheduler.EventCancel)
}

func (s *ReservationService) apply(ctx context.Context, operation string, actor scheduler.Actor, id string, event scheduler.Event) (reservation scheduler.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"actor_id", actor.ID,
		"reservation_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation transition failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(reservation.Status)).InfoContext(ctx, "reservation transitioned")
	}()

	decides := event == scheduler.EventConfirm || event == scheduler.EventReject
	if decides && !s.guard.CanDecide(actor) {
		err = ErrUnauthorized
		return
	}
	if !decides && !s.guard.CanCreate(actor) {
		err = ErrUnauthorized
		return
	}

	// The room never changes, so it is safe to learn it before locking.
	var current scheduler.Reservation
	if current, err = s.load(ctx, id); err != nil {
		return
	}

	err = s.withRoom(ctx, current.RoomID, func() error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if event == scheduler.EventCancel && !s.guard.CanCancel(actor, current) {
			if actor.ID == current.RequesterID && current.Status.Terminal() {
				return fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, current.Status)
			}
			return ErrUnauthorized
		}

		next, err := scheduler.Transition(current.Status, event)
		if err != nil {
			return err
		}
		if next == scheduler.StatusConfirmed {
			if blocking, found := s.index.BlockingConfirmed(current.RoomID, current.Slot, current.ID); found {
				return &ConflictError{Blocking: blocking}
			}
		}

		reservation, err = s.commit(ctx, current, next)
		return err
	})
	if err != nil {
		return
	}

	s.notify(ctx, actor, reservation)
	return
}

// commit writes the new status and updates index membership as one step.
func (s *ReservationService) commit(ctx context.Context, current scheduler.Reservation, next scheduler.Status) (scheduler.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	if err := s.store.UpdateReservationStatus(ctx, current.ID, next, at); err != nil {
		return scheduler.Reservation{}, mapRepoError(err)
	}

	updated := current
	updated.Status = next
	updated.UpdatedAt = at
	switch {
	case scheduler.ReleasesSlot(current.Status, next):
		s.index.Release(updated)
	case next == scheduler.StatusConfirmed:
		if !s.index.MarkConfirmed(updated.ID, at) {
			s.index.Register(updated)
		}
	}
	return updated, nil
}

// Get returns one reservation. Professors asking for a reservation they did
// not request get ErrNotFound.
func (s *ReservationService) Get(ctx context.Context, actor scheduler.Actor, id string) (reservation scheduler.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}
	if !s.guard.CanCreate(actor) {
		err = ErrUnauthorized
		return
	}

	s.mu.RLock()
	reservation, err = s.load(ctx, id)
	s.mu.RUnlock()
	if err != nil {
		return
	}
	if !s.guard.CanView(actor, reservation) {
		reservation = scheduler.Reservation{}
		err = ErrNotFound
	}
	return
}

// ListFor returns the reservations visible to actor that match filter, ordered
// by slot then creation time. Professors only ever see their own requests.
func (s *ReservationService) ListFor(ctx context.Context, actor scheduler.Actor, filter ReservationFilter) (reservations []scheduler.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListFor", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "reservations listed", "count", len(reservations))
	}()

	if !s.guard.CanCreate(actor) {
		err = ErrUnauthorized
		return
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		vErr := &ValidationError{}
		vErr.Add("to", "must not be before from")
		err = vErr
		return
	}
	if !actor.IsAdmin() {
		filter.RequesterID = actor.ID
	}

	s.mu.RLock()
	reservations, err = s.store.ListReservations(ctx, filter)
	s.mu.RUnlock()
	if err != nil {
		err = mapRepoError(err)
		return
	}
	scheduler.SortReservations(reservations)
	return
}

// FreeSlots lists the gaps inside opening hours not covered by any PENDING or
// CONFIRMED reservation of the room on date.
func (s *ReservationService) FreeSlots(roomID string, date time.Time) []scheduler.TimeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.FreeSlots(roomID, date, s.hours.Opens, s.hours.Closes)
}

// Active returns the PENDING and CONFIRMED reservations of the room on date.
func (s *ReservationService) Active(roomID string, date time.Time) []scheduler.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	whole := scheduler.TimeSlot{Date: scheduler.DateOf(date), Start: 0, End: scheduler.MinutesPerDay}
	return s.index.ConflictsFor(roomID, whole, "")
}

// IsFree reports whether no PENDING or CONFIRMED reservation overlaps slot.
func (s *ReservationService) IsFree(roomID string, slot scheduler.TimeSlot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index.ConflictsFor(roomID, slot, "")) == 0
}

// Stats summarises date for administrators: catalog size, professors,
// reservations by status and the share of opening hours covered by CONFIRMED
// reservations across all rooms.
func (s *ReservationService) Stats(ctx context.Context, actor scheduler.Actor, date time.Time) (stats Stats, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil || s.rooms == nil {
		err = fmt.Errorf("reservation service not fully configured")
		return
	}

	logger := s.loggerWith(ctx, "Stats", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute stats", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !s.guard.CanDecide(actor) {
		err = ErrUnauthorized
		return
	}

	date = scheduler.DateOf(date)
	stats = Stats{Date: date, ByStatus: make(map[scheduler.Status]int, len(scheduler.Statuses))}
	for _, status := range scheduler.Statuses {
		stats.ByStatus[status] = 0
	}

	var rooms []Room
	if rooms, err = s.rooms.ListRooms(ctx); err != nil {
		err = mapRepoError(err)
		return
	}
	stats.Rooms = len(rooms)

	if s.users != nil {
		var users []User
		if users, err = s.users.ListUsers(ctx); err != nil {
			err = mapRepoError(err)
			return
		}
		for _, u := range users {
			if u.Role == scheduler.RoleProfessor {
				stats.Professors++
			}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var reservations []scheduler.Reservation
	reservations, err = s.store.ListReservations(ctx, ReservationFilter{From: date, To: date})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	stats.Reservations = len(reservations)
	for _, r := range reservations {
		stats.ByStatus[r.Status]++
	}

	for _, room := range rooms {
		stats.ConfirmedMinutes += s.index.ConfirmedMinutes(room.ID, date, s.hours.Opens, s.hours.Closes)
	}
	stats.OpenMinutes = s.hours.Minutes() * len(rooms)
	if stats.OpenMinutes > 0 {
		stats.OccupancyRate = float64(stats.ConfirmedMinutes) / float64(stats.OpenMinutes)
	}
	return
}

func (s *ReservationService) withRoom(ctx context.Context, roomID string, fn func() error) error {
	release, err := s.locks.acquire(ctx, roomID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (s *ReservationService) load(ctx context.Context, id string) (scheduler.Reservation, error) {
	if id == "" {
		return scheduler.Reservation{}, ErrNotFound
	}
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return scheduler.Reservation{}, mapRepoError(err)
	}
	return r, nil
}

func (s *ReservationService) requireRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: room id is required", ErrNotFound)
	}
	if s.rooms == nil {
		return nil
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func (s *ReservationService) requireUser(ctx context.Context, userID string) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// notify runs after the room lock is released. Sink failures are the sink's
// concern and never reach the caller.
func (s *ReservationService) notify(ctx context.Context, actor scheduler.Actor, r scheduler.Reservation) {
	if s.sink == nil {
		return
	}
	s.sink.Notify(context.WithoutCancel(ctx), Notification{
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		RequesterID:   r.RequesterID,
		ActorID:       actor.ID,
		Status:        r.Status,
		Slot:          r.Slot,
		OccurredAt:    r.UpdatedAt,
	})
}

// IsRetryable reports whether err is the lock-contention condition.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBusy)
}
