package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/scheduler"
)

// AvailabilityView answers occupancy questions from the availability index.
// ReservationService implements it.
type AvailabilityView interface {
	FreeSlots(roomID string, date time.Time) []scheduler.TimeSlot
	Active(roomID string, date time.Time) []scheduler.Reservation
	IsFree(roomID string, slot scheduler.TimeSlot) bool
}

// RoomService serves catalog searches and per-room availability.
type RoomService struct {
	rooms        RoomCatalog
	availability AvailabilityView
	logger       *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomCatalog, availability AvailabilityView) *RoomService {
	return NewRoomServiceWithLogger(rooms, availability, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomCatalog, availability AvailabilityView, logger *slog.Logger) *RoomService {
	return &RoomService{rooms: rooms, availability: availability, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// GetRoom returns a single room for any authenticated actor.
func (s *RoomService) GetRoom(ctx context.Context, actor scheduler.Actor, roomID string) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room catalog not configured")
		return
	}
	if !(scheduler.Guard{}).CanCreate(actor) {
		err = ErrUnauthorized
		return
	}

	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// SearchRooms filters the catalog. Text matches name or description, location
// and feature match ignoring case, and a slot keeps only rooms free for it.
func (s *RoomService) SearchRooms(ctx context.Context, actor scheduler.Actor, search RoomSearch) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "SearchRooms",
		"actor_id", actor.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to search rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	if !(scheduler.Guard{}).CanCreate(actor) {
		err = ErrUnauthorized
		return
	}
	if vErr := validateRoomSearch(search); vErr.HasErrors() {
		err = vErr
		return
	}

	var all []Room
	all, err = s.rooms.ListRooms(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	query := strings.ToLower(strings.TrimSpace(search.Query))
	location := strings.ToLower(strings.TrimSpace(search.Location))

	rooms = make([]Room, 0, len(all))
	for _, room := range all {
		if query != "" &&
			!strings.Contains(strings.ToLower(room.Name), query) &&
			!strings.Contains(strings.ToLower(room.Description), query) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(room.Location), location) {
			continue
		}
		if search.MinCapacity > 0 && room.Capacity < search.MinCapacity {
			continue
		}
		if strings.TrimSpace(search.Feature) != "" && !room.HasFeature(search.Feature) {
			continue
		}
		if search.Slot != nil && s.availability != nil && !s.availability.IsFree(room.ID, *search.Slot) {
			continue
		}
		rooms = append(rooms, room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})
	return
}

// Availability returns a room's free gaps within opening hours and its active
// reservations on date.
func (s *RoomService) Availability(ctx context.Context, actor scheduler.Actor, roomID string, date time.Time) (result RoomAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.availability == nil {
		err = fmt.Errorf("availability view not configured")
		return
	}

	var room Room
	if room, err = s.GetRoom(ctx, actor, roomID); err != nil {
		return
	}

	date = scheduler.DateOf(date)
	result = RoomAvailability{
		Room:         room,
		Date:         date,
		Free:         s.availability.FreeSlots(roomID, date),
		Reservations: s.availability.Active(roomID, date),
	}
	return
}

func validateRoomSearch(search RoomSearch) *ValidationError {
	vErr := &ValidationError{}

	if search.MinCapacity < 0 {
		vErr.Add("min_capacity", "min_capacity must not be negative")
	}
	if search.Slot != nil {
		if err := search.Slot.Validate(); err != nil {
			vErr.Add("slot", err.Error())
		}
	}

	return vErr
}
