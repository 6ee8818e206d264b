// Package storeadapter exposes a persistence.Store through the ports the
// application services depend on.
package storeadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/scheduler"
)

// Adapter converts between storage rows and application/scheduler types.
type Adapter struct {
	store persistence.Store
}

var (
	_ application.RoomCatalog      = (*Adapter)(nil)
	_ application.UserDirectory    = (*Adapter)(nil)
	_ application.CredentialStore  = (*Adapter)(nil)
	_ application.ReservationStore = (*Adapter)(nil)
)

// New wraps store.
func New(store persistence.Store) *Adapter {
	return &Adapter{store: store}
}

// GetRoom implements application.RoomCatalog.
func (a *Adapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.store.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

// ListRooms implements application.RoomCatalog.
func (a *Adapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	stored, err := a.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(stored))
	for _, room := range stored {
		rooms = append(rooms, toApplicationRoom(room))
	}
	return rooms, nil
}

// GetUser implements application.UserDirectory.
func (a *Adapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.store.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored)
}

// ListUsers implements application.UserDirectory.
func (a *Adapter) ListUsers(ctx context.Context) ([]application.User, error) {
	stored, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(stored))
	for _, row := range stored {
		user, err := toApplicationUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// GetUserCredentialsByEmail implements application.CredentialStore.
func (a *Adapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	user, err := toApplicationUser(stored)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{User: user, PasswordHash: stored.PasswordHash}, nil
}

// CreateUser stores a user with an already hashed password.
func (a *Adapter) CreateUser(ctx context.Context, user application.User, passwordHash string) error {
	return a.store.CreateUser(ctx, persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
}

// CreateRoom stores a catalog entry.
func (a *Adapter) CreateRoom(ctx context.Context, room application.Room) error {
	features := make([]string, len(room.Features))
	copy(features, room.Features)
	return a.store.CreateRoom(ctx, persistence.Room{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		Location:    room.Location,
		Capacity:    room.Capacity,
		Features:    features,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	})
}

// CreateReservation implements application.ReservationStore.
func (a *Adapter) CreateReservation(ctx context.Context, reservation scheduler.Reservation) error {
	return a.store.CreateReservation(ctx, toPersistenceReservation(reservation))
}

// GetReservation implements application.ReservationStore.
func (a *Adapter) GetReservation(ctx context.Context, id string) (scheduler.Reservation, error) {
	stored, err := a.store.GetReservation(ctx, id)
	if err != nil {
		return scheduler.Reservation{}, err
	}
	return toSchedulerReservation(stored)
}

// UpdateReservationStatus implements application.ReservationStore.
func (a *Adapter) UpdateReservationStatus(ctx context.Context, id string, status scheduler.Status, updatedAt time.Time) error {
	return a.store.UpdateReservationStatus(ctx, id, string(status), updatedAt)
}

// ListReservations implements application.ReservationStore.
func (a *Adapter) ListReservations(ctx context.Context, filter application.ReservationFilter) ([]scheduler.Reservation, error) {
	query := persistence.ReservationFilter{
		RoomID:      filter.RoomID,
		RequesterID: filter.RequesterID,
	}
	for _, status := range filter.Statuses {
		query.Statuses = append(query.Statuses, string(status))
	}
	if !filter.From.IsZero() {
		query.DateFrom = filter.From.Format(scheduler.DateLayout)
	}
	if !filter.To.IsZero() {
		query.DateTo = filter.To.Format(scheduler.DateLayout)
	}

	stored, err := a.store.ListReservations(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]scheduler.Reservation, 0, len(stored))
	for _, row := range stored {
		r, err := toSchedulerReservation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func toApplicationRoom(room persistence.Room) application.Room {
	features := make([]string, len(room.Features))
	copy(features, room.Features)
	return application.Room{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		Location:    room.Location,
		Capacity:    room.Capacity,
		Features:    features,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
}

func toApplicationUser(user persistence.User) (application.User, error) {
	role, ok := scheduler.ParseRole(user.Role)
	if !ok {
		return application.User{}, fmt.Errorf("storeadapter: user %s has unknown role %q", user.ID, user.Role)
	}
	return application.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        role,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}, nil
}

func toPersistenceReservation(r scheduler.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:          r.ID,
		RoomID:      r.RoomID,
		RequesterID: r.RequesterID,
		Date:        r.Slot.DateKey(),
		StartMinute: int(r.Slot.Start),
		EndMinute:   int(r.Slot.End),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toSchedulerReservation(row persistence.Reservation) (scheduler.Reservation, error) {
	date, err := scheduler.ParseDate(row.Date)
	if err != nil {
		return scheduler.Reservation{}, fmt.Errorf("storeadapter: reservation %s: %w", row.ID, err)
	}
	status, ok := scheduler.ParseStatus(row.Status)
	if !ok {
		return scheduler.Reservation{}, fmt.Errorf("storeadapter: reservation %s has unknown status %q", row.ID, row.Status)
	}
	return scheduler.Reservation{
		ID:          row.ID,
		RoomID:      row.RoomID,
		RequesterID: row.RequesterID,
		Slot: scheduler.TimeSlot{
			Date:  date,
			Start: scheduler.TimeOfDay(row.StartMinute),
			End:   scheduler.TimeOfDay(row.EndMinute),
		},
		Status:    status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
