package persistence

import (
	"context"
	"time"
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// RoomRepository stores the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// ReservationFilter narrows reservation queries. Empty fields match everything;
// DateFrom and DateTo are inclusive YYYY-MM-DD bounds.
type ReservationFilter struct {
	RoomID      string
	RequesterID string
	Statuses    []string
	DateFrom    string
	DateTo      string
}

// ReservationRepository stores reservations. Rows are never deleted.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservationStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// Store bundles every repository behind one handle.
type Store interface {
	UserRepository
	RoomRepository
	ReservationRepository
	Close() error
}

// Matches reports whether r satisfies the filter.
func (f ReservationFilter) Matches(r Reservation) bool {
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	if f.DateFrom != "" && r.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && r.Date > f.DateTo {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, status := range f.Statuses {
			if status == r.Status {
				return true
			}
		}
		return false
	}
	return true
}
