package application

import (
	"context"
	"time"

	"github.com/example/room-reservation/internal/scheduler"
)

// RoomCatalog is the read-only room lookup the engine depends on.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// UserDirectory resolves user IDs to accounts.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
}

// ReservationStore persists reservations. It is the source of truth across restarts.
type ReservationStore interface {
	CreateReservation(ctx context.Context, reservation scheduler.Reservation) error
	GetReservation(ctx context.Context, id string) (scheduler.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status scheduler.Status, updatedAt time.Time) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]scheduler.Reservation, error)
}

// NotificationSink receives committed status changes. Delivery is best effort
// and never affects the outcome of the operation that produced it.
type NotificationSink interface {
	Notify(ctx context.Context, notification Notification)
}

// NotificationSinkFunc adapts a function to NotificationSink.
type NotificationSinkFunc func(ctx context.Context, notification Notification)

// Notify calls f.
func (f NotificationSinkFunc) Notify(ctx context.Context, notification Notification) {
	f(ctx, notification)
}
