package application

import (
	"strings"
	"time"

	"github.com/example/room-reservation/internal/scheduler"
)

// User is an account known to the engine.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        scheduler.Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Actor returns the identity the engine authorizes against.
func (u User) Actor() scheduler.Actor {
	return scheduler.Actor{ID: u.ID, Role: u.Role}
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Room is a bookable catalog entry. The engine never mutates rooms.
type Room struct {
	ID          string
	Name        string
	Description string
	Location    string
	Capacity    int
	Features    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasFeature reports whether the room carries the tag, ignoring case.
func (r Room) HasFeature(feature string) bool {
	feature = strings.TrimSpace(feature)
	for _, f := range r.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

// ReservationFilter narrows ListFor. Zero values match everything; From and To
// are inclusive calendar dates.
type ReservationFilter struct {
	RoomID      string
	RequesterID string
	Statuses    []scheduler.Status
	From        time.Time
	To          time.Time
}

// Notification describes a committed status change.
type Notification struct {
	ReservationID string
	RoomID        string
	RequesterID   string
	ActorID       string
	Status        scheduler.Status
	Slot          scheduler.TimeSlot
	OccurredAt    time.Time
}

// OpeningHours bounds free-slot listings and occupancy statistics.
type OpeningHours struct {
	Opens  scheduler.TimeOfDay
	Closes scheduler.TimeOfDay
}

// Minutes is the length of the opening window.
func (h OpeningHours) Minutes() int {
	if h.Closes <= h.Opens {
		return 0
	}
	return int(h.Closes - h.Opens)
}

// DefaultOpeningHours is 08:00 to 19:00.
var DefaultOpeningHours = OpeningHours{Opens: 8 * 60, Closes: 19 * 60}

// RoomSearch filters the room catalog. When Slot is set only rooms with no
// PENDING or CONFIRMED reservation overlapping it are returned.
type RoomSearch struct {
	Query       string
	Location    string
	MinCapacity int
	Feature     string
	Slot        *scheduler.TimeSlot
}

// RoomAvailability lists a room's free gaps and active reservations on a date.
type RoomAvailability struct {
	Room         Room
	Date         time.Time
	Free         []scheduler.TimeSlot
	Reservations []scheduler.Reservation
}

// Stats summarises one day for the administrator dashboard.
type Stats struct {
	Date             time.Time
	Rooms            int
	Professors       int
	Reservations     int
	ByStatus         map[scheduler.Status]int
	ConfirmedMinutes int
	OpenMinutes      int
	OccupancyRate    float64
}

// LoginResult carries a freshly issued session token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}
