package scheduler

import (
	"sort"
	"strings"
	"time"
)

// Role identifies an actor's capability set.
type Role string

const (
	RoleProfessor Role = "PROFESSOR"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole accepts any casing of a known role.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleProfessor:
		return RoleProfessor, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Actor is the user performing an operation. The role is fixed for the session.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Reservation is a request for a room slot and its lifecycle status.
type Reservation struct {
	ID          string
	RoomID      string
	RequesterID string
	Slot        TimeSlot
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Less orders reservations by slot, then creation time, then id.
func Less(a, b Reservation) bool {
	if a.Slot.Before(b.Slot) {
		return true
	}
	if b.Slot.Before(a.Slot) {
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortReservations sorts in place using Less.
func SortReservations(reservations []Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		return Less(reservations[i], reservations[j])
	})
}
