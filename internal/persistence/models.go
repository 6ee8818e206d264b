package persistence

import "time"

// User is a stored account. Role holds PROFESSOR or ADMIN.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room is a stored catalog entry.
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

// Reservation is a stored booking request. Date is YYYY-MM-DD and the slot is
// kept as minutes since midnight.
type Reservation struct {
	ID          string
	RoomID      string
	RequesterID string
	Date        string
	StartMinute int
	EndMinute   int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
