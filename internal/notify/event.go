// Package notify delivers committed reservation status changes to sinks
// outside the reservation critical section.
package notify

import (
	"time"

	"github.com/example/room-reservation/internal/application"
)

// Event is the wire form of an application.Notification.
type Event struct {
	ReservationID string    `json:"reservation_id"`
	RoomID        string    `json:"room_id"`
	RequesterID   string    `json:"requester_id"`
	ActorID       string    `json:"actor_id"`
	Status        string    `json:"status"`
	Date          string    `json:"date"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventFrom flattens n into its wire form.
func EventFrom(n application.Notification) Event {
	return Event{
		ReservationID: n.ReservationID,
		RoomID:        n.RoomID,
		RequesterID:   n.RequesterID,
		ActorID:       n.ActorID,
		Status:        string(n.Status),
		Date:          n.Slot.DateKey(),
		Start:         n.Slot.Start.String(),
		End:           n.Slot.End.String(),
		OccurredAt:    n.OccurredAt.UTC(),
	}
}
