package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is returned for a (status, event) pair outside the transition table.
var ErrInvalidTransition = errors.New("scheduler: invalid transition")

// Status is the lifecycle state of a reservation. The names are part of the wire contract.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusRejected, StatusCancelled}

// ParseStatus accepts any casing of a known status name.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, status := range Statuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether the status can never change again.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Occupies reports whether a reservation in this status holds index space.
func (s Status) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Event drives a transition.
type Event string

const (
	EventCreate  Event = "create"
	EventConfirm Event = "confirm"
	EventReject  Event = "reject"
	EventCancel  Event = "cancel"
)

var transitions = map[Status]map[Event]Status{
	"": {
		EventCreate: StatusPending,
	},
	StatusPending: {
		EventConfirm: StatusConfirmed,
		EventReject:  StatusRejected,
		EventCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		EventCancel: StatusCancelled,
	},
}

// Transition returns the next status for event, or ErrInvalidTransition.
func Transition(from Status, event Event) (Status, error) {
	if next, ok := transitions[from][event]; ok {
		return next, nil
	}
	if from == "" {
		return "", fmt.Errorf("%w: cannot %s a new reservation", ErrInvalidTransition, event)
	}
	return "", fmt.Errorf("%w: cannot %s a %s reservation", ErrInvalidTransition, event, from)
}

// ReleasesSlot reports whether moving from -> to removes the reservation from the index.
func ReleasesSlot(from, to Status) bool {
	return from.Occupies() && to.Terminal()
}
