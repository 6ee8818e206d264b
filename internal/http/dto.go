package http

import (
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/scheduler"
)

type slotDTO struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSlotDTO(slot scheduler.TimeSlot) slotDTO {
	return slotDTO{Date: slot.DateKey(), Start: slot.Start.String(), End: slot.End.String()}
}

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName, Role: string(user.Role)}
}

type roomDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	Features    []string `json:"features"`
}

func toRoomDTO(room application.Room) roomDTO {
	features := room.Features
	if features == nil {
		features = []string{}
	}
	return roomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		Location:    room.Location,
		Capacity:    room.Capacity,
		Features:    features,
	}
}

type reservationDTO struct {
	ID          string `json:"id"`
	RoomID      string `json:"room_id"`
	RequesterID string `json:"requester_id"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toReservationDTO(r scheduler.Reservation) reservationDTO {
	return reservationDTO{
		ID:          r.ID,
		RoomID:      r.RoomID,
		RequesterID: r.RequesterID,
		Date:        r.Slot.DateKey(),
		Start:       r.Slot.Start.String(),
		End:         r.Slot.End.String(),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toReservationDTOs(list []scheduler.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationDTO(r))
	}
	return out
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type reservationListResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}
