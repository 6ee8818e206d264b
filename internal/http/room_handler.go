package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/scheduler"
)

type roomService interface {
	GetRoom(ctx context.Context, actor scheduler.Actor, roomID string) (application.Room, error)
	SearchRooms(ctx context.Context, actor scheduler.Actor, search application.RoomSearch) ([]application.Room, error)
	Availability(ctx context.Context, actor scheduler.Actor, roomID string, date time.Time) (application.RoomAvailability, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
	opts      handlerOptions
}

func NewRoomHandler(service roomService, logger *slog.Logger, opts ...HandlerOption) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base, opts: buildOptions(opts)}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

// List searches the catalog with q, location, min_capacity, feature and an
// optional date/start/end slot the rooms must be free for.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	query := r.URL.Query()
	vErr := &application.ValidationError{}

	search := application.RoomSearch{
		Query:       strings.TrimSpace(query.Get("q")),
		Location:    strings.TrimSpace(query.Get("location")),
		Feature:     strings.TrimSpace(query.Get("feature")),
		MinCapacity: intParam(query, "min_capacity", vErr),
	}
	slot, err := slotParam(query, vErr)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	search.Slot = slot

	rooms, err := h.service.SearchRooms(r.Context(), actor, search)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "room search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		payload = append(payload, toRoomDTO(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomListResponse{Rooms: payload})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}
	actor, _ := ActorFromContext(r.Context())

	room, err := h.service.GetRoom(r.Context(), actor, roomID)
	if err != nil {
		h.log(r.Context(), "Get", "room_id", roomID).ErrorContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

// Availability returns the free gaps and active reservations of a room on
// ?date=, defaulting to today.
func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}
	actor, _ := ActorFromContext(r.Context())

	vErr := &application.ValidationError{}
	date := dateParam(r.URL.Query(), "date", vErr)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	if date.IsZero() {
		date = h.opts.now()
	}

	result, err := h.service.Availability(r.Context(), actor, roomID, date)
	if err != nil {
		h.log(r.Context(), "Availability", "room_id", roomID).ErrorContext(r.Context(), "availability lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	free := make([]slotDTO, 0, len(result.Free))
	for _, slot := range result.Free {
		free = append(free, toSlotDTO(slot))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Room:         toRoomDTO(result.Room),
		Date:         result.Date.Format(scheduler.DateLayout),
		Free:         free,
		Reservations: toReservationDTOs(result.Reservations),
	})
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type roomListResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type availabilityResponse struct {
	Room         roomDTO          `json:"room"`
	Date         string           `json:"date"`
	Free         []slotDTO        `json:"free"`
	Reservations []reservationDTO `json:"reservations"`
}
