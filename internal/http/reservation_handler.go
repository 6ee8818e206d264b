package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/scheduler"
)

type reservationService interface {
	Request(ctx context.Context, actor scheduler.Actor, roomID string, slot scheduler.TimeSlot) (scheduler.Reservation, error)
	Confirm(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error)
	Reject(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error)
	Cancel(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error)
	Get(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error)
	ListFor(ctx context.Context, actor scheduler.Actor, filter application.ReservationFilter) ([]scheduler.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

// List filters by status (repeatable or comma separated), room_id,
// requester_id and the inclusive from/to dates.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	query := r.URL.Query()
	vErr := &application.ValidationError{}

	filter := application.ReservationFilter{
		RoomID:      strings.TrimSpace(query.Get("room_id")),
		RequesterID: strings.TrimSpace(query.Get("requester_id")),
		Statuses:    statusesParam(query, vErr),
		From:        dateParam(query, "from", vErr),
		To:          dateParam(query, "to", vErr),
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	reservations, err := h.service.ListFor(r.Context(), actor, filter)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "reservation listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", req.RoomID)

	slot, err := scheduler.NewTimeSlot(req.Date, req.Start, req.End)
	if err != nil {
		logger.InfoContext(r.Context(), "reservation slot rejected", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	reservation, err := h.service.Request(r.Context(), actor, strings.TrimSpace(req.RoomID), slot)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", "/reservations/"+reservation.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}
	actor, _ := ActorFromContext(r.Context())

	reservation, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.transition(w, r, "Confirm", h.service.Confirm)
}

func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.transition(w, r, "Reject", h.service.Reject)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.transition(w, r, "Cancel", h.service.Cancel)
}

type transitionFunc func(ctx context.Context, actor scheduler.Actor, id string) (scheduler.Reservation, error)

func (h *ReservationHandler) transition(w http.ResponseWriter, r *http.Request, operation string, apply transitionFunc) {
	id, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}
	actor, _ := ActorFromContext(r.Context())
	logger := h.log(r.Context(), operation, "reservation_id", id)

	reservation, err := apply(r.Context(), actor, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(reservation.Status)).InfoContext(r.Context(), "reservation transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

type createReservationRequest struct {
	RoomID string `json:"room_id"`
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
}
