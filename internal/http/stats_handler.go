package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/scheduler"
)

type statsService interface {
	Stats(ctx context.Context, actor scheduler.Actor, date time.Time) (application.Stats, error)
}

type StatsHandler struct {
	service   statsService
	responder responder
	logger    *slog.Logger
	opts      handlerOptions
}

func NewStatsHandler(service statsService, logger *slog.Logger, opts ...HandlerOption) *StatsHandler {
	base := defaultLogger(logger)
	return &StatsHandler{service: service, responder: newResponder(base), logger: base, opts: buildOptions(opts)}
}

// Get serves the administrator dashboard figures for ?date=, defaulting to today.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
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

	stats, err := h.service.Stats(r.Context(), actor, date)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "StatsHandler", "Get").ErrorContext(r.Context(), "stats failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, statsResponse{
		Date:             stats.Date.Format(scheduler.DateLayout),
		Rooms:            stats.Rooms,
		Professors:       stats.Professors,
		Reservations:     stats.Reservations,
		ByStatus:         byStatus,
		ConfirmedMinutes: stats.ConfirmedMinutes,
		OpenMinutes:      stats.OpenMinutes,
		OccupancyRate:    stats.OccupancyRate,
	})
}

type statsResponse struct {
	Date             string         `json:"date"`
	Rooms            int            `json:"rooms"`
	Professors       int            `json:"professors"`
	Reservations     int            `json:"reservations"`
	ByStatus         map[string]int `json:"by_status"`
	ConfirmedMinutes int            `json:"confirmed_minutes"`
	OpenMinutes      int            `json:"open_minutes"`
	OccupancyRate    float64        `json:"occupancy_rate"`
}
