package notify

import (
	"context"
	"log/slog"

	"github.com/example/room-reservation/internal/application"
)

// LogSink writes every notification as a structured log line.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging through logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "notify.LogSink")}
}

// Notify implements application.NotificationSink.
func (s *LogSink) Notify(ctx context.Context, n application.Notification) {
	s.logger.InfoContext(ctx, "reservation status changed",
		"reservation_id", n.ReservationID,
		"room_id", n.RoomID,
		"requester_id", n.RequesterID,
		"actor_id", n.ActorID,
		"status", string(n.Status),
		"slot", n.Slot.String(),
	)
}
