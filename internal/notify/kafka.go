package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/room-reservation/internal/application"
)

// DefaultWriteTimeout bounds a single publish.
const DefaultWriteTimeout = 5 * time.Second

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig selects the cluster and topic status changes are published to.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaSink publishes each notification as a JSON Event keyed by room, so
// the changes of one room stay ordered within a partition.
type KafkaSink struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ application.NotificationSink = (*KafkaSink)(nil)

// NewKafkaSink builds a sink over a kafka.Writer balancing by key.
func NewKafkaSink(cfg KafkaConfig, logger *slog.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("notify: kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("notify: kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaSinkWithWriter(writer, cfg.Topic, cfg.WriteTimeout, logger), nil
}

// NewKafkaSinkWithWriter wraps an existing writer.
func NewKafkaSinkWithWriter(writer MessageWriter, topic string, timeout time.Duration, logger *slog.Logger) *KafkaSink {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{
		writer:  writer,
		topic:   topic,
		timeout: timeout,
		logger:  logger.With("component", "notify.KafkaSink", "topic", topic),
	}
}

// Notify implements application.NotificationSink. Failures are logged only.
func (s *KafkaSink) Notify(ctx context.Context, n application.Notification) {
	if err := s.Publish(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish notification",
			"reservation_id", n.ReservationID,
			"error", err,
		)
	}
}

// Publish writes one notification and reports the outcome.
func (s *KafkaSink) Publish(ctx context.Context, n application.Notification) error {
	payload, err := json.Marshal(EventFrom(n))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(n.RoomID),
		Value: payload,
		Time:  n.OccurredAt,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(n.Status)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	s.logger.DebugContext(ctx, "notification published", "reservation_id", n.ReservationID)
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
