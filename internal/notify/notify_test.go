package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/scheduler"
)

func sampleNotification(t *testing.T, id string) application.Notification {
	t.Helper()
	slot, err := scheduler.NewTimeSlot("2025-04-25", "14:00", "16:00")
	require.NoError(t, err)
	return application.Notification{
		ReservationID: id,
		RoomID:        "room-r",
		RequesterID:   "p1",
		ActorID:       "admin",
		Status:        scheduler.StatusConfirmed,
		Slot:          slot,
		OccurredAt:    time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC),
	}
}

type collectingSink struct {
	mu   sync.Mutex
	ids  []string
	gate chan struct{}
}

func (s *collectingSink) Notify(ctx context.Context, n application.Notification) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.ids = append(s.ids, n.ReservationID)
	s.mu.Unlock()
}

func (s *collectingSink) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestDispatcherDeliversToEverySinkInOrder(t *testing.T) {
	first, second := &collectingSink{}, &collectingSink{}
	d := NewDispatcher(DispatcherConfig{Sinks: []application.NotificationSink{first, second}})

	for _, id := range []string{"a", "b", "c"} {
		d.Notify(context.Background(), sampleNotification(t, id))
	}
	d.Close()

	assert.Equal(t, []string{"a", "b", "c"}, first.IDs())
	assert.Equal(t, []string{"a", "b", "c"}, second.IDs())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	var logs bytes.Buffer
	sink := &collectingSink{gate: make(chan struct{})}
	d := NewDispatcher(DispatcherConfig{
		Sinks:     []application.NotificationSink{sink},
		QueueSize: 1,
		Logger:    quietLogger(&logs),
	})

	d.Notify(context.Background(), sampleNotification(t, "in-flight"))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	d.Notify(context.Background(), sampleNotification(t, "queued"))
	d.Notify(context.Background(), sampleNotification(t, "dropped"))

	close(sink.gate)
	d.Close()

	assert.Equal(t, []string{"in-flight", "queued"}, sink.IDs())
	assert.Contains(t, logs.String(), "notification queue full")
}

func TestDispatcherIgnoresNotifyAfterClose(t *testing.T) {
	var logs bytes.Buffer
	sink := &collectingSink{}
	d := NewDispatcher(DispatcherConfig{Sinks: []application.NotificationSink{sink}, Logger: quietLogger(&logs)})
	d.Close()
	d.Close()

	d.Notify(context.Background(), sampleNotification(t, "late"))
	assert.Empty(t, sink.IDs())
	assert.Contains(t, logs.String(), "dropped after close")
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	var logs bytes.Buffer
	after := &collectingSink{}
	boom := application.NotificationSinkFunc(func(context.Context, application.Notification) { panic("boom") })
	d := NewDispatcher(DispatcherConfig{
		Sinks:  []application.NotificationSink{boom, after},
		Logger: quietLogger(&logs),
	})
	d.Notify(context.Background(), sampleNotification(t, "x"))
	d.Close()

	assert.Equal(t, []string{"x"}, after.IDs())
	assert.Contains(t, logs.String(), "panicked")
}

func TestLogSink(t *testing.T) {
	var logs bytes.Buffer
	NewLogSink(quietLogger(&logs)).Notify(context.Background(), sampleNotification(t, "r1"))
	out := logs.String()
	assert.Contains(t, out, "reservation status changed")
	assert.Contains(t, out, "reservation_id=r1")
	assert.Contains(t, out, "status=CONFIRMED")
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
	deadline bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSinkPublishesJSONKeyedByRoom(t *testing.T) {
	writer := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(writer, "reservations", 0, nil)

	require.NoError(t, sink.Publish(context.Background(), sampleNotification(t, "r1")))
	require.Len(t, writer.messages, 1)
	assert.True(t, writer.deadline)

	msg := writer.messages[0]
	assert.Equal(t, "room-r", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "CONFIRMED", string(msg.Headers[0].Value))

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, Event{
		ReservationID: "r1",
		RoomID:        "room-r",
		RequesterID:   "p1",
		ActorID:       "admin",
		Status:        "CONFIRMED",
		Date:          "2025-04-25",
		Start:         "14:00",
		End:           "16:00",
		OccurredAt:    time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC),
	}, event)

	require.NoError(t, sink.Close())
	assert.True(t, writer.closed)
}

func TestKafkaSinkLogsFailures(t *testing.T) {
	var logs bytes.Buffer
	writer := &fakeWriter{err: errors.New("broker down")}
	sink := NewKafkaSinkWithWriter(writer, "reservations", time.Second, quietLogger(&logs))

	assert.Error(t, sink.Publish(context.Background(), sampleNotification(t, "r1")))
	sink.Notify(context.Background(), sampleNotification(t, "r2"))
	assert.Contains(t, logs.String(), "failed to publish notification")
	assert.Contains(t, logs.String(), "broker down")
}

func TestNewKafkaSinkValidatesConfig(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{Topic: "t"}, nil)
	assert.Error(t, err)
	_, err = NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)

	sink, err := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "reservations"}, nil)
	require.NoError(t, err)
	assert.NoError(t, sink.Close())
}
