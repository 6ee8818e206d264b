package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/room-reservation/internal/application"
)

// DefaultQueueSize is used when DispatcherConfig.QueueSize is not positive.
const DefaultQueueSize = 256

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Sinks     []application.NotificationSink
	QueueSize int
	Workers   int
	Logger    *slog.Logger
}

type job struct {
	ctx          context.Context
	notification application.Notification
}

// Dispatcher queues notifications and fans them out to every sink from a
// small worker pool. Notify never blocks: when the queue is full the
// notification is dropped and logged.
type Dispatcher struct {
	sinks  []application.NotificationSink
	queue  chan job
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

var _ application.NotificationSink = (*Dispatcher)(nil)

// NewDispatcher starts the workers. Call Close to drain and stop them.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		sinks:  cfg.Sinks,
		queue:  make(chan job, cfg.QueueSize),
		logger: logger.With("component", "notify.Dispatcher"),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Notify implements application.NotificationSink.
func (d *Dispatcher) Notify(ctx context.Context, n application.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WarnContext(ctx, "notification dropped after close", "reservation_id", n.ReservationID)
		return
	}
	select {
	case d.queue <- job{ctx: ctx, notification: n}:
	default:
		d.logger.WarnContext(ctx, "notification queue full, dropping",
			"reservation_id", n.ReservationID,
			"status", string(n.Status),
		)
	}
}

// Close stops accepting notifications and waits until the queued ones are delivered.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.queue {
		for _, sink := range d.sinks {
			d.deliver(j, sink)
		}
	}
}

func (d *Dispatcher) deliver(j job, sink application.NotificationSink) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification sink panicked", "reservation_id", j.notification.ReservationID, "panic", r)
		}
	}()
	sink.Notify(j.ctx, j.notification)
}
