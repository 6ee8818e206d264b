package testfixtures

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/persistence/memory"
	"github.com/example/room-reservation/internal/persistence/storeadapter"
	"github.com/example/room-reservation/internal/scheduler"
)

// Password is the password of every user created through an Engine.
const Password = "password"

// TokenSecret signs the tokens an Engine issues.
const TokenSecret = "test-secret"

// FastPasswordParams keeps argon2id cheap in tests.
var FastPasswordParams = application.PasswordParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// RecordingSink keeps every notification it receives.
type RecordingSink struct {
	mu     sync.Mutex
	events []application.Notification
}

// Notify implements application.NotificationSink.
func (s *RecordingSink) Notify(ctx context.Context, n application.Notification) {
	s.mu.Lock()
	s.events = append(s.events, n)
	s.mu.Unlock()
}

// Events returns a copy of what was recorded so far.
func (s *RecordingSink) Events() []application.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.Notification, len(s.events))
	copy(out, s.events)
	return out
}

// Engine wires the real services over a store for end-to-end tests.
type Engine struct {
	Clock   *Clock
	IDs     *IDGenerator
	Store   persistence.Store
	Adapter *storeadapter.Adapter
	Sink    *RecordingSink

	Reservations *application.ReservationService
	Rooms        *application.RoomService
	Auth         *application.AuthService

	entities *IDGenerator
}

type engineConfig struct {
	clock       *Clock
	ids         *IDGenerator
	store       persistence.Store
	lockTimeout time.Duration
	location    *time.Location
	logger      *slog.Logger
}

// EngineOption configures NewEngine.
type EngineOption func(*engineConfig)

// WithClock overrides the clock used by the services.
func WithClock(clock *Clock) EngineOption {
	return func(cfg *engineConfig) { cfg.clock = clock }
}

// WithIDGenerator overrides the reservation identifier generator.
func WithIDGenerator(generator *IDGenerator) EngineOption {
	return func(cfg *engineConfig) { cfg.ids = generator }
}

// WithStore replaces the default in-memory store.
func WithStore(store persistence.Store) EngineOption {
	return func(cfg *engineConfig) { cfg.store = store }
}

// WithLockTimeout overrides the per-room lock wait.
func WithLockTimeout(d time.Duration) EngineOption {
	return func(cfg *engineConfig) { cfg.lockTimeout = d }
}

// WithLocation sets the timezone slots are interpreted in.
func WithLocation(loc *time.Location) EngineOption {
	return func(cfg *engineConfig) { cfg.location = loc }
}

// WithLogger routes service logs to logger instead of discarding them.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(cfg *engineConfig) { cfg.logger = logger }
}

// NewEngine builds the services over an in-memory store unless WithStore is
// given. The clock ticks one millisecond per read.
func NewEngine(tb testing.TB, opts ...EngineOption) *Engine {
	tb.Helper()

	cfg := engineConfig{
		clock:       NewTickingClock(time.Time{}, time.Millisecond),
		ids:         NewIDGenerator("res"),
		lockTimeout: time.Second,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}

	adapter := storeadapter.New(cfg.store)
	sink := &RecordingSink{}
	reservations := application.NewReservationService(application.ReservationServiceConfig{
		Rooms:       adapter,
		Users:       adapter,
		Store:       adapter,
		Sink:        sink,
		IDGenerator: cfg.ids.NextFunc(),
		Now:         cfg.clock.NowFunc(),
		Location:    cfg.location,
		LockTimeout: cfg.lockTimeout,
		Logger:      cfg.logger,
	})
	if _, err := reservations.Warm(context.Background()); err != nil {
		tb.Fatalf("failed to warm availability index: %v", err)
	}

	return &Engine{
		Clock:        cfg.clock,
		IDs:          cfg.ids,
		Store:        cfg.store,
		Adapter:      adapter,
		Sink:         sink,
		Reservations: reservations,
		Rooms:        application.NewRoomServiceWithLogger(adapter, reservations, cfg.logger),
		Auth: application.NewAuthService(application.AuthServiceConfig{
			Credentials: adapter,
			Users:       adapter,
			Secret:      []byte(TokenSecret),
			Now:         cfg.clock.NowFunc(),
			Logger:      cfg.logger,
		}),
		entities: NewIDGenerator("entity"),
	}
}

// AddRoom stores a room and returns it.
func (e *Engine) AddRoom(tb testing.TB, name string, capacity int, features ...string) application.Room {
	tb.Helper()
	now := e.Clock.Current()
	room := application.Room{
		ID:        e.entities.Next(),
		Name:      name,
		Location:  "Bâtiment Central",
		Capacity:  capacity,
		Features:  features,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Adapter.CreateRoom(context.Background(), room); err != nil {
		tb.Fatalf("failed to create room %s: %v", name, err)
	}
	return room
}

// AddUser stores a user whose password is Password and returns its actor.
func (e *Engine) AddUser(tb testing.TB, displayName string, role scheduler.Role) scheduler.Actor {
	tb.Helper()
	hash, err := application.CreatePasswordHash(Password, FastPasswordParams)
	if err != nil {
		tb.Fatalf("failed to hash password: %v", err)
	}
	id := e.entities.Next()
	now := e.Clock.Current()
	user := application.User{
		ID:          id,
		Email:       fmt.Sprintf("%s@university.fr", id),
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.Adapter.CreateUser(context.Background(), user, hash); err != nil {
		tb.Fatalf("failed to create user %s: %v", displayName, err)
	}
	return user.Actor()
}

// Professor is AddUser with the PROFESSOR role.
func (e *Engine) Professor(tb testing.TB, displayName string) scheduler.Actor {
	tb.Helper()
	return e.AddUser(tb, displayName, scheduler.RoleProfessor)
}

// Admin is AddUser with the ADMIN role.
func (e *Engine) Admin(tb testing.TB, displayName string) scheduler.Actor {
	tb.Helper()
	return e.AddUser(tb, displayName, scheduler.RoleAdmin)
}

// Token logs actor in and returns the session token.
func (e *Engine) Token(tb testing.TB, actor scheduler.Actor) string {
	tb.Helper()
	result, err := e.Auth.Login(context.Background(), actor.ID+"@university.fr", Password)
	if err != nil {
		tb.Fatalf("failed to log in %s: %v", actor.ID, err)
	}
	return result.Token
}

// Slot parses a slot or fails the test.
func Slot(tb testing.TB, date, start, end string) scheduler.TimeSlot {
	tb.Helper()
	slot, err := scheduler.NewTimeSlot(date, start, end)
	if err != nil {
		tb.Fatalf("invalid slot %s %s-%s: %v", date, start, end, err)
	}
	return slot
}
