package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/config"
	httptransport "github.com/example/room-reservation/internal/http"
	"github.com/example/room-reservation/internal/logging"
	"github.com/example/room-reservation/internal/notify"
	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/persistence/memory"
	"github.com/example/room-reservation/internal/persistence/sqlite"
	"github.com/example/room-reservation/internal/persistence/storeadapter"
	"github.com/example/room-reservation/internal/seed"
)

const shutdownTimeout = 10 * time.Second

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		bootstrap.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("reservation API stopped", "error", err)
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled, then drains notifications and
// closes the store.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	adapter := storeadapter.New(store)

	if cfg.SeedDemo {
		result, err := seed.Demo(ctx, adapter, seed.Options{Logger: logger})
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		logger.Info("demo data ready", "users", result.Users, "rooms", result.Rooms)
	}

	sinks := []application.NotificationSink{notify.NewLogSink(logger)}
	if cfg.KafkaEnabled() {
		kafkaSink, err := notify.NewKafkaSink(notify.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, logger)
		if err != nil {
			return fmt.Errorf("configure kafka notifications: %w", err)
		}
		defer func() {
			if cerr := kafkaSink.Close(); cerr != nil {
				logger.Error("failed to close kafka writer", "error", cerr)
			}
		}()
		sinks = append(sinks, kafkaSink)
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Sinks:     sinks,
		QueueSize: cfg.NotifyQueueSize,
		Logger:    logger,
	})
	defer dispatcher.Close()

	reservations := application.NewReservationService(application.ReservationServiceConfig{
		Rooms:        adapter,
		Users:        adapter,
		Store:        adapter,
		Sink:         dispatcher,
		IDGenerator:  uuid.NewString,
		Now:          time.Now,
		Location:     cfg.Location,
		OpeningHours: application.OpeningHours{Opens: cfg.Opens, Closes: cfg.Closes},
		LockTimeout:  cfg.LockTimeout,
		Logger:       logger,
	})
	loaded, err := reservations.Warm(ctx)
	if err != nil {
		return fmt.Errorf("load availability index: %w", err)
	}
	logger.Info("availability index loaded", "active_reservations", loaded)

	auth := application.NewAuthService(application.AuthServiceConfig{
		Credentials: adapter,
		Users:       adapter,
		Verify:      application.VerifyPassword,
		Secret:      []byte(cfg.TokenSecret),
		TokenTTL:    cfg.TokenTTL,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(cfg, logger, reservations, auth, adapter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("reservation API listening", "addr", server.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown http: %w", err)
		}
		logger.Info("reservation API stopped accepting requests")
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case config.StoreSQLite, "":
		store, err := sqlite.Open(ctx, sqlite.Config{DSN: cfg.SQLiteDSN}, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func newHandler(cfg config.Config, logger *slog.Logger, reservations *application.ReservationService, auth *application.AuthService, rooms application.RoomCatalog) http.Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	today := httptransport.WithClock(func() time.Time { return time.Now().In(loc) })

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(auth, logger),
		Rooms:         httptransport.NewRoomHandler(application.NewRoomServiceWithLogger(rooms, reservations, logger), logger, today),
		Reservations:  httptransport.NewReservationHandler(reservations, logger),
		Stats:         httptransport.NewStatsHandler(reservations, logger, today),
		Authenticator: auth,
		Logger:        logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Recover(logger),
			httptransport.RequestLogger(logger),
		},
	})
}
