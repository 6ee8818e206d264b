// Package sqlite is the durable persistence.Store backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/persistence/sqlite/migration"
)

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	*UserRepository
	*RoomRepository
	*ReservationRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database and applies the embedded migrations.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	migrations, err := migration.Embedded()
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlite: load migrations: %w", err)
	}
	if err := migration.Run(ctx, pool.DB(), migrations, logger); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlite: apply migrations: %w", err)
	}

	return &Store{
		UserRepository:        NewUserRepository(pool),
		RoomRepository:        NewRoomRepository(pool),
		ReservationRepository: NewReservationRepository(pool),
		pool:                  pool,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}
