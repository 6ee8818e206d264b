package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/persistence/storetest"
)

func openTestStore(t *testing.T, dsn string) *Store {
	t.Helper()
	store, err := Open(context.Background(), Config{DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return openTestStore(t, filepath.Join(t.TempDir(), "reservations.db"))
	})
}

func TestStoreInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return openTestStore(t, ":memory:")
	})
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")
	at := time.Date(2025, 4, 20, 9, 0, 0, 123456789, time.UTC)

	first, err := Open(ctx, Config{DSN: path}, nil)
	require.NoError(t, err)
	require.NoError(t, first.CreateRoom(ctx, persistence.Room{ID: "r1", Name: "Salle A101", Capacity: 30, CreatedAt: at, UpdatedAt: at}))
	require.NoError(t, first.Close())

	second := openTestStore(t, path)
	room, err := second.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, at.Equal(room.CreatedAt))
	assert.Empty(t, room.Features)
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t,
		"file.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		buildDSN(Config{DSN: "file.db"}))
	assert.Equal(t,
		":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(250)",
		buildDSN(Config{DSN: ":memory:", BusyTimeout: 250 * time.Millisecond}))
	assert.Equal(t,
		"file:x.db?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		buildDSN(Config{DSN: "file:x.db?cache=shared"}))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{}, nil)
	assert.Error(t, err)
}
