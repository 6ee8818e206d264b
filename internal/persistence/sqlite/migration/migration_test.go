package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrations.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestScan(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql": {Data: []byte("CREATE INDEX idx_a ON a (name);")},
		"001_create_a.sql":  {Data: []byte("-- first\nCREATE TABLE a (id TEXT PRIMARY KEY, name TEXT);")},
		"010_later.sql":     {Data: []byte("CREATE TABLE c (id TEXT);")},
		"README.md":         {Data: []byte("ignored")},
	}

	migrations, err := Scan(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "create a", migrations[0].Description)
	assert.Equal(t, "002", migrations[1].Version)
	assert.Equal(t, "010", migrations[2].Version)
	assert.Len(t, migrations[0].Checksum, 64)
}

func TestScanRejectsBadNames(t *testing.T) {
	t.Run("invalid name", func(t *testing.T) {
		_, err := Scan(fstest.MapFS{"create.sql": {Data: []byte("SELECT 1;")}})
		assert.ErrorIs(t, err, ErrInvalidFileName)
	})
	t.Run("duplicate version", func(t *testing.T) {
		_, err := Scan(fstest.MapFS{
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"001_b.sql": {Data: []byte("SELECT 2;")},
		})
		assert.ErrorIs(t, err, ErrDuplicateVersion)
	})
}

func TestRunAppliesOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	migrations, err := Embedded()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	require.NoError(t, Run(ctx, db, migrations, nil))
	require.NoError(t, Run(ctx, db, migrations, nil))

	applied, err := Applied(ctx, db)
	require.NoError(t, err)
	require.Len(t, applied, len(migrations))
	assert.Equal(t, migrations[0].Checksum, applied[0].Checksum)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&count))
	assert.Zero(t, count)
}

func TestRunDetectsEditedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	original, err := Scan(fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}})
	require.NoError(t, err)
	require.NoError(t, Run(ctx, db, original, nil))

	edited, err := Scan(fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT, name TEXT);")}})
	require.NoError(t, err)
	assert.ErrorIs(t, Run(ctx, db, edited, nil), ErrChecksumMismatch)
}

func TestRunRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	broken, err := Scan(fstest.MapFS{"001_broken.sql": {Data: []byte("CREATE TABLE ok (id TEXT);\nCREATE TABLE ok (id TEXT);")}})
	require.NoError(t, err)
	require.Error(t, Run(ctx, db, broken, nil))

	applied, err := Applied(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'ok'`).Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("-- header\nCREATE TABLE a (id TEXT);\n\n-- only comment;\nCREATE TABLE b (id TEXT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE TABLE b (id TEXT)"}, got)
}
