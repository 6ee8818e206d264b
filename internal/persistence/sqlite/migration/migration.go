// Package migration applies the versioned SQL files embedded in the binary to a
// SQLite database and records each applied version in schema_migrations.
package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed sql/*.sql
var embedded embed.FS

var (
	// ErrInvalidFileName reports a file that does not follow {version}_{description}.sql.
	ErrInvalidFileName = errors.New("migration: invalid file name")
	// ErrDuplicateVersion reports two files sharing a version number.
	ErrDuplicateVersion = errors.New("migration: duplicate version")
	// ErrChecksumMismatch reports an applied migration whose file content changed.
	ErrChecksumMismatch = errors.New("migration: checksum mismatch")
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Migration is one versioned SQL file.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Embedded returns the migrations compiled into the binary.
func Embedded() ([]Migration, error) {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		return nil, err
	}
	return Scan(sub)
}

// Scan reads every *.sql file at the root of fsys, sorted by numeric version.
func Scan(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: read directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFileName, entry.Name())
		}
		if existing, ok := seen[match[1]]; ok {
			return nil, fmt.Errorf("%w: %s in %s and %s", ErrDuplicateVersion, match[1], existing, entry.Name())
		}
		seen[match[1]] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration: read %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			Version:     match[1],
			Description: strings.ReplaceAll(match[2], "_", " "),
			SQL:         string(content),
			FilePath:    path.Clean(entry.Name()),
			Checksum:    fmt.Sprintf("%x", sum),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		vi, _ := strconv.Atoi(migrations[i].Version)
		vj, _ := strconv.Atoi(migrations[j].Version)
		return vi < vj
	})
	return migrations, nil
}

// Run applies every migration not yet recorded, each inside its own transaction.
// An applied migration whose checksum differs from the file aborts the run.
func Run(ctx context.Context, db *sql.DB, migrations []Migration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := initVersionTable(ctx, db); err != nil {
		return err
	}
	applied, err := Applied(ctx, db)
	if err != nil {
		return err
	}
	checksums := make(map[string]string, len(applied))
	for _, a := range applied {
		checksums[a.Version] = a.Checksum
	}

	for _, m := range migrations {
		if sum, ok := checksums[m.Version]; ok {
			if sum != "" && sum != m.Checksum {
				return fmt.Errorf("%w: version %s", ErrChecksumMismatch, m.Version)
			}
			continue
		}
		logger.Info("applying migration", "version", m.Version, "description", m.Description)
		if err := execute(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

// Applied lists recorded migrations ordered by version.
func Applied(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("migration: list applied: %w", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var (
			a         AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&a.Version, &appliedAt, &elapsedMs, &a.Checksum); err != nil {
			return nil, fmt.Errorf("migration: scan applied: %w", err)
		}
		a.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		a.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}

func initVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)
	`)
	if err != nil {
		return fmt.Errorf("migration: create version table: %w", err)
	}
	return nil
}

func execute(ctx context.Context, db *sql.DB, m Migration) (err error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return fmt.Errorf("migration %s: no SQL statements", m.Version)
	}

	started := time.Now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: begin: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s: statement %d: %w", m.Version, i+1, err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version, time.Now().UTC().Format(time.RFC3339), m.Checksum, time.Since(started).Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("migration %s: record version: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("migration %s: commit: %w", m.Version, err)
	}
	return nil
}

// splitStatements splits on semicolons and drops comment-only lines.
func splitStatements(content string) []string {
	var out []string
	for _, stmt := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, "\n"))
		}
	}
	return out
}
