// Package sqlite provides the persistent artifact index for mtforge.
// Uses WAL mode for crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/mtforge/mtforge/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the database at dir/state.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// modernc.org/sqlite takes pragmas as _pragma=name(value); the
	// mattn-style _journal_mode=... params are silently ignored by it.
	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			pair         TEXT PRIMARY KEY,
			model_name   TEXT NOT NULL,
			size_bytes   INTEGER NOT NULL,
			quantized    BOOLEAN NOT NULL DEFAULT 0,
			converted_at INTEGER NOT NULL,
			optimized_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_converted ON artifacts(converted_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Artifact Repository ────────────────────────────────────────────────────

// UpsertArtifact inserts or updates an artifact row.
func (d *DB) UpsertArtifact(info domain.ArtifactInfo) error {
	_, err := d.db.Exec(
		`INSERT INTO artifacts (pair, model_name, size_bytes, quantized, converted_at, optimized_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pair) DO UPDATE SET
			model_name=excluded.model_name,
			size_bytes=excluded.size_bytes,
			quantized=excluded.quantized,
			converted_at=excluded.converted_at,
			optimized_at=excluded.optimized_at`,
		info.Pair, info.ModelName, info.SizeBytes, info.Quantized,
		info.ConvertedAt.Unix(), nullableUnix(info.OptimizedAt),
	)
	return err
}

// GetArtifact retrieves a single artifact row by pair key.
func (d *DB) GetArtifact(pair string) (*domain.ArtifactInfo, error) {
	row := d.db.QueryRow(
		`SELECT pair, model_name, size_bytes, quantized, converted_at, optimized_at
		 FROM artifacts WHERE pair = ?`, pair,
	)
	return scanArtifact(row)
}

// ListArtifacts returns all converted pairs ordered by pair key.
func (d *DB) ListArtifacts() ([]domain.ArtifactInfo, error) {
	rows, err := d.db.Query(
		`SELECT pair, model_name, size_bytes, quantized, converted_at, optimized_at
		 FROM artifacts ORDER BY pair`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []domain.ArtifactInfo
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}

// DeleteArtifact removes an artifact row.
func (d *DB) DeleteArtifact(pair string) error {
	result, err := d.db.Exec(`DELETE FROM artifacts WHERE pair = ?`, pair)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrArtifactNotFound
	}
	return nil
}

// MarkOptimized updates the optimized timestamp and new size after an
// optimize sweep touched a pair.
func (d *DB) MarkOptimized(pair string, sizeBytes int64, at time.Time) error {
	_, err := d.db.Exec(
		`UPDATE artifacts SET optimized_at = ?, size_bytes = ? WHERE pair = ?`,
		at.Unix(), sizeBytes, pair,
	)
	return err
}

// TotalSizeBytes returns the summed artifact size across all pairs.
func (d *DB) TotalSizeBytes() (int64, error) {
	var total sql.NullInt64
	err := d.db.QueryRow(`SELECT SUM(size_bytes) FROM artifacts`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(s scanner) (*domain.ArtifactInfo, error) {
	var a domain.ArtifactInfo
	var convertedAt int64
	var optimizedAt sql.NullInt64

	err := s.Scan(&a.Pair, &a.ModelName, &a.SizeBytes, &a.Quantized,
		&convertedAt, &optimizedAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	a.ConvertedAt = time.Unix(convertedAt, 0)
	if optimizedAt.Valid {
		a.OptimizedAt = time.Unix(optimizedAt.Int64, 0)
	}
	return &a, nil
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
