/*
Package sqlite provides a SQLite-backed implementation of synth.RunStore.

PURPOSE:
  Keeps every synthesis run as an immutable snapshot: the run record (seed,
  canonical profile JSON, counts) and the five CSV artifacts it produced.
  Any stored run can be downloaded again or reproduced byte-for-byte from
  its seed and profile.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on runs or artifacts
  - No DELETE statements on runs or artifacts
  - Saving an existing run id fails with synth.ErrDuplicateRun

KEY TABLES:
  runs:      One row per run, keyed by run id
  artifacts: One row per (run, artifact name), ordered by seq

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Writes are serialized; reads share
  the lock.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/shelf.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  runner := pipeline.NewRunner(logger, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - synth/store.go: Interface definition
  - synth/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/shelf-engine/synth"
)

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements synth.RunStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ synth.RunStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Runs (append-only)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		profile_name TEXT NOT NULL,
		profile_json TEXT NOT NULL,
		seed TEXT NOT NULL,
		source_name TEXT,
		products INTEGER NOT NULL,
		shelves INTEGER NOT NULL,
		levels INTEGER NOT NULL,
		capacity_violations INTEGER NOT NULL DEFAULT 0,
		config_inconsistencies INTEGER NOT NULL DEFAULT 0,
		zeroed_fee_rows INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Listing is newest first
	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC, id DESC);

	-- Artifacts (one per run and file name)
	CREATE TABLE IF NOT EXISTS artifacts (
		run_id TEXT NOT NULL REFERENCES runs(id),
		name TEXT NOT NULL,
		seq INTEGER NOT NULL,
		content BLOB NOT NULL,
		PRIMARY KEY (run_id, name)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUN STORE (synth.RunStore interface)
// =============================================================================

// SaveRun writes the run and its artifacts in one transaction.
func (s *Store) SaveRun(ctx context.Context, run synth.Run, artifacts []synth.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, profile_name, profile_json, seed, source_name, products, shelves, levels,
		 capacity_violations, config_inconsistencies, zeroed_fee_rows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(run.ID),
		run.ProfileName,
		run.ProfileJSON,
		strconv.FormatUint(run.Seed, 10),
		nullString(run.SourceName),
		run.Products,
		run.Shelves,
		run.Levels,
		run.CapacityViolations,
		run.ConfigInconsistencies,
		run.ZeroedFeeRows,
		run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("run %s: %w", run.ID, synth.ErrDuplicateRun)
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, a := range artifacts {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO artifacts (run_id, name, seq, content) VALUES (?, ?, ?, ?)",
			string(run.ID), a.Name, i, a.Content,
		)
		if err != nil {
			return fmt.Errorf("failed to save artifact %s: %w", a.Name, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by id.
func (s *Store) GetRun(ctx context.Context, id synth.RunID) (*synth.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, runColumns+" FROM runs WHERE id = ?", string(id))
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, synth.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]synth.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, runColumns+" FROM runs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []synth.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListArtifacts returns the artifact names of a run in creation order.
func (s *Store) ListArtifacts(ctx context.Context, id synth.RunID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM artifacts WHERE run_id = ? ORDER BY seq", string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetArtifact retrieves one artifact of a run.
func (s *Store) GetArtifact(ctx context.Context, id synth.RunID, name string) (*synth.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireRun(ctx, id); err != nil {
		return nil, err
	}

	a := synth.Artifact{Name: name}
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM artifacts WHERE run_id = ? AND name = ?",
		string(id), name,
	).Scan(&a.Content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s artifact %s: %w", id, name, synth.ErrArtifactNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// HELPERS
// =============================================================================

const runColumns = `
	SELECT id, profile_name, profile_json, seed, source_name, products, shelves, levels,
	       capacity_violations, config_inconsistencies, zeroed_fee_rows, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*synth.Run, error) {
	var (
		run        synth.Run
		id, seed   string
		sourceName sql.NullString
		createdAt  string
	)
	err := row.Scan(&id, &run.ProfileName, &run.ProfileJSON, &seed, &sourceName,
		&run.Products, &run.Shelves, &run.Levels,
		&run.CapacityViolations, &run.ConfigInconsistencies, &run.ZeroedFeeRows, &createdAt)
	if err != nil {
		return nil, err
	}

	run.ID = synth.RunID(id)
	run.SourceName = sourceName.String
	run.Seed, err = strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("run %s has malformed seed %q: %w", id, seed, err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &run, nil
}

func (s *Store) requireRun(ctx context.Context, id synth.RunID) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", string(id)).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("run %s: %w", id, synth.ErrRunNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isConstraintError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
