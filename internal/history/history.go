// Package history persists a bounded log of generation runs in the
// project state directory. The log backs `repomap status`; it is an
// accessory, so callers treat every failure here as a warning.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"repomap/internal/errors"
)

// keepRuns bounds the table; Record prunes the oldest rows past it.
const keepRuns = 50

// Run is one recorded generation.
type Run struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	Commit      string
	Branch      string
	Fingerprint string
	FileCount   int
	SymbolCount int
	EdgeCount   int
	Unresolved  int
	Warnings    int
	Converged   bool
	Iterations  int
	Trigger     string
	ToolVersion string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store is the runs database under the state directory.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens or creates .repomap/history.db under stateDir.
func Open(stateDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, errors.New(errors.HistoryUnavailable, "creating state directory", err)
	}

	conn, err := sql.Open("sqlite", filepath.Join(stateDir, "history.db"))
	if err != nil {
		return nil, errors.New(errors.HistoryUnavailable, "opening history database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, errors.New(errors.HistoryUnavailable, "configuring history database", err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, errors.New(errors.HistoryUnavailable, "initializing history schema", err)
	}
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			commit_hash TEXT,
			branch TEXT,
			fingerprint TEXT,
			file_count INTEGER NOT NULL DEFAULT 0,
			symbol_count INTEGER NOT NULL DEFAULT 0,
			edge_count INTEGER NOT NULL DEFAULT 0,
			unresolved INTEGER NOT NULL DEFAULT 0,
			warning_count INTEGER NOT NULL DEFAULT 0,
			converged INTEGER NOT NULL DEFAULT 0,
			iterations INTEGER NOT NULL DEFAULT 0,
			trigger_kind TEXT,
			tool_version TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Record inserts a run and prunes the log back to its bound. An empty
// ID gets a fresh one; the stored run is returned.
func (s *Store) Record(run Run) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	_, err := s.conn.Exec(`
		INSERT INTO runs (id, started_at, duration_ms, commit_hash, branch, fingerprint,
			file_count, symbol_count, edge_count, unresolved, warning_count,
			converged, iterations, trigger_kind, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.Commit,
		run.Branch,
		run.Fingerprint,
		run.FileCount,
		run.SymbolCount,
		run.EdgeCount,
		run.Unresolved,
		run.Warnings,
		run.Converged,
		run.Iterations,
		run.Trigger,
		run.ToolVersion,
	)
	if err != nil {
		return run, fmt.Errorf("recording run: %w", err)
	}

	if _, err := s.conn.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
		)
	`, keepRuns); err != nil {
		return run, fmt.Errorf("pruning run history: %w", err)
	}

	s.logger.Debug("Recorded run", "run_id", run.ID, "trigger", run.Trigger)
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 || limit > keepRuns {
		limit = keepRuns
	}

	rows, err := s.conn.Query(`
		SELECT id, started_at, duration_ms, commit_hash, branch, fingerprint,
			file_count, symbol_count, edge_count, unresolved, warning_count,
			converged, iterations, trigger_kind, tool_version
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Last returns the most recent run, or nil when the log is empty.
func (s *Store) Last() (*Run, error) {
	runs, err := s.Recent(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var startedAt string
	var durationMS int64
	var commit, branch, fingerprint, trigger, toolVersion sql.NullString

	err := rows.Scan(
		&run.ID,
		&startedAt,
		&durationMS,
		&commit,
		&branch,
		&fingerprint,
		&run.FileCount,
		&run.SymbolCount,
		&run.EdgeCount,
		&run.Unresolved,
		&run.Warnings,
		&run.Converged,
		&run.Iterations,
		&trigger,
		&toolVersion,
	)
	if err != nil {
		return run, fmt.Errorf("scanning run row: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		run.StartedAt = t
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Commit = commit.String
	run.Branch = branch.String
	run.Fingerprint = fingerprint.String
	run.Trigger = trigger.String
	run.ToolVersion = toolVersion.String
	return run, nil
}
