package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome is the terminal state of one station attempt.
type Outcome string

const (
	OutcomeDone        Outcome = "done"
	OutcomeUnderfilled Outcome = "underfilled"
	OutcomeFailed      Outcome = "failed"
	OutcomeSkipped     Outcome = "skipped"
)

// Succeeded reports whether the outcome produced a station file.
func (o Outcome) Succeeded() bool {
	return o == OutcomeDone || o == OutcomeUnderfilled
}

// Run is one recorded fill run.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	TargetDir   string
	CatalogDesc string
	Banks       int
	Stations    int
	Seed        int64
}

// Row is one persisted station outcome.
type Row struct {
	RunID       string
	Bank        int
	Station     int
	Outcome     Outcome
	OutputPath  string
	ClipCount   int
	FillSeconds float64
	Error       string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    target_dir TEXT NOT NULL,
    catalog TEXT NOT NULL,
    banks INTEGER NOT NULL,
    stations INTEGER NOT NULL,
    seed INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS station_outcomes (
    run_id TEXT NOT NULL REFERENCES runs(id),
    bank INTEGER NOT NULL,
    station INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    output_path TEXT NOT NULL DEFAULT '',
    clip_count INTEGER NOT NULL DEFAULT 0,
    fill_seconds REAL NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, bank, station)
);
`

// Store persists run reports in SQLite. Reporting only: interrupted runs are
// never resumed from this database.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the report database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure report directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records a new run.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, target_dir, catalog, banks, stations, seed)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.TargetDir,
		run.CatalogDesc,
		run.Banks,
		run.Stations,
		run.Seed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's completion time.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// RecordStation persists one station outcome.
func (s *Store) RecordStation(ctx context.Context, row Row) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO station_outcomes
         (run_id, bank, station, outcome, output_path, clip_count, fill_seconds, error)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Bank, row.Station, string(row.Outcome),
		row.OutputPath, row.ClipCount, row.FillSeconds, row.Error,
	)
	if err != nil {
		return fmt.Errorf("record station outcome: %w", err)
	}
	return nil
}

// LastRun returns the most recently started run and its station outcomes in
// bank/station order.
func (s *Store) LastRun(ctx context.Context) (*Run, []Row, error) {
	run := &Run{}
	var startedAt string
	var finishedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, target_dir, catalog, banks, stations, seed
         FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&run.ID, &startedAt, &finishedAt, &run.TargetDir, &run.CatalogDesc,
			&run.Banks, &run.Stations, &run.Seed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query last run: %w", err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		parsed, parseErr := time.Parse(time.RFC3339Nano, finishedAt.String)
		if parseErr != nil {
			return nil, nil, fmt.Errorf("parse finished_at: %w", parseErr)
		}
		run.FinishedAt = &parsed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, bank, station, outcome, output_path, clip_count, fill_seconds, error
         FROM station_outcomes WHERE run_id = ? ORDER BY bank, station`, run.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Row
	for rows.Next() {
		var row Row
		var outcome string
		if err := rows.Scan(&row.RunID, &row.Bank, &row.Station, &outcome,
			&row.OutputPath, &row.ClipCount, &row.FillSeconds, &row.Error); err != nil {
			return nil, nil, fmt.Errorf("scan outcome: %w", err)
		}
		row.Outcome = Outcome(outcome)
		outcomes = append(outcomes, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return run, outcomes, nil
}
