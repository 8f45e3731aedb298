package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteBackend = "sqlite"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS results (
		project_id TEXT PRIMARY KEY,
		revision INTEGER NOT NULL,
		job_id TEXT NOT NULL,
		score REAL NOT NULL,
		result TEXT NOT NULL,
		solved_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_score ON results(score)`,
}

// Newer or equal revisions replace the stored row; older ones leave it untouched.
const upsertResult = `INSERT INTO results (project_id, revision, job_id, score, result, solved_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_id) DO UPDATE SET
		revision = excluded.revision,
		job_id = excluded.job_id,
		score = excluded.score,
		result = excluded.result,
		solved_at = excluded.solved_at
	WHERE excluded.revision >= results.revision`

// SQLiteStore persists results in a SQLite database file.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	s.db = db

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	metrics.UpdateResultsStored(s.Count(ctx))
	return s, nil
}

// Migrate creates the schema. It is safe to run repeatedly.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Publish(ctx context.Context, rec model.SolveRecord) (bool, error) { //nolint:gocritic // records travel by value
	if rec.ProjectID == "" {
		return false, fmt.Errorf("%w: empty", ErrInvalidProject)
	}
	start := time.Now()
	defer observe(sqliteBackend, "publish", start)

	body, err := json.Marshal(rec.Result)
	if err != nil {
		return false, fmt.Errorf("encode result: %w", err)
	}
	res, err := s.db.ExecContext(ctx, upsertResult,
		rec.ProjectID, rec.Revision, rec.JobID, rec.Result.Score, string(body),
		rec.SolvedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("publish %s: %w", rec.ProjectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("publish %s: %w", rec.ProjectID, err)
	}

	accepted := n > 0
	metrics.RecordResultPublished(accepted)
	if accepted {
		metrics.UpdateResultsStored(s.Count(ctx))
	}
	return accepted, nil
}

func (s *SQLiteStore) Latest(ctx context.Context, projectID string) (model.SolveRecord, error) {
	start := time.Now()
	defer observe(sqliteBackend, "latest", start)

	var (
		rec      = model.SolveRecord{ProjectID: projectID}
		body     string
		solvedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, job_id, result, solved_at FROM results WHERE project_id = ?`,
		projectID).Scan(&rec.Revision, &rec.JobID, &body, &solvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SolveRecord{}, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	if err != nil {
		return model.SolveRecord{}, fmt.Errorf("latest %s: %w", projectID, err)
	}
	if err := json.Unmarshal([]byte(body), &rec.Result); err != nil {
		return model.SolveRecord{}, fmt.Errorf("decode result %s: %w", projectID, err)
	}
	if rec.SolvedAt, err = time.Parse(time.RFC3339Nano, solvedAt); err != nil {
		return model.SolveRecord{}, fmt.Errorf("decode solved_at %s: %w", projectID, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Projects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT project_id FROM results ORDER BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("store", "count")
		return 0
	}
	return n
}
