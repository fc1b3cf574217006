// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records resolved upload jobs in a local SQLite ledger so
// failed conversions stay visible after the run that produced them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/convert-drop/pkg/types"
)

const (
	dbFile           = "history.db"
	defaultListLimit = 50
	// Fixed-width so that text order is time order.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// nowFunc is overridden in tests.
var nowFunc = time.Now

// Store manages the history SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the history database at cfg.Dir/history.db and
// creates the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = types.DefaultHistoryDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the directory holding the database.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			source_size INTEGER,
			status TEXT NOT NULL,
			reason TEXT,
			error TEXT,
			http_status INTEGER,
			filename TEXT,
			saved_path TEXT,
			bytes INTEGER,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts or replaces a job row.
func (s *Store) Record(ctx context.Context, job types.UploadJob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs
			(id, source, source_size, status, reason, error, http_status, filename, saved_path, bytes, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Source, job.SourceSize, string(job.Status), string(job.Reason), job.Error,
		job.HTTPStatus, job.Filename, job.SavedPath, job.Bytes,
		formatTime(job.StartedAt), formatTime(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", job.ID, err)
	}
	return nil
}

// ListOptions filters List.
type ListOptions struct {
	// Status keeps only jobs with this status; empty keeps all.
	Status types.JobStatus

	// Source keeps only jobs whose source name contains this text.
	Source string

	// Limit caps the number of rows (default 50). Negative means no limit.
	Limit int
}

// List returns recorded jobs, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.UploadJob, error) {
	var (
		where []string
		args  []any
	)
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.Source != "" {
		where = append(where, "source LIKE ?")
		args = append(args, "%"+opts.Source+"%")
	}

	query := `SELECT id, source, source_size, status, reason, error, http_status,
		filename, saved_path, bytes, started_at, finished_at FROM jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"

	limit := opts.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.UploadJob
	for rows.Next() {
		var (
			job                       types.UploadJob
			status                    string
			reason, errText, filename sql.NullString
			saved                     sql.NullString
			sourceSize, httpStatus, n sql.NullInt64
			startedAt, finishedAt     sql.NullString
		)
		if err := rows.Scan(&job.ID, &job.Source, &sourceSize, &status, &reason, &errText,
			&httpStatus, &filename, &saved, &n, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		job.Status = types.JobStatus(status)
		job.Reason = types.FailureReason(reason.String)
		job.Error = errText.String
		job.Filename = filename.String
		job.SavedPath = saved.String
		job.SourceSize = sourceSize.Int64
		job.HTTPStatus = int(httpStatus.Int64)
		job.Bytes = n.Int64
		job.StartedAt = parseTime(startedAt.String)
		job.FinishedAt = parseTime(finishedAt.String)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Counts returns the number of recorded jobs per status.
func (s *Store) Counts(ctx context.Context) (map[types.JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, count(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.JobStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[types.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
