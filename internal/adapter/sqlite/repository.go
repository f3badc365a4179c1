package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cwygoda/questions/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    text       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'pending',
    attempts   INTEGER NOT NULL DEFAULT 0,
    error      TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS link_results (
    job_id   INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    url      TEXT NOT NULL,
    is_valid INTEGER NOT NULL,
    PRIMARY KEY (job_id, url)
);
`

// Repository implements domain.JobRepository using SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps the pragma below
	// in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new pending job.
func (r *Repository) Create(ctx context.Context, text string) (*domain.Job, error) {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (text, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		text, domain.StatusPending, now, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &domain.Job{
		ID:        id,
		Text:      text,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get retrieves a job by ID together with its results.
func (r *Repository) Get(ctx context.Context, id int64) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, text, status, attempts, COALESCE(error, ''), created_at, updated_at
		 FROM jobs WHERE id = ?`, id,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}

	job.Results, err = r.results(ctx, id)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *Repository) results(ctx context.Context, id int64) ([]domain.VerifiedLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT url, is_valid FROM link_results WHERE job_id = ? ORDER BY url`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.VerifiedLink
	for rows.Next() {
		var link domain.VerifiedLink
		if err := rows.Scan(&link.URL, &link.IsValid); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// FindPending returns pending jobs up to limit, oldest first.
func (r *Repository) FindPending(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, status, attempts, COALESCE(error, ''), created_at, updated_at
		 FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?`,
		domain.StatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Claim atomically claims a pending job for processing.
func (r *Repository) Claim(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, attempts = attempts + 1, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusProcessing, time.Now().UTC(), id, domain.StatusPending,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Complete replaces the job's results and marks it completed.
func (r *Repository) Complete(ctx context.Context, id int64, results []domain.VerifiedLink) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM link_results WHERE job_id = ?`, id); err != nil {
		return err
	}
	for _, link := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO link_results (job_id, url, is_valid) VALUES (?, ?, ?)`,
			id, link.URL, link.IsValid,
		); err != nil {
			return fmt.Errorf("store result %s: %w", link.URL, err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = NULL, updated_at = ? WHERE id = ?`,
		domain.StatusCompleted, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return domain.ErrJobNotFound
	}
	return tx.Commit()
}

// Fail marks a job as permanently failed.
func (r *Repository) Fail(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		domain.StatusFailed, reason, time.Now().UTC(), id,
	)
	return err
}

// Retry marks a job for retry (back to pending with error info).
func (r *Repository) Retry(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		domain.StatusPending, reason, time.Now().UTC(), id,
	)
	return err
}

// RecoverStale resets all processing jobs back to pending (for crash recovery).
func (r *Repository) RecoverStale(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = 'recovered after crash', updated_at = ?
		 WHERE status = ?`,
		domain.StatusPending, time.Now().UTC(), domain.StatusProcessing,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var job domain.Job
	var status string
	err := row.Scan(&job.ID, &job.Text, &status, &job.Attempts, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}
