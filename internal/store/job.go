package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobRecord is the persisted form of a jobs.Descriptor (internal/jobs keeps
// the domain type; store only knows columns).
type JobRecord struct {
	ID         string
	Name       string
	Kind       string
	Schedule   string
	Enabled    bool
	Params     string
	LastRunAt  time.Time
	CreatedAt  time.Time
}

// JobRepository provides CRUD access to scheduled_jobs, the persisted form
// of named recurring jobs (§6 "job" CLI verb).
type JobRepository interface {
	Get(ctx context.Context, id string) (*JobRecord, error)
	GetByName(ctx context.Context, name string) (*JobRecord, error)
	List(ctx context.Context) ([]JobRecord, error)
	Upsert(ctx context.Context, j *JobRecord) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	TouchLastRun(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

var _ JobRepository = (*SQLiteJobRepository)(nil)

type SQLiteJobRepository struct {
	db *sql.DB
}

func NewSQLiteJobRepository(db *sql.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

const jobColumns = `id, name, kind, schedule, enabled, params, last_run_at, created_at`

func (r *SQLiteJobRepository) Get(ctx context.Context, id string) (*JobRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM scheduled_jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (r *SQLiteJobRepository) GetByName(ctx context.Context, name string) (*JobRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM scheduled_jobs WHERE name = ?`, name)
	return scanJob(row)
}

func (r *SQLiteJobRepository) List(ctx context.Context) ([]JobRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM scheduled_jobs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list scheduled_jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *SQLiteJobRepository) Upsert(ctx context.Context, j *JobRecord) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.Params == "" {
		j.Params = "{}"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduled_jobs (id, name, kind, schedule, enabled, params, last_run_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
		ON CONFLICT(name) DO UPDATE SET
			kind = excluded.kind,
			schedule = excluded.schedule,
			enabled = excluded.enabled,
			params = excluded.params
	`, j.ID, j.Name, j.Kind, j.Schedule, j.Enabled, j.Params, timeOrNil(j.LastRunAt), timeOrNil(j.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert scheduled_jobs: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_jobs SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("set enabled on scheduled_jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteJobRepository) TouchLastRun(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE scheduled_jobs SET last_run_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("touch scheduled_jobs.last_run_at: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scheduled_jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanJob(row rowScanner) (*JobRecord, error) {
	var j JobRecord
	var schedule sql.NullString
	var lastRunAt sql.NullTime

	if err := row.Scan(&j.ID, &j.Name, &j.Kind, &schedule, &j.Enabled, &j.Params, &lastRunAt, &j.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	j.Schedule = schedule.String
	if lastRunAt.Valid {
		j.LastRunAt = lastRunAt.Time
	}
	return &j, nil
}
