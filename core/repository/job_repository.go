package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"media-toolkit/core/models"

	"github.com/lib/pq"
)

// PostgresJobStore persists job records in PostgreSQL
type PostgresJobStore struct {
	db *sql.DB
}

// NewPostgresJobStore opens the database, configures the pool and ensures the schema
func NewPostgresJobStore(databaseURL string) (*PostgresJobStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresJobStore{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresJobStore) initSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS media_jobs (
			id           UUID PRIMARY KEY,
			workflow     TEXT NOT NULL,
			filename     TEXT NOT NULL,
			status       TEXT NOT NULL,
			phase        TEXT NOT NULL,
			progress     INTEGER NOT NULL DEFAULT 0,
			current_step TEXT NOT NULL DEFAULT '',
			results      JSONB,
			error        TEXT,
			source_path  TEXT NOT NULL DEFAULT '',
			scenes       JSONB,
			start_time   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_media_jobs_status ON media_jobs(status);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Close releases the connection pool
func (s *PostgresJobStore) Close() error {
	return s.db.Close()
}

// Create inserts a new job row
func (s *PostgresJobStore) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO media_jobs (
			id, workflow, filename, status, phase, progress, current_step,
			results, error, source_path, scenes, start_time, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	results, scenes, err := encodeJSONColumns(job)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.Workflow,
		job.Filename,
		job.Status,
		job.Phase,
		job.Progress,
		job.CurrentStep,
		results,
		job.Error,
		job.SourcePath,
		scenes,
		job.StartTime,
		job.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Get retrieves a job by id
func (s *PostgresJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, selectJobColumns+` WHERE id = $1`, id)
	return scanJob(row)
}

// Update locks the row, applies mutate and writes the full record back
func (s *PostgresJobStore) Update(ctx context.Context, id string, mutate func(*models.Job) error) (*models.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	job, err := scanJob(tx.QueryRowContext(ctx, selectJobColumns+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(job); err != nil {
		return nil, err
	}
	job.ID = id
	job.UpdatedAt = time.Now().UTC()

	results, scenes, err := encodeJSONColumns(job)
	if err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE media_jobs SET
			status = $1, phase = $2, progress = $3, current_step = $4,
			results = $5, error = $6, source_path = $7, scenes = $8, updated_at = $9
		WHERE id = $10
	`
	_, err = tx.ExecContext(ctx, updateQuery,
		job.Status,
		job.Phase,
		job.Progress,
		job.CurrentStep,
		results,
		job.Error,
		job.SourcePath,
		scenes,
		job.UpdatedAt,
		id,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return job, nil
}

// List returns every job ordered by start time
func (s *PostgresJobStore) List(ctx context.Context) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx, selectJobColumns+` ORDER BY start_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

const selectJobColumns = `
	SELECT id, workflow, filename, status, phase, progress, current_step,
		results, error, source_path, scenes, start_time, updated_at
	FROM media_jobs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var results []byte
	var scenes []byte
	var errMsg sql.NullString

	err := row.Scan(
		&job.ID,
		&job.Workflow,
		&job.Filename,
		&job.Status,
		&job.Phase,
		&job.Progress,
		&job.CurrentStep,
		&results,
		&errMsg,
		&job.SourcePath,
		&scenes,
		&job.StartTime,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if errMsg.Valid {
		job.Error = &errMsg.String
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("failed to decode results of job %s: %w", job.ID, err)
		}
	}
	if len(scenes) > 0 {
		if err := json.Unmarshal(scenes, &job.Scenes); err != nil {
			return nil, fmt.Errorf("failed to decode scenes of job %s: %w", job.ID, err)
		}
	}
	return &job, nil
}

// encodeJSONColumns returns untyped nils for absent values so the columns stay NULL
func encodeJSONColumns(job *models.Job) (results, scenes any, err error) {
	if job.Results != nil {
		data, err := json.Marshal(job.Results)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode results: %w", err)
		}
		results = string(data)
	}
	if job.Scenes != nil {
		data, err := json.Marshal(job.Scenes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode scenes: %w", err)
		}
		scenes = string(data)
	}
	return results, scenes, nil
}
