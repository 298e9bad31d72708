package repository

import (
	"context"
	"errors"

	"media-toolkit/core/models"
)

var (
	// ErrNotFound is returned when no job exists under the requested id
	ErrNotFound = errors.New("job not found")
	// ErrAlreadyExists is returned when a job id is created twice
	ErrAlreadyExists = errors.New("job already exists")
)

// JobStore is the registry of job records shared by handlers and workers.
// Get and List return copies; Update replaces the stored record wholesale
// with the value produced by the mutator. A mutator error aborts the update
// and is returned unchanged.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, id string, mutate func(*models.Job) error) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
}
