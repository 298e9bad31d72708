package workflows

import (
	"context"
	"errors"
	"log"
	"time"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
)

// ErrInvalidState is returned when a job is not in the state an operation requires
var ErrInvalidState = errors.New("invalid job state")

// terminalWriteTimeout bounds the final write of a job whose context was cancelled
const terminalWriteTimeout = 5 * time.Second

// Tracker is the single writer a worker uses to advance one job record
type Tracker struct {
	store repository.JobStore
	jobID string
}

// NewTracker binds a tracker to a job
func NewTracker(store repository.JobStore, jobID string) *Tracker {
	return &Tracker{store: store, jobID: jobID}
}

// JobID returns the tracked job id
func (t *Tracker) JobID() string {
	return t.jobID
}

// Step records a status, progress point and step description.
// Progress never moves backwards within the current phase.
func (t *Tracker) Step(ctx context.Context, status models.JobStatus, progress int, step string) error {
	_, err := t.store.Update(ctx, t.jobID, func(job *models.Job) error {
		job.Status = status
		job.Progress = advance(job.Progress, progress)
		job.CurrentStep = step
		return nil
	})
	return err
}

// Progress moves progress forward without touching the status
func (t *Tracker) Progress(ctx context.Context, progress int, step string) error {
	_, err := t.store.Update(ctx, t.jobID, func(job *models.Job) error {
		job.Progress = advance(job.Progress, progress)
		job.CurrentStep = step
		return nil
	})
	return err
}

// Complete sets a success status with results and clears any error
func (t *Tracker) Complete(ctx context.Context, status models.JobStatus, step string, results map[string]any) error {
	return t.CompleteWith(ctx, status, step, results, nil)
}

// CompleteWith is Complete with an extra mutation applied in the same update
func (t *Tracker) CompleteWith(ctx context.Context, status models.JobStatus, step string, results map[string]any, mutate func(*models.Job)) error {
	if !status.IsSuccess() {
		return ErrInvalidState
	}

	if results == nil {
		results = map[string]any{}
	}

	ctx, cancel := terminalContext(ctx)
	defer cancel()

	_, err := t.store.Update(ctx, t.jobID, func(job *models.Job) error {
		job.Status = status
		job.Progress = 100
		job.CurrentStep = step
		job.Results = results
		job.Error = nil
		if mutate != nil {
			mutate(job)
		}
		return nil
	})
	return err
}

// Fail sets the error status, records the message and clears results.
// The write survives a cancelled ctx so shutdowns still leave a terminal record.
func (t *Tracker) Fail(ctx context.Context, cause error) error {
	msg := cause.Error()

	ctx, cancel := terminalContext(ctx)
	defer cancel()

	_, err := t.store.Update(ctx, t.jobID, func(job *models.Job) error {
		job.Status = models.JobStatusError
		job.Error = &msg
		job.Results = nil
		return nil
	})
	if err != nil {
		log.Printf("Failed to record error for job %s: %v", t.jobID, err)
	}
	return err
}

// advance clamps to 0..100 and refuses to decrease
func advance(current, next int) int {
	if next > 100 {
		next = 100
	}
	if next < current {
		return current
	}
	return next
}

func terminalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(context.Background(), terminalWriteTimeout)
}
