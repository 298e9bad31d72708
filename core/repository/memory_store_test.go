package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"media-toolkit/core/models"
)

// TestMemoryStoreCreateGet verifies records round trip and duplicates are rejected.
func TestMemoryStoreCreateGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()

	job := models.NewJob("job-1", models.WorkflowAMV, models.PhaseGenerate, "clip.mp4")
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, job); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second Create() error = %v, want ErrAlreadyExists", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != models.JobStatusStarting || got.Filename != "clip.mp4" {
		t.Fatalf("unexpected job: %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

// TestMemoryStoreGetReturnsCopy verifies callers cannot mutate stored state.
func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()
	_ = store.Create(ctx, models.NewJob("job-1", models.WorkflowScenes, models.PhaseDetect, "a.mp4"))

	got, _ := store.Get(ctx, "job-1")
	got.Status = models.JobStatusError
	got.Results = map[string]any{"x": 1}

	again, _ := store.Get(ctx, "job-1")
	if again.Status != models.JobStatusStarting || again.Results != nil {
		t.Fatalf("stored job was mutated through a copy: %+v", again)
	}
}

// TestMemoryStoreUpdate verifies mutator errors abort the update.
func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()
	_ = store.Create(ctx, models.NewJob("job-1", models.WorkflowAMV, models.PhaseGenerate, "a.mp4"))

	updated, err := store.Update(ctx, "job-1", func(j *models.Job) error {
		j.Status = models.JobStatusProcessing
		j.Progress = 10
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Progress != 10 {
		t.Fatalf("progress = %d, want 10", updated.Progress)
	}

	abort := errors.New("abort")
	_, err = store.Update(ctx, "job-1", func(j *models.Job) error {
		j.Progress = 99
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("Update() error = %v, want abort", err)
	}
	got, _ := store.Get(ctx, "job-1")
	if got.Progress != 10 {
		t.Fatalf("aborted update leaked: progress = %d", got.Progress)
	}

	if _, err := store.Update(ctx, "missing", func(*models.Job) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

// TestMemoryStoreConcurrentUpdates verifies updates are serialized.
func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()
	_ = store.Create(ctx, models.NewJob("job-1", models.WorkflowAMV, models.PhaseGenerate, "a.mp4"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, "job-1", func(j *models.Job) error {
				j.Progress++
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, "job-1")
	if got.Progress != 50 {
		t.Fatalf("progress = %d, want 50", got.Progress)
	}

	jobs, err := store.List(ctx)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("List() = %d jobs, err %v", len(jobs), err)
	}
}
