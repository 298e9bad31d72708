package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"media-toolkit/core/models"
)

// MemoryJobStore keeps job records in process memory
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryJobStore creates an empty in-memory store
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*models.Job),
	}
}

// Create stores a new job
func (s *MemoryJobStore) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrAlreadyExists
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a copy of a job
func (s *MemoryJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// Update applies mutate to a copy of the job and stores the result
func (s *MemoryJobStore) Update(ctx context.Context, id string, mutate func(*models.Job) error) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.UpdatedAt = time.Now().UTC()

	s.jobs[id] = next
	return next.Clone(), nil
}

// List returns copies of all jobs, oldest first
func (s *MemoryJobStore) List(ctx context.Context) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs, nil
}
