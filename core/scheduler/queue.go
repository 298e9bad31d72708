package scheduler

import (
	"context"
	"errors"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Submit after Stop and passed to abandoned tasks
	ErrStopped = errors.New("scheduler stopped")

	// ErrWorkerPanic is passed to Abandon when a task panics mid-run
	ErrWorkerPanic = errors.New("worker crashed while processing job")
)

// Task is one unit of background work bound to a job
type Task struct {
	JobID string
	Name  string
	Run   func(ctx context.Context) error

	// Abandon, if set, is called for a task that was queued but never started.
	Abandon func(err error)
}

// JobQueue is a bounded FIFO of tasks
type JobQueue struct {
	tasks chan Task
}

// NewJobQueue creates a queue holding at most capacity tasks
func NewJobQueue(capacity int) *JobQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &JobQueue{
		tasks: make(chan Task, capacity),
	}
}

// Enqueue adds a task without blocking
func (jq *JobQueue) Enqueue(task Task) error {
	select {
	case jq.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// TryPop removes the oldest task if one is waiting
func (jq *JobQueue) TryPop() (Task, bool) {
	select {
	case task := <-jq.tasks:
		return task, true
	default:
		return Task{}, false
	}
}

// Len returns the number of waiting tasks
func (jq *JobQueue) Len() int {
	return len(jq.tasks)
}

// Cap returns the queue capacity
func (jq *JobQueue) Cap() int {
	return cap(jq.tasks)
}
