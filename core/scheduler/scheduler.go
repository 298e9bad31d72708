package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Scheduler runs queued tasks on a fixed pool of worker goroutines
type Scheduler struct {
	queue   *JobQueue
	workers int

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// Stats is a point-in-time view of the scheduler
type Stats struct {
	Workers    int
	QueueDepth int
	QueueCap   int
	Running    int64
	Completed  int64
	Failed     int64
}

// NewScheduler creates a scheduler with the given pool size and queue capacity
func NewScheduler(workers, queueCapacity int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		queue:    NewJobQueue(queueCapacity),
		workers:  workers,
		stopChan: make(chan struct{}),
	}
}

// Start launches the worker pool. Cancelling ctx cancels running tasks.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	log.Printf("Scheduler started with %d workers (queue capacity %d)", s.workers, s.queue.Cap())
}

// Stop stops accepting work, abandons queued tasks and waits for running ones
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()

	for {
		task, ok := s.queue.TryPop()
		if !ok {
			break
		}
		log.Printf("Abandoning queued %s task for job %s", task.Name, task.JobID)
		if task.Abandon != nil {
			task.Abandon(fmt.Errorf("job was not started: %w", ErrStopped))
		}
	}
}

// Submit queues a task without blocking
func (s *Scheduler) Submit(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if err := s.queue.Enqueue(task); err != nil {
		log.Printf("Rejecting %s task for job %s: %v", task.Name, task.JobID, err)
		return err
	}
	return nil
}

// QueueDepth returns the number of tasks waiting for a worker
func (s *Scheduler) QueueDepth() int {
	return s.queue.Len()
}

// Stats returns current counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		Workers:    s.workers,
		QueueDepth: s.queue.Len(),
		QueueCap:   s.queue.Cap(),
		Running:    s.running.Load(),
		Completed:  s.completed.Load(),
		Failed:     s.failed.Load(),
	}
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		// Prefer stopping over picking up more work.
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case task := <-s.queue.tasks:
			s.processTask(ctx, id, task)
		}
	}
}

func (s *Scheduler) processTask(ctx context.Context, workerID int, task Task) {
	s.running.Add(1)
	defer s.running.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			s.failed.Add(1)
			log.Printf("Worker %d: %s task for job %s panicked: %v", workerID, task.Name, task.JobID, r)
			if task.Abandon != nil {
				task.Abandon(fmt.Errorf("%w: %v", ErrWorkerPanic, r))
			}
		}
	}()

	log.Printf("Worker %d: processing %s task for job %s", workerID, task.Name, task.JobID)
	if err := task.Run(ctx); err != nil {
		s.failed.Add(1)
		log.Printf("Worker %d: job %s failed: %v", workerID, task.JobID, err)
		return
	}
	s.completed.Add(1)
}
