package monitoring

import (
	"context"
	"log"
	"sync"
	"time"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
)

// JobMonitor watches non-terminal jobs and warns about ones that stopped advancing
type JobMonitor struct {
	store        repository.JobStore
	stallTimeout time.Duration
	interval     time.Duration
	now          func() time.Time

	mu   sync.Mutex
	seen map[string]*observation
}

type observation struct {
	status   models.JobStatus
	progress int
	step     string
	since    time.Time
	warned   bool
}

// NewJobMonitor creates a monitor that flags jobs unchanged for stallTimeout
func NewJobMonitor(store repository.JobStore, stallTimeout time.Duration) *JobMonitor {
	interval := stallTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 30*time.Second {
		interval = 30 * time.Second
	}
	return &JobMonitor{
		store:        store,
		stallTimeout: stallTimeout,
		interval:     interval,
		now:          time.Now,
		seen:         make(map[string]*observation),
	}
}

// Start starts the job monitoring loop
func (jm *JobMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(jm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jm.CheckJobs(ctx)
		}
	}
}

// CheckJobs inspects every job once and returns the ids newly found stalled
func (jm *JobMonitor) CheckJobs(ctx context.Context) []string {
	jobs, err := jm.store.List(ctx)
	if err != nil {
		log.Printf("Failed to fetch jobs for stall check: %v", err)
		return nil
	}

	jm.mu.Lock()
	defer jm.mu.Unlock()

	now := jm.now()
	live := make(map[string]bool, len(jobs))
	var stalled []string

	for _, job := range jobs {
		if job.Status.IsTerminal() {
			continue
		}
		live[job.ID] = true

		obs, ok := jm.seen[job.ID]
		if !ok || obs.status != job.Status || obs.progress != job.Progress || obs.step != job.CurrentStep {
			jm.seen[job.ID] = &observation{
				status:   job.Status,
				progress: job.Progress,
				step:     job.CurrentStep,
				since:    now,
			}
			continue
		}

		if !obs.warned && now.Sub(obs.since) >= jm.stallTimeout {
			obs.warned = true
			stalled = append(stalled, job.ID)
			log.Printf("WARNING: Job %s (%s) stalled at %d%% %q for %v",
				job.ID, job.Workflow, job.Progress, job.CurrentStep, now.Sub(obs.since).Round(time.Second))
		}
	}

	for id := range jm.seen {
		if !live[id] {
			delete(jm.seen, id)
		}
	}
	return stalled
}
