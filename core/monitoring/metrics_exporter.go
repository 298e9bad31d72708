package monitoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
	"media-toolkit/core/scheduler"
)

// StatsSource reports scheduler counters
type StatsSource interface {
	Stats() scheduler.Stats
}

// MetricsExporter renders job and scheduler state in Prometheus text format
type MetricsExporter struct {
	store     repository.JobStore
	scheduler StatsSource
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(store repository.JobStore, scheduler StatsSource) *MetricsExporter {
	return &MetricsExporter{
		store:     store,
		scheduler: scheduler,
	}
}

type jobKey struct {
	workflow models.Workflow
	status   models.JobStatus
}

// GetPrometheusMetrics returns metrics in Prometheus format
func (me *MetricsExporter) GetPrometheusMetrics(ctx context.Context) (string, error) {
	jobs, err := me.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list jobs: %w", err)
	}

	counts := make(map[jobKey]int)
	active := 0
	for _, job := range jobs {
		counts[jobKey{job.Workflow, job.Status}]++
		if !job.Status.IsTerminal() {
			active++
		}
	}

	keys := make([]jobKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].workflow != keys[j].workflow {
			return keys[i].workflow < keys[j].workflow
		}
		return keys[i].status < keys[j].status
	})

	var b strings.Builder

	b.WriteString("# HELP media_jobs Number of jobs by workflow and status\n")
	b.WriteString("# TYPE media_jobs gauge\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "media_jobs{workflow=\"%s\",status=\"%s\"} %d\n", k.workflow, k.status, counts[k])
	}

	b.WriteString("# HELP media_jobs_active Jobs not yet in a terminal state\n")
	b.WriteString("# TYPE media_jobs_active gauge\n")
	fmt.Fprintf(&b, "media_jobs_active %d\n", active)

	if me.scheduler != nil {
		stats := me.scheduler.Stats()

		b.WriteString("# HELP media_queue_depth Tasks waiting for a worker\n")
		b.WriteString("# TYPE media_queue_depth gauge\n")
		fmt.Fprintf(&b, "media_queue_depth %d\n", stats.QueueDepth)

		b.WriteString("# HELP media_queue_capacity Maximum waiting tasks\n")
		b.WriteString("# TYPE media_queue_capacity gauge\n")
		fmt.Fprintf(&b, "media_queue_capacity %d\n", stats.QueueCap)

		b.WriteString("# HELP media_workers_busy Workers currently running a task\n")
		b.WriteString("# TYPE media_workers_busy gauge\n")
		fmt.Fprintf(&b, "media_workers_busy %d\n", stats.Running)

		b.WriteString("# HELP media_workers Size of the worker pool\n")
		b.WriteString("# TYPE media_workers gauge\n")
		fmt.Fprintf(&b, "media_workers %d\n", stats.Workers)

		b.WriteString("# HELP media_tasks_completed_total Tasks finished without error\n")
		b.WriteString("# TYPE media_tasks_completed_total counter\n")
		fmt.Fprintf(&b, "media_tasks_completed_total %d\n", stats.Completed)

		b.WriteString("# HELP media_tasks_failed_total Tasks that returned an error or panicked\n")
		b.WriteString("# TYPE media_tasks_failed_total counter\n")
		fmt.Fprintf(&b, "media_tasks_failed_total %d\n", stats.Failed)
	}

	return b.String(), nil
}
