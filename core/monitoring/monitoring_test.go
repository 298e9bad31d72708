package monitoring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
	"media-toolkit/core/scheduler"
)

type fakeStats struct{ stats scheduler.Stats }

func (f fakeStats) Stats() scheduler.Stats { return f.stats }

func seedJobs(t *testing.T) *repository.MemoryJobStore {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryJobStore()
	_ = store.Create(ctx, models.NewJob("a", models.WorkflowAMV, models.PhaseGenerate, "a.mp4"))
	_ = store.Create(ctx, models.NewJob("b", models.WorkflowAMV, models.PhaseGenerate, "b.mp4"))
	_ = store.Create(ctx, models.NewJob("c", models.WorkflowScenes, models.PhaseDetect, "c.mp4"))
	_, _ = store.Update(ctx, "b", func(j *models.Job) error {
		j.Status = models.JobStatusCompleted
		j.Results = map[string]any{}
		return nil
	})
	return store
}

// TestMetricsExporter verifies job counts and scheduler gauges are rendered.
func TestMetricsExporter(t *testing.T) {
	exporter := NewMetricsExporter(seedJobs(t), fakeStats{scheduler.Stats{Workers: 2, QueueDepth: 3, QueueCap: 32, Running: 1}})

	text, err := exporter.GetPrometheusMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetPrometheusMetrics() error = %v", err)
	}

	for _, want := range []string{
		`media_jobs{workflow="amv",status="completed"} 1`,
		`media_jobs{workflow="amv",status="starting"} 1`,
		`media_jobs{workflow="scenes",status="starting"} 1`,
		"media_jobs_active 2",
		"media_queue_depth 3",
		"media_workers 2",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics missing %q:\n%s", want, text)
		}
	}
}

// TestJobMonitorFlagsStalledJobs verifies stalls are reported once and reset on progress.
func TestJobMonitorFlagsStalledJobs(t *testing.T) {
	ctx := context.Background()
	store := seedJobs(t)
	monitor := NewJobMonitor(store, time.Minute)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	monitor.now = func() time.Time { return clock }

	if stalled := monitor.CheckJobs(ctx); len(stalled) != 0 {
		t.Fatalf("first check stalled = %v", stalled)
	}

	clock = clock.Add(2 * time.Minute)
	_, _ = store.Update(ctx, "c", func(j *models.Job) error {
		j.Progress = 50
		return nil
	})

	stalled := monitor.CheckJobs(ctx)
	if len(stalled) != 1 || stalled[0] != "a" {
		t.Fatalf("stalled = %v, want [a]", stalled)
	}

	clock = clock.Add(2 * time.Minute)
	stalled = monitor.CheckJobs(ctx)
	if len(stalled) != 1 || stalled[0] != "c" {
		t.Fatalf("stalled = %v, want [c]", stalled)
	}
}

// TestToolChecker verifies found and missing tools.
func TestToolChecker(t *testing.T) {
	checker := NewToolChecker([]string{"ffmpeg", "semgrep"})
	checker.lookPath = func(name string) (string, error) {
		if name == "ffmpeg" {
			return "/usr/bin/ffmpeg", nil
		}
		return "", errors.New("not found")
	}

	statuses := checker.Check()
	if len(statuses) != 2 || !statuses[0].Found || statuses[0].Path != "/usr/bin/ffmpeg" || statuses[1].Found {
		t.Fatalf("statuses = %+v", statuses)
	}
	if missing := checker.Missing(); len(missing) != 1 || missing[0] != "semgrep" {
		t.Fatalf("missing = %v", missing)
	}
}
