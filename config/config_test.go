package config

import (
	"testing"
	"time"
)

// TestLoadDefaults verifies baseline values when no environment is set.
func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "MAX_UPLOAD_BYTES", "WORKER_CONCURRENCY", "JOB_STORE", "OPENAI_API_KEY", "STALL_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ServerPort != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.ServerPort)
	}
	if cfg.MaxUploadBytes != 500*1024*1024 {
		t.Fatalf("max upload = %d, want 500MiB", cfg.MaxUploadBytes)
	}
	if cfg.WorkerConcurrency != 2 {
		t.Fatalf("concurrency = %d, want 2", cfg.WorkerConcurrency)
	}
	if cfg.JobStore != "memory" {
		t.Fatalf("job store = %q, want memory", cfg.JobStore)
	}
	if cfg.OpenAIAPIKey != "" {
		t.Fatalf("api key = %q, want empty", cfg.OpenAIAPIKey)
	}
	if cfg.StallTimeout != 15*time.Minute {
		t.Fatalf("stall timeout = %s, want 15m", cfg.StallTimeout)
	}
}

// TestLoadOverrides checks typed parsing of environment overrides.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("STALL_TIMEOUT", "90s")
	t.Setenv("JOB_STORE", "postgres")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.ServerPort)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("concurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("rps = %v, want 0.5", cfg.RateLimitRPS)
	}
	if cfg.StallTimeout != 90*time.Second {
		t.Fatalf("stall timeout = %s, want 90s", cfg.StallTimeout)
	}
	if cfg.JobStore != "postgres" {
		t.Fatalf("job store = %q, want postgres", cfg.JobStore)
	}
	if !cfg.TrustProxy {
		t.Fatal("trust proxy = false, want true")
	}
}

// TestLoadInvalidIntFallsBack keeps defaults on malformed numbers.
func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("QUEUE_CAPACITY", "lots")

	cfg := Load()
	if cfg.QueueCapacity != 32 {
		t.Fatalf("queue capacity = %d, want 32", cfg.QueueCapacity)
	}
}
