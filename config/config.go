package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort     string
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool

	// Storage layout
	UploadDir  string
	ResultsDir string
	TempDir    string

	// Workers
	WorkerConcurrency int
	QueueCapacity     int
	StallTimeout      time.Duration
	WorkflowProfile   string

	// Job and chat state
	JobStore         string
	DatabaseURL      string
	RedisURL         string
	ChatStore        string
	ChatHistoryLimit int

	// Completion API
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Artifact mirror
	S3Bucket   string
	S3Prefix   string
	S3Endpoint string
	AWSRegion  string
}

// Load loads configuration from an optional .env file and environment variables
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 500*1024*1024),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),

		UploadDir:  getEnv("UPLOAD_DIR", "uploads"),
		ResultsDir: getEnv("RESULTS_DIR", "results"),
		TempDir:    getEnv("TEMP_DIR", os.TempDir()),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		QueueCapacity:     getEnvInt("QUEUE_CAPACITY", 32),
		StallTimeout:      getEnvDuration("STALL_TIMEOUT", 15*time.Minute),
		WorkflowProfile:   getEnv("WORKFLOW_PROFILE", ""),

		JobStore:         getEnv("JOB_STORE", "memory"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ChatStore:        getEnv("CHAT_STORE", "memory"),
		ChatHistoryLimit: getEnvInt("CHAT_HISTORY_LIMIT", 100),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		S3Bucket:   getEnv("S3_BUCKET", ""),
		S3Prefix:   getEnv("S3_PREFIX", "media-toolkit"),
		S3Endpoint: getEnv("S3_ENDPOINT", ""),
		AWSRegion:  getEnv("AWS_REGION", "us-east-1"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid %s value %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid %s value %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Invalid %s value %q, using %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid %s value %q, using %g", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid %s value %q, using %s", key, value, defaultValue)
	}
	return defaultValue
}
