package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-toolkit/api/rest/handlers"
	"media-toolkit/api/rest/middleware"
	"media-toolkit/api/rest/routes"
	"media-toolkit/config"
	"media-toolkit/core/chat"
	"media-toolkit/core/executor"
	"media-toolkit/core/monitoring"
	"media-toolkit/core/repository"
	"media-toolkit/core/scheduler"
	"media-toolkit/core/spec"
	"media-toolkit/core/tools"
	"media-toolkit/core/workflows"
	"media-toolkit/providers/aws"
	"media-toolkit/storage"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load workflow profile
	profile, err := spec.LoadProfile(cfg.WorkflowProfile)
	if err != nil {
		log.Fatalf("Failed to load workflow profile: %v", err)
	}

	// Initialize artifact storage, mirrored to S3 when a bucket is configured
	var mirror storage.Mirror
	if cfg.S3Bucket != "" {
		s3Client, err := aws.NewClient(ctx, aws.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			log.Fatalf("Failed to initialize S3 mirror: %v", err)
		}
		mirror = s3Client
		log.Printf("Mirroring artifacts to s3://%s/%s", cfg.S3Bucket, cfg.S3Prefix)
	}
	artifacts := storage.NewArtifactStore(cfg.UploadDir, cfg.ResultsDir, mirror)
	if err := artifacts.EnsureLayout(); err != nil {
		log.Fatalf("Failed to create storage folders: %v", err)
	}

	// Shared redis client for the job and chat stores
	var redisClient *redis.Client
	if cfg.JobStore == "redis" || cfg.ChatStore == "redis" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected successfully")
	}

	// Initialize job store
	var jobStore repository.JobStore
	switch cfg.JobStore {
	case "postgres":
		pg, err := repository.NewPostgresJobStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		log.Println("Database connected successfully")
		jobStore = pg
	case "redis":
		jobStore = repository.NewRedisJobStoreFromClient(redisClient)
	default:
		jobStore = repository.NewMemoryJobStore()
	}
	log.Printf("Using %s job store", cfg.JobStore)

	// Initialize chat
	var sessions chat.SessionStore
	if cfg.ChatStore == "redis" {
		sessions = chat.NewRedisSessionStore(redisClient, cfg.ChatHistoryLimit)
	} else {
		sessions = chat.NewMemorySessionStore(cfg.ChatHistoryLimit)
	}
	var completer chat.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = chat.NewCompletionClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, 60*time.Second)
	} else {
		log.Println("OPENAI_API_KEY not set, chat will answer with a placeholder")
	}
	chatService := chat.NewService(sessions, completer)

	// Initialize tools
	toolbox := tools.NewToolbox(executor.NewExecRunner(), profile)
	toolChecker := monitoring.NewToolChecker(toolbox.Binaries())
	if missing := toolChecker.Missing(); len(missing) > 0 {
		log.Printf("Warning: missing external tools: %v", missing)
	}

	// Initialize workflows
	generator := workflows.NewAMVGenerator(jobStore, toolbox, profile, artifacts, cfg.TempDir)
	editor := workflows.NewSceneEditor(jobStore, toolbox, artifacts, cfg.TempDir)
	codeScanner := workflows.NewCodeScanner(toolbox, artifacts)

	// Initialize scheduler
	sched := scheduler.NewScheduler(cfg.WorkerConcurrency, cfg.QueueCapacity)
	sched.Start(ctx)
	defer sched.Stop()

	// Initialize stall monitor
	jobMonitor := monitoring.NewJobMonitor(jobStore, cfg.StallTimeout)
	go jobMonitor.Start(ctx)

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, routes.Handlers{
		AMV:     handlers.NewAMVHandler(jobStore, sched, generator, profile, artifacts, cfg.MaxUploadBytes),
		Editor:  handlers.NewEditorHandler(jobStore, sched, editor, artifacts, cfg.MaxUploadBytes),
		Scanner: handlers.NewScannerHandler(codeScanner, artifacts, cfg.MaxUploadBytes),
		Chat:    handlers.NewChatHandler(chatService),
		System:  handlers.NewSystemHandler(monitoring.NewMetricsExporter(jobStore, sched), toolChecker),
	}, middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:            cfg.RateLimitRPS,
		Burst:          cfg.RateLimitBurst,
		TrustForwarded: cfg.TrustProxy,
	}))

	// Start server
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	cancel()
	log.Println("Server exited")
}
