package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"media-toolkit/core/models"

	"github.com/redis/go-redis/v9"
)

const (
	redisJobKeyPrefix  = "media:job:"
	redisUpdateRetries = 10
)

// redisJob is the stored envelope; it carries the fields hidden from JSON responses
type redisJob struct {
	*models.Job
	SourcePath string         `json:"source_path"`
	Scenes     []models.Scene `json:"scenes,omitempty"`
}

// RedisJobStore persists job records as JSON values in Redis
type RedisJobStore struct {
	client *redis.Client
}

// NewRedisJobStore connects to Redis using a redis:// URL
func NewRedisJobStore(ctx context.Context, redisURL string) (*RedisJobStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisJobStore{client: client}, nil
}

// NewRedisJobStoreFromClient wraps an existing client
func NewRedisJobStoreFromClient(client *redis.Client) *RedisJobStore {
	return &RedisJobStore{client: client}
}

// Close closes the underlying client
func (s *RedisJobStore) Close() error {
	return s.client.Close()
}

func redisJobKey(id string) string {
	return redisJobKeyPrefix + id
}

// Create stores a job only if its key is unused
func (s *RedisJobStore) Create(ctx context.Context, job *models.Job) error {
	data, err := encodeRedisJob(job)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, redisJobKey(job.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Get loads a job by id
func (s *RedisJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	data, err := s.client.Get(ctx, redisJobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRedisJob(data)
}

// Update runs mutate inside a WATCH transaction, retrying on conflicting writes
func (s *RedisJobStore) Update(ctx context.Context, id string, mutate func(*models.Job) error) (*models.Job, error) {
	key := redisJobKey(id)
	var updated *models.Job

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		job, err := decodeRedisJob(data)
		if err != nil {
			return err
		}
		if err := mutate(job); err != nil {
			return err
		}
		job.ID = id
		job.UpdatedAt = time.Now().UTC()

		encoded, err := encodeRedisJob(job)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			updated = job
		}
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update of job %s conflicted %d times", id, redisUpdateRetries)
}

// List scans all job keys
func (s *RedisJobStore) List(ctx context.Context) ([]*models.Job, error) {
	var jobs []*models.Job

	iter := s.client.Scan(ctx, 0, redisJobKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		job, err := decodeRedisJob(data)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs, nil
}

func encodeRedisJob(job *models.Job) ([]byte, error) {
	data, err := json.Marshal(redisJob{Job: job, SourcePath: job.SourcePath, Scenes: job.Scenes})
	if err != nil {
		return nil, fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}
	return data, nil
}

func decodeRedisJob(data []byte) (*models.Job, error) {
	envelope := redisJob{Job: &models.Job{}}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	job := envelope.Job
	job.SourcePath = envelope.SourcePath
	job.Scenes = envelope.Scenes
	return job, nil
}
