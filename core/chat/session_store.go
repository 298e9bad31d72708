package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"media-toolkit/core/models"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the transcript of each chat session, bounded to the newest messages
type SessionStore interface {
	Append(ctx context.Context, sessionID string, messages ...models.ChatMessage) error
	History(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemorySessionStore keeps transcripts in process memory
type MemorySessionStore struct {
	mu       sync.RWMutex
	limit    int
	sessions map[string][]models.ChatMessage
}

// NewMemorySessionStore creates a store keeping at most limit messages per session
func NewMemorySessionStore(limit int) *MemorySessionStore {
	return &MemorySessionStore{
		limit:    limit,
		sessions: make(map[string][]models.ChatMessage),
	}
}

// Append adds messages to the end of a transcript
func (s *MemorySessionStore) Append(ctx context.Context, sessionID string, messages ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], messages...)
	if s.limit > 0 && len(history) > s.limit {
		history = append([]models.ChatMessage(nil), history[len(history)-s.limit:]...)
	}
	s.sessions[sessionID] = history
	return nil
}

// History returns a copy of a transcript; unknown sessions are empty
func (s *MemorySessionStore) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.ChatMessage{}, s.sessions[sessionID]...), nil
}

// Clear drops a transcript
func (s *MemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

const (
	redisChatKeyPrefix = "media:chat:"
	redisChatTTL       = 24 * time.Hour
)

// RedisSessionStore keeps each transcript in a capped Redis list
type RedisSessionStore struct {
	client *redis.Client
	limit  int
}

// NewRedisSessionStore wraps a connected client
func NewRedisSessionStore(client *redis.Client, limit int) *RedisSessionStore {
	return &RedisSessionStore{client: client, limit: limit}
}

func redisChatKey(sessionID string) string {
	return redisChatKeyPrefix + sessionID
}

// Append pushes messages, trims the list and refreshes its expiry in one round trip
func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, messages ...models.ChatMessage) error {
	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode chat message: %w", err)
		}
		values = append(values, data)
	}

	key := redisChatKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if s.limit > 0 {
			pipe.LTrim(ctx, key, int64(-s.limit), -1)
		}
		pipe.Expire(ctx, key, redisChatTTL)
		return nil
	})
	return err
}

// History reads the whole transcript
func (s *RedisSessionStore) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, redisChatKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	history := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode chat message: %w", err)
		}
		history = append(history, msg)
	}
	return history, nil
}

// Clear deletes the transcript
func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, redisChatKey(sessionID)).Err()
}
