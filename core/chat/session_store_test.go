package chat

import (
	"context"
	"fmt"
	"testing"

	"media-toolkit/core/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// TestRedisSessionStore verifies trimming, expiry and clearing of a transcript.
func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisSessionStore(client, 3)
	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, "s1", models.ChatMessage{Role: models.ChatRoleUser, Content: fmt.Sprint(i)}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	history, err := store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 || history[0].Content != "2" || history[2].Content != "4" {
		t.Fatalf("history = %+v", history)
	}
	if ttl := mr.TTL("media:chat:s1"); ttl != redisChatTTL {
		t.Fatalf("ttl = %s, want %s", ttl, redisChatTTL)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	history, _ = store.History(ctx, "s1")
	if len(history) != 0 {
		t.Fatalf("history after clear = %+v", history)
	}
}

// TestServiceWithRedisStore verifies the placeholder flow against Redis.
func TestServiceWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc := NewService(NewRedisSessionStore(client, 100), nil)
	if _, err := svc.Send(context.Background(), "s1", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	history, _ := svc.History(context.Background(), "s1")
	if len(history) != 2 || history[1].Role != models.ChatRoleAssistant || history[1].Content != PlaceholderResponse {
		t.Fatalf("history = %+v", history)
	}
}
