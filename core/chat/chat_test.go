package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"media-toolkit/core/models"
)

// TestSendWithoutCompleterUsesPlaceholder verifies the unconfigured chat scenario.
func TestSendWithoutCompleterUsesPlaceholder(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemorySessionStore(100), nil)

	reply, err := svc.Send(ctx, "s1", "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != PlaceholderResponse {
		t.Fatalf("reply = %q, want placeholder", reply)
	}

	history, _ := svc.History(ctx, "s1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != models.ChatRoleUser || history[0].Content != "hello" {
		t.Fatalf("user turn = %+v", history[0])
	}
	if history[1].Role != models.ChatRoleAssistant || history[1].Content != PlaceholderResponse {
		t.Fatalf("assistant turn = %+v", history[1])
	}

	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	history, _ = svc.History(ctx, "s1")
	if len(history) != 0 {
		t.Fatalf("history after clear = %d", len(history))
	}
}

// TestSendRejectsEmptyMessage checks blank input.
func TestSendRejectsEmptyMessage(t *testing.T) {
	svc := NewService(NewMemorySessionStore(100), nil)
	if _, err := svc.Send(context.Background(), "s1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("Send() error = %v, want ErrEmptyMessage", err)
	}
}

// TestMemorySessionStoreLimit verifies only the newest messages are kept.
func TestMemorySessionStoreLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(3)
	for i := 0; i < 5; i++ {
		_ = store.Append(ctx, "s", models.ChatMessage{Role: models.ChatRoleUser, Content: fmt.Sprint(i)})
	}
	history, _ := store.History(ctx, "s")
	if len(history) != 3 || history[0].Content != "2" || history[2].Content != "4" {
		t.Fatalf("history = %+v", history)
	}
}

// TestCompletionClientSendsTranscript verifies the request shape and reply parsing.
func TestCompletionClientSendsTranscript(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	svc := NewService(NewMemorySessionStore(100), NewCompletionClient(server.URL+"/", "sk-test", "gpt-4o-mini", 5*time.Second))
	_, _ = svc.Send(context.Background(), "s1", "first")
	reply, err := svc.Send(context.Background(), "s1", "second")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("reply = %q", reply)
	}
	if got.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", got.Model)
	}
	// first, hi there, second
	if len(got.Messages) != 3 || got.Messages[2].Content != "second" || got.Messages[1].Role != "assistant" {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

// TestCompletionClientError verifies API errors keep the user turn.
func TestCompletionClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	store := NewMemorySessionStore(100)
	svc := NewService(store, NewCompletionClient(server.URL, "bad", "gpt-4o-mini", 5*time.Second))

	_, err := svc.Send(context.Background(), "s1", "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "completion API returned status 401: invalid api key"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error = %q, want it to contain %q", err.Error(), want)
	}

	history, _ := store.History(context.Background(), "s1")
	if len(history) != 1 || history[0].Role != models.ChatRoleUser {
		t.Fatalf("history = %+v", history)
	}
}
