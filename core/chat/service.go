package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"media-toolkit/core/models"
)

// PlaceholderResponse is returned when no completion API key is configured
const PlaceholderResponse = "Chat is not configured on this server. Set OPENAI_API_KEY to enable AI responses."

// ErrEmptyMessage is returned for a blank user message
var ErrEmptyMessage = errors.New("message is required")

// Service runs chat turns against a session store and an optional completer
type Service struct {
	store     SessionStore
	completer Completer
}

// NewService creates the chat service; a nil completer answers with PlaceholderResponse
func NewService(store SessionStore, completer Completer) *Service {
	return &Service{store: store, completer: completer}
}

// Configured reports whether replies come from a completion API
func (s *Service) Configured() bool {
	return s.completer != nil
}

// Send appends the user turn, obtains a reply and appends it.
// The user turn stays in the transcript when the completion call fails.
func (s *Service) Send(ctx context.Context, sessionID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	userTurn := models.ChatMessage{Role: models.ChatRoleUser, Content: message, Timestamp: time.Now().UTC()}
	if err := s.store.Append(ctx, sessionID, userTurn); err != nil {
		return "", fmt.Errorf("failed to save message: %w", err)
	}

	reply := PlaceholderResponse
	if s.completer != nil {
		history, err := s.store.History(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("failed to load history: %w", err)
		}
		reply, err = s.completer.Complete(ctx, history)
		if err != nil {
			log.Printf("Chat completion failed for session %s: %v", sessionID, err)
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
	}

	assistantTurn := models.ChatMessage{Role: models.ChatRoleAssistant, Content: reply, Timestamp: time.Now().UTC()}
	if err := s.store.Append(ctx, sessionID, assistantTurn); err != nil {
		return "", fmt.Errorf("failed to save reply: %w", err)
	}
	return reply, nil
}

// History returns the transcript of a session
func (s *Service) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	return s.store.History(ctx, sessionID)
}

// Clear drops the transcript of a session
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}
