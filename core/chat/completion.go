package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"media-toolkit/core/models"

	openai "github.com/sashabaranov/go-openai"
)

// Completer produces the assistant reply for a transcript
type Completer interface {
	Complete(ctx context.Context, history []models.ChatMessage) (string, error)
}

// CompletionClient talks to an OpenAI-compatible chat completions API
type CompletionClient struct {
	client *openai.Client
	model  string
}

// NewCompletionClient creates a client for baseURL (e.g. https://api.openai.com/v1)
func NewCompletionClient(baseURL, apiKey, model string, timeout time.Duration) *CompletionClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &CompletionClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends the whole transcript and returns the first choice
func (c *CompletionClient) Complete(ctx context.Context, history []models.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{Model: c.model}
	for _, msg := range history {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("completion API returned status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", fmt.Errorf("completion API returned status %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
