package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"media-toolkit/core/chat"

	"github.com/google/uuid"
)

// ChatHandler serves the chat endpoints
type ChatHandler struct {
	service *chat.Service
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatRequest is the body of the send and clear endpoints
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Send handles POST /chat/send. An empty session id starts a new session.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	reply, err := h.service.Send(r.Context(), sessionID, req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if err != nil {
		log.Printf("Chat error for session %s: %v", sessionID, err)
		writeError(w, http.StatusBadGateway, "Error generating response")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    reply,
		"session_id": sessionID,
	})
}

// History handles GET /chat/history?session_id=
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	history, err := h.service.History(r.Context(), sessionID)
	if err != nil {
		log.Printf("Failed to load chat history %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"history": history,
	})
}

// Clear handles POST /chat/clear
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	if err := h.service.Clear(r.Context(), sessionID); err != nil {
		log.Printf("Failed to clear chat history %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
