package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"media-toolkit/core/scheduler"

	"github.com/google/uuid"
)

// TaskSubmitter queues background work
type TaskSubmitter interface {
	Submit(task scheduler.Task) error
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

// validID reports whether s is a canonical UUID, as handed out by this server
func validID(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.String() == s
}

// serveAttachment streams a file as a download under name
func serveAttachment(w http.ResponseWriter, r *http.Request, path, name, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(name)))
	http.ServeFile(w, r, path)
}
