package handlers

import (
	"log"
	"net/http"

	"media-toolkit/core/monitoring"
)

// SystemHandler serves health, tool availability and metrics
type SystemHandler struct {
	metrics *monitoring.MetricsExporter
	tools   *monitoring.ToolChecker
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(metrics *monitoring.MetricsExporter, tools *monitoring.ToolChecker) *SystemHandler {
	return &SystemHandler{metrics: metrics, tools: tools}
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Tools handles GET /health/tools
func (h *SystemHandler) Tools(w http.ResponseWriter, r *http.Request) {
	statuses := h.tools.Check()
	allFound := true
	for _, s := range statuses {
		if !s.Found {
			allFound = false
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": allFound,
		"tools":   statuses,
	})
}

// Metrics handles GET /metrics
func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	text, err := h.metrics.GetPrometheusMetrics(r.Context())
	if err != nil {
		log.Printf("Failed to render metrics: %v", err)
		http.Error(w, "Failed to render metrics", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(text))
}
