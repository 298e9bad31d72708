package routes

import (
	"net/http"

	"media-toolkit/api/rest/handlers"
	"media-toolkit/api/rest/middleware"

	"github.com/gorilla/mux"
)

// Handlers bundles the endpoint groups mounted by SetupRoutes
type Handlers struct {
	AMV     *handlers.AMVHandler
	Editor  *handlers.EditorHandler
	Scanner *handlers.ScannerHandler
	Chat    *handlers.ChatHandler
	System  *handlers.SystemHandler
}

// SetupRoutes configures all API routes. Endpoints that start work go through limiter.
func SetupRoutes(r *mux.Router, h Handlers, limiter *middleware.RateLimiter) {
	limited := func(fn http.HandlerFunc) http.Handler {
		if limiter == nil {
			return fn
		}
		return limiter.Middleware(fn)
	}

	// AMV generator
	amv := r.PathPrefix("/amv_generator").Subrouter()
	amv.Handle("/generate", limited(h.AMV.Generate)).Methods("POST")
	amv.HandleFunc("/status/{job_id}", h.AMV.Status).Methods("GET")
	amv.HandleFunc("/download/{job_id}/{clip_type}", h.AMV.Download).Methods("GET")

	// Scene editor
	editor := r.PathPrefix("/anime_editor").Subrouter()
	editor.Handle("/detect_scenes", limited(h.Editor.DetectScenes)).Methods("POST")
	editor.Handle("/edit_video", limited(h.Editor.EditVideo)).Methods("POST")
	editor.HandleFunc("/status/{job_id}", h.Editor.Status).Methods("GET")
	editor.HandleFunc("/thumbnail/{job_id}/{scene_id}", h.Editor.Thumbnail).Methods("GET")
	editor.HandleFunc("/download/{job_id}", h.Editor.Download).Methods("GET")

	// Code scanner
	scanner := r.PathPrefix("/bug_scanner").Subrouter()
	scanner.Handle("/scan", limited(h.Scanner.Scan)).Methods("POST")
	scanner.HandleFunc("/report/{scan_id}", h.Scanner.Report).Methods("GET")
	scanner.HandleFunc("/download/{scan_id}", h.Scanner.Download).Methods("GET")

	// Chat
	chat := r.PathPrefix("/chat").Subrouter()
	chat.Handle("/send", limited(h.Chat.Send)).Methods("POST")
	chat.HandleFunc("/history", h.Chat.History).Methods("GET")
	chat.HandleFunc("/clear", h.Chat.Clear).Methods("POST")

	// System
	r.HandleFunc("/health", h.System.Health).Methods("GET")
	r.HandleFunc("/health/tools", h.System.Tools).Methods("GET")
	r.HandleFunc("/metrics", h.System.Metrics).Methods("GET")
}
