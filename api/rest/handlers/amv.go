package handlers

import (
	"log"
	"net/http"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
	"media-toolkit/core/spec"
	"media-toolkit/core/tools"
	"media-toolkit/core/workflows"
	"media-toolkit/storage"

	"github.com/gorilla/mux"
)

// AMVHandler serves the AMV generator endpoints
type AMVHandler struct {
	store     repository.JobStore
	scheduler TaskSubmitter
	generator *workflows.AMVGenerator
	profile   *spec.Profile
	artifacts *storage.ArtifactStore
	maxUpload int64
}

// NewAMVHandler creates a new AMV handler
func NewAMVHandler(
	store repository.JobStore,
	sched TaskSubmitter,
	generator *workflows.AMVGenerator,
	profile *spec.Profile,
	artifacts *storage.ArtifactStore,
	maxUpload int64,
) *AMVHandler {
	return &AMVHandler{
		store:     store,
		scheduler: sched,
		generator: generator,
		profile:   profile,
		artifacts: artifacts,
		maxUpload: maxUpload,
	}
}

// Generate handles POST /amv_generator/generate
func (h *AMVHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeUploadError(w, err, "Error starting AMV generation")
		return
	}

	file, header, err := formFile(r, "video", "No video file provided", "No video file selected")
	if err != nil {
		writeUploadError(w, err, "Error starting AMV generation")
		return
	}
	defer file.Close()

	rawURL := r.FormValue("music_url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "YouTube music URL is required")
		return
	}
	if !hasExtension(header.Filename, videoExtensions) {
		writeError(w, http.StatusBadRequest, "Only MP4, MKV, and AVI video files are allowed")
		return
	}
	musicURL, err := tools.ValidateMusicURL(rawURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid music URL: must be an http or https link")
		return
	}

	upload, err := saveUpload(h.artifacts, storage.KindVideos, file, header)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error starting AMV generation: failed to save upload")
		return
	}

	job := models.NewJob(upload.ID, models.WorkflowAMV, models.PhaseGenerate, upload.Filename)
	job.SourcePath = upload.Path
	if err := h.store.Create(r.Context(), job); err != nil {
		log.Printf("Failed to create job %s: %v", job.ID, err)
		writeError(w, http.StatusInternalServerError, "Error starting AMV generation")
		return
	}

	if !submitTask(r.Context(), w, h.store, h.scheduler, h.generator.Task(job.ID, upload.Path, musicURL)) {
		return
	}

	log.Printf("AMV job %s queued for %s", job.ID, upload.Filename)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  job.ID,
		"message": "AMV generation started",
	})
}

// Status handles GET /amv_generator/status/{job_id}
func (h *AMVHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r, h.store, models.WorkflowAMV)
	if !ok {
		return
	}
	writeJobStatus(w, job)
}

// Download handles GET /amv_generator/download/{job_id}/{clip_type}
func (h *AMVHandler) Download(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r, h.store, models.WorkflowAMV)
	if !ok {
		return
	}

	if job.Status != models.JobStatusCompleted {
		writeError(w, http.StatusBadRequest, "AMV generation has not completed yet")
		return
	}

	clip, ok := h.profile.Clip(mux.Vars(r)["clip_type"])
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid clip type")
		return
	}

	name, ok := resultName(job, clip.ResultKey)
	if !ok {
		writeError(w, http.StatusNotFound, "No results available")
		return
	}

	path := h.artifacts.ResultPath(storage.KindAMV, name)
	if !storage.Exists(path) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	serveAttachment(w, r, path, name, "video/mp4")
}
