package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
	"media-toolkit/core/tools"
	"media-toolkit/core/workflows"
	"media-toolkit/storage"

	"github.com/gorilla/mux"
)

// EditorHandler serves the scene detection and editing endpoints
type EditorHandler struct {
	store     repository.JobStore
	scheduler TaskSubmitter
	editor    *workflows.SceneEditor
	artifacts *storage.ArtifactStore
	maxUpload int64
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(
	store repository.JobStore,
	sched TaskSubmitter,
	editor *workflows.SceneEditor,
	artifacts *storage.ArtifactStore,
	maxUpload int64,
) *EditorHandler {
	return &EditorHandler{
		store:     store,
		scheduler: sched,
		editor:    editor,
		artifacts: artifacts,
		maxUpload: maxUpload,
	}
}

// EditVideoRequest is the body of POST /anime_editor/edit_video
type EditVideoRequest struct {
	JobID          string `json:"job_id"`
	SelectedScenes []int  `json:"selected_scenes"`
	MusicURL       string `json:"music_url"`
}

// DetectScenes handles POST /anime_editor/detect_scenes
func (h *EditorHandler) DetectScenes(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeUploadError(w, err, "Error starting scene detection")
		return
	}

	file, header, err := formFile(r, "video", "No video file provided", "No video file selected")
	if err != nil {
		writeUploadError(w, err, "Error starting scene detection")
		return
	}
	defer file.Close()

	if !hasExtension(header.Filename, videoExtensions) {
		writeError(w, http.StatusBadRequest, "Only MP4, MKV, and AVI video files are allowed")
		return
	}

	upload, err := saveUpload(h.artifacts, storage.KindVideos, file, header)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error starting scene detection: failed to save upload")
		return
	}

	job := models.NewJob(upload.ID, models.WorkflowScenes, models.PhaseDetect, upload.Filename)
	job.SourcePath = upload.Path
	if err := h.store.Create(r.Context(), job); err != nil {
		log.Printf("Failed to create job %s: %v", job.ID, err)
		writeError(w, http.StatusInternalServerError, "Error starting scene detection")
		return
	}

	if !submitTask(r.Context(), w, h.store, h.scheduler, h.editor.DetectTask(job.ID, upload.Path)) {
		return
	}

	log.Printf("Scene detection job %s queued for %s", job.ID, upload.Filename)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  job.ID,
		"message": "Scene detection started",
	})
}

// EditVideo handles POST /anime_editor/edit_video
func (h *EditorHandler) EditVideo(w http.ResponseWriter, r *http.Request) {
	var req EditVideoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.JobID = strings.TrimSpace(req.JobID)
	if req.JobID == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}
	if !validID(req.JobID) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if len(req.SelectedScenes) == 0 {
		writeError(w, http.StatusBadRequest, "No scenes selected")
		return
	}
	if strings.TrimSpace(req.MusicURL) == "" {
		writeError(w, http.StatusBadRequest, "YouTube music URL is required")
		return
	}
	musicURL, err := tools.ValidateMusicURL(req.MusicURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid music URL: must be an http or https link")
		return
	}

	if _, err := h.editor.StartEdit(r.Context(), req.JobID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Job not found")
		case errors.Is(err, workflows.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "Scene detection must be completed first")
		default:
			log.Printf("Failed to start edit of job %s: %v", req.JobID, err)
			writeError(w, http.StatusInternalServerError, "Error starting video editing")
		}
		return
	}

	if !submitTask(r.Context(), w, h.store, h.scheduler, h.editor.EditTask(req.JobID, req.SelectedScenes, musicURL)) {
		return
	}

	log.Printf("Edit of job %s queued with %d scenes", req.JobID, len(req.SelectedScenes))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  req.JobID,
		"message": "Video editing started",
	})
}

// Status handles GET /anime_editor/status/{job_id}
func (h *EditorHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r, h.store, models.WorkflowScenes)
	if !ok {
		return
	}
	writeJobStatus(w, job)
}

// Thumbnail handles GET /anime_editor/thumbnail/{job_id}/{scene_id}
func (h *EditorHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r, h.store, models.WorkflowScenes)
	if !ok {
		return
	}

	sceneID, err := strconv.Atoi(mux.Vars(r)["scene_id"])
	if err != nil || sceneID < 0 {
		writeError(w, http.StatusNotFound, "Thumbnail not found")
		return
	}

	path := h.artifacts.ResultPath(storage.KindEdited, workflows.ThumbnailFile(job.ID, sceneID))
	if !storage.Exists(path) {
		writeError(w, http.StatusNotFound, "Thumbnail not found")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// Download handles GET /anime_editor/download/{job_id}
func (h *EditorHandler) Download(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r, h.store, models.WorkflowScenes)
	if !ok {
		return
	}

	if job.Status != models.JobStatusCompleted || job.Phase != models.PhaseEdit {
		writeError(w, http.StatusBadRequest, "Video editing has not completed yet")
		return
	}

	name, ok := resultName(job, "edited_video")
	if !ok {
		writeError(w, http.StatusNotFound, "No results available")
		return
	}

	path := h.artifacts.ResultPath(storage.KindEdited, name)
	if !storage.Exists(path) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	serveAttachment(w, r, path, name, "video/mp4")
}
