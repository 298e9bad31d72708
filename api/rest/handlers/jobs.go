package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
	"media-toolkit/core/scheduler"
	"media-toolkit/core/workflows"

	"github.com/gorilla/mux"
)

// errServerBusy is recorded on jobs rejected by a saturated scheduler
var errServerBusy = errors.New("server busy")

// lookupJob loads the job named by the job_id path variable.
// Ids of another workflow are answered like unknown ids.
func lookupJob(w http.ResponseWriter, r *http.Request, store repository.JobStore, workflow models.Workflow) (*models.Job, bool) {
	jobID := mux.Vars(r)["job_id"]
	if !validID(jobID) {
		writeError(w, http.StatusNotFound, "Job not found")
		return nil, false
	}

	job, err := store.Get(r.Context(), jobID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && job.Workflow != workflow) {
		writeError(w, http.StatusNotFound, "Job not found")
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to load job %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load job")
		return nil, false
	}
	return job, true
}

// submitTask queues a task for an existing job. On rejection the job is
// marked failed and the error response is written.
func submitTask(ctx context.Context, w http.ResponseWriter, store repository.JobStore, submitter TaskSubmitter, task scheduler.Task) bool {
	err := submitter.Submit(task)
	if err == nil {
		return true
	}

	tracker := workflows.NewTracker(store, task.JobID)
	if errors.Is(err, scheduler.ErrQueueFull) {
		tracker.Fail(ctx, errServerBusy)
		writeError(w, http.StatusServiceUnavailable, "Server is busy, please try again later")
		return false
	}

	tracker.Fail(ctx, err)
	writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
	return false
}

// writeJobStatus answers a status poll
func writeJobStatus(w http.ResponseWriter, job *models.Job) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job":     job,
	})
}

// resultName reads a string artifact name from the job results
func resultName(job *models.Job, key string) (string, bool) {
	if job.Results == nil {
		return "", false
	}
	name, ok := job.Results[key].(string)
	return name, ok && name != ""
}
