package models

import "time"

// Job is the progress record of one asynchronous workflow run
type Job struct {
	ID          string         `json:"id"`
	Workflow    Workflow       `json:"workflow"`
	Filename    string         `json:"filename"`
	Status      JobStatus      `json:"status"`
	Phase       Phase          `json:"phase"`
	Progress    int            `json:"progress"`
	CurrentStep string         `json:"current_step"`
	Results     map[string]any `json:"results"`
	Error       *string        `json:"error"`
	StartTime   time.Time      `json:"start_time"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Kept by the stores, never rendered to clients.
	SourcePath string  `json:"-"`
	Scenes     []Scene `json:"-"`
}

// Workflow identifies which pipeline owns a job
type Workflow string

const (
	WorkflowAMV    Workflow = "amv"
	WorkflowScenes Workflow = "scenes"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusStarting         JobStatus = "starting"
	JobStatusProcessing       JobStatus = "processing"
	JobStatusDownloadingMusic JobStatus = "downloading_music"
	JobStatusScenesDetected   JobStatus = "scenes_detected"
	JobStatusCompleted        JobStatus = "completed"
	JobStatusError            JobStatus = "error"
)

// Phase separates the independently triggered halves of a workflow
type Phase string

const (
	PhaseGenerate Phase = "generate"
	PhaseDetect   Phase = "detect"
	PhaseEdit     Phase = "edit"
)

// IsSuccess reports whether results are expected for the status
func (s JobStatus) IsSuccess() bool {
	return s == JobStatusCompleted || s == JobStatusScenesDetected
}

// IsTerminal reports whether no worker is advancing a job in this status
func (s JobStatus) IsTerminal() bool {
	return s.IsSuccess() || s == JobStatusError
}

// NewJob creates a job record in the starting state
func NewJob(id string, workflow Workflow, phase Phase, filename string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          id,
		Workflow:    workflow,
		Filename:    filename,
		Status:      JobStatusStarting,
		Phase:       phase,
		Progress:    0,
		CurrentStep: "Job queued",
		StartTime:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a copy that shares no mutable state with j
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Results != nil {
		out.Results = make(map[string]any, len(j.Results))
		for k, v := range j.Results {
			out.Results[k] = v
		}
	}
	if j.Error != nil {
		msg := *j.Error
		out.Error = &msg
	}
	if j.Scenes != nil {
		out.Scenes = append([]Scene(nil), j.Scenes...)
	}
	return &out
}

// ErrorMessage returns the failure message or an empty string
func (j *Job) ErrorMessage() string {
	if j.Error == nil {
		return ""
	}
	return *j.Error
}
