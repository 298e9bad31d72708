package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
	"media-toolkit/core/scheduler"
	"media-toolkit/core/tools"
	"media-toolkit/storage"
)

// ErrNoScenesSelected fails an edit whose selection matched no detected scene
var ErrNoScenesSelected = errors.New("none of the selected scenes were found")

// SceneEditor detects scenes in an upload and later re-edits a selection of them over music
type SceneEditor struct {
	store     repository.JobStore
	tools     *tools.Toolbox
	artifacts *storage.ArtifactStore
	tempDir   string
}

// NewSceneEditor creates the scene detection and editing workflow
func NewSceneEditor(store repository.JobStore, toolbox *tools.Toolbox, artifacts *storage.ArtifactStore, tempDir string) *SceneEditor {
	return &SceneEditor{
		store:     store,
		tools:     toolbox,
		artifacts: artifacts,
		tempDir:   absDir(tempDir),
	}
}

// ThumbnailFile names the still of one scene
func ThumbnailFile(jobID string, sceneID int) string {
	return fmt.Sprintf("thumb_%s_%d.jpg", jobID, sceneID)
}

// ScenesFile names the saved scene list of a job
func ScenesFile(jobID string) string {
	return fmt.Sprintf("scenes_%s.json", jobID)
}

// EditedFile names the final edited video of a job
func EditedFile(jobID string) string {
	return fmt.Sprintf("edited_%s.mp4", jobID)
}

// DetectTask wraps Detect for the scheduler
func (e *SceneEditor) DetectTask(jobID, videoPath string) scheduler.Task {
	return scheduler.Task{
		JobID: jobID,
		Name:  "detect_scenes",
		Run: func(ctx context.Context) error {
			return e.Detect(ctx, jobID, videoPath)
		},
		Abandon: abandonJob(e.store, jobID),
	}
}

// Detect finds scene boundaries, grabs one still per scene and stores the scene list
func (e *SceneEditor) Detect(ctx context.Context, jobID, videoPath string) error {
	tracker := NewTracker(e.store, jobID)
	log.Printf("Starting scene detection for job %s", jobID)

	scenes, err := e.detect(ctx, tracker, jobID, videoPath)
	if err != nil {
		log.Printf("Error detecting scenes for job %s: %v", jobID, err)
		tracker.Fail(ctx, err)
		return err
	}

	err = tracker.CompleteWith(ctx, models.JobStatusScenesDetected, "Scenes detected successfully", sceneResults(jobID, scenes), func(job *models.Job) {
		job.Scenes = scenes
	})
	if err != nil {
		return err
	}
	log.Printf("Scene detection completed for job %s: found %d scenes", jobID, len(scenes))
	return nil
}

func (e *SceneEditor) detect(ctx context.Context, tracker *Tracker, jobID, videoPath string) ([]models.Scene, error) {
	if err := tracker.Step(ctx, models.JobStatusProcessing, 10, "Detecting scenes..."); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(e.tempDir, "scenes-"+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	detected, err := e.tools.Scenes.Detect(ctx, videoPath, filepath.Join(workDir, "scenes.json"))
	if err != nil {
		return nil, err
	}

	scenes := make([]models.Scene, 0, len(detected))
	for k, d := range detected {
		thumb := ThumbnailFile(jobID, k)
		middle := (d.StartTime + d.EndTime) / 2
		if err := e.tools.FFmpeg.ExtractFrame(ctx, videoPath, middle, e.artifacts.ResultPath(storage.KindEdited, thumb)); err != nil {
			return nil, err
		}

		scenes = append(scenes, models.Scene{
			ID:        k,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			Duration:  d.EndTime - d.StartTime,
			Thumbnail: thumb,
		})

		progress := 10 + 80*(k+1)/len(detected)
		if progress > 90 {
			progress = 90
		}
		if err := tracker.Progress(ctx, progress, fmt.Sprintf("Generated thumbnail %d of %d", k+1, len(detected))); err != nil {
			return nil, err
		}
	}

	data, err := json.MarshalIndent(scenes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode scenes: %w", err)
	}
	scenesPath := e.artifacts.ResultPath(storage.KindEdited, ScenesFile(jobID))
	if err := os.WriteFile(scenesPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save scenes: %w", err)
	}

	return scenes, nil
}

func sceneResults(jobID string, scenes []models.Scene) map[string]any {
	return map[string]any{
		"scenes_file":  ScenesFile(jobID),
		"scenes_count": len(scenes),
		"scenes":       scenes,
	}
}

// StartEdit moves a job from scenes_detected into the edit phase.
// It is a compare-and-set: a second caller gets ErrInvalidState.
func (e *SceneEditor) StartEdit(ctx context.Context, jobID string) (*models.Job, error) {
	return e.store.Update(ctx, jobID, func(job *models.Job) error {
		if job.Workflow != models.WorkflowScenes {
			return repository.ErrNotFound
		}
		if job.Status != models.JobStatusScenesDetected {
			return ErrInvalidState
		}
		job.Phase = models.PhaseEdit
		job.Status = models.JobStatusDownloadingMusic
		job.Progress = 0
		job.CurrentStep = "Downloading music..."
		job.Results = nil
		job.Error = nil
		return nil
	})
}

// EditTask wraps Edit for the scheduler
func (e *SceneEditor) EditTask(jobID string, sceneIDs []int, musicURL string) scheduler.Task {
	return scheduler.Task{
		JobID: jobID,
		Name:  "edit_video",
		Run: func(ctx context.Context) error {
			return e.Edit(ctx, jobID, sceneIDs, musicURL)
		},
		Abandon: abandonJob(e.store, jobID),
	}
}

// Edit joins the selected scenes in caller order and lays the music track over them
func (e *SceneEditor) Edit(ctx context.Context, jobID string, sceneIDs []int, musicURL string) error {
	tracker := NewTracker(e.store, jobID)
	log.Printf("Starting video editing for job %s", jobID)

	results, err := e.edit(ctx, tracker, jobID, sceneIDs, musicURL)
	if err != nil {
		log.Printf("Error editing video for job %s: %v", jobID, err)
		tracker.Fail(ctx, err)
		return err
	}

	if err := tracker.Complete(ctx, models.JobStatusCompleted, "Video editing completed successfully", results); err != nil {
		return err
	}
	log.Printf("Video editing completed for job %s", jobID)
	return nil
}

func (e *SceneEditor) edit(ctx context.Context, tracker *Tracker, jobID string, sceneIDs []int, musicURL string) (map[string]any, error) {
	job, err := e.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	musicPath := e.artifacts.UploadPath(storage.KindMusic, fmt.Sprintf("music_%s.%s", jobID, e.tools.YtDlp.AudioFormat))
	os.Remove(musicPath)
	if err := e.tools.YtDlp.FetchAudio(ctx, musicURL, musicPath); err != nil {
		return nil, err
	}

	if err := tracker.Step(ctx, models.JobStatusProcessing, 5, "Extracting scenes..."); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(e.tempDir, "edit-"+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	n := len(sceneIDs)
	clips := make([]string, 0, n)
	for i, id := range sceneIDs {
		scene, ok := models.FindScene(job.Scenes, id)
		if ok {
			clip := filepath.Join(workDir, fmt.Sprintf("scene_%d.mp4", i))
			if err := e.tools.FFmpeg.ExtractRange(ctx, job.SourcePath, scene.StartTime, scene.EndTime, clip); err != nil {
				return nil, err
			}
			clips = append(clips, clip)
		} else {
			log.Printf("Job %s: skipping unknown scene %d", jobID, id)
		}

		if err := tracker.Progress(ctx, 5+45*(i+1)/n, fmt.Sprintf("Extracting scene %d of %d", i+1, n)); err != nil {
			return nil, err
		}
	}
	if len(clips) == 0 {
		return nil, ErrNoScenesSelected
	}

	joined := filepath.Join(workDir, "concat_output.mp4")
	if err := e.tools.FFmpeg.Concat(ctx, clips, filepath.Join(workDir, "clips_list.txt"), joined); err != nil {
		return nil, err
	}
	if err := tracker.Progress(ctx, 60, "Adding music with beat synchronization..."); err != nil {
		return nil, err
	}

	beats, err := e.tools.Beats.Detect(ctx, workDir, musicPath)
	if err != nil {
		return nil, err
	}
	if err := tracker.Progress(ctx, 75, "Mixing music into edited video..."); err != nil {
		return nil, err
	}

	output := e.artifacts.ResultPath(storage.KindEdited, EditedFile(jobID))
	if err := e.tools.FFmpeg.Mux(ctx, joined, musicPath, output); err != nil {
		return nil, err
	}
	e.artifacts.Publish(ctx, storage.KindEdited, output)

	return map[string]any{
		"edited_video": EditedFile(jobID),
		"scenes_used":  len(clips),
		"tempo":        beats.Tempo,
		"beat_count":   len(beats.BeatTimes),
	}, nil
}
