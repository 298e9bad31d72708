package workflows

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"media-toolkit/core/models"
	"media-toolkit/core/repository"
	"media-toolkit/core/scheduler"
	"media-toolkit/core/spec"
	"media-toolkit/core/tools"
	"media-toolkit/storage"
)

// AMVGenerator cuts fixed windows from a video and lays a music track over each
type AMVGenerator struct {
	store     repository.JobStore
	tools     *tools.Toolbox
	profile   *spec.Profile
	artifacts *storage.ArtifactStore
	tempDir   string
}

// NewAMVGenerator creates the AMV workflow
func NewAMVGenerator(store repository.JobStore, toolbox *tools.Toolbox, profile *spec.Profile, artifacts *storage.ArtifactStore, tempDir string) *AMVGenerator {
	return &AMVGenerator{
		store:     store,
		tools:     toolbox,
		profile:   profile,
		artifacts: artifacts,
		tempDir:   absDir(tempDir),
	}
}

// Task wraps Run for the scheduler
func (g *AMVGenerator) Task(jobID, videoPath, musicURL string) scheduler.Task {
	return scheduler.Task{
		JobID: jobID,
		Name:  "amv",
		Run: func(ctx context.Context) error {
			return g.Run(ctx, jobID, videoPath, musicURL)
		},
		Abandon: abandonJob(g.store, jobID),
	}
}

// ResultFile returns the artifact name of a clip variant for a job
func (g *AMVGenerator) ResultFile(clip spec.ClipWindow, jobID string) string {
	return fmt.Sprintf("%s_%s.mp4", clip.OutputPrefix, jobID)
}

// Run executes the workflow and records the outcome on the job
func (g *AMVGenerator) Run(ctx context.Context, jobID, videoPath, musicURL string) error {
	tracker := NewTracker(g.store, jobID)
	log.Printf("Starting AMV generation for job %s", jobID)

	results, err := g.generate(ctx, tracker, jobID, videoPath, musicURL)
	if err != nil {
		log.Printf("Error generating AMV for job %s: %v", jobID, err)
		tracker.Fail(ctx, err)
		return err
	}

	if err := tracker.Complete(ctx, models.JobStatusCompleted, "AMVs generated successfully", results); err != nil {
		return err
	}
	log.Printf("AMV generation completed for job %s", jobID)
	return nil
}

func (g *AMVGenerator) generate(ctx context.Context, tracker *Tracker, jobID, videoPath, musicURL string) (map[string]any, error) {
	if err := tracker.Step(ctx, models.JobStatusProcessing, 10, "Preparing clips..."); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(g.tempDir, "amv-"+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	if err := tracker.Progress(ctx, 20, "Downloading music..."); err != nil {
		return nil, err
	}
	musicPath := filepath.Join(workDir, "music."+g.profile.AMV.AudioFormat)
	if err := g.tools.YtDlp.FetchAudio(ctx, musicURL, musicPath); err != nil {
		return nil, err
	}

	clips := g.profile.AMV.Clips
	n := len(clips)

	trimmed := make([]string, n)
	for i, clip := range clips {
		if err := tracker.Progress(ctx, 30+40*i/n, fmt.Sprintf("Extracting %s clip...", clip.Variant)); err != nil {
			return nil, err
		}
		trimmed[i] = filepath.Join(workDir, clip.Variant+"_clip.mp4")
		if err := g.tools.FFmpeg.Trim(ctx, videoPath, clip.Start, clip.Duration, trimmed[i]); err != nil {
			return nil, err
		}
	}

	results := make(map[string]any, n)
	for i, clip := range clips {
		if err := tracker.Progress(ctx, 70+30*i/n, fmt.Sprintf("Adding music to %s clip...", clip.Variant)); err != nil {
			return nil, err
		}
		name := g.ResultFile(clip, jobID)
		output := g.artifacts.ResultPath(storage.KindAMV, name)
		if err := g.tools.FFmpeg.Mux(ctx, trimmed[i], musicPath, output); err != nil {
			return nil, err
		}
		g.artifacts.Publish(ctx, storage.KindAMV, output)
		results[clip.ResultKey] = name
	}

	return results, nil
}

// abandonJob marks a job the scheduler gave up on as failed
func abandonJob(store repository.JobStore, jobID string) func(error) {
	return func(err error) {
		NewTracker(store, jobID).Fail(context.Background(), err)
	}
}

// absDir resolves a work root once so paths handed to tools never depend on
// which directory the tool resolves them against
func absDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
