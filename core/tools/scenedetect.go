package tools

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"media-toolkit/core/executor"
)

// DetectedScene is one boundary pair reported by scenedetect, in seconds
type DetectedScene struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// SceneDetector runs content-aware scene boundary detection
type SceneDetector struct {
	Bin       string
	Threshold int
	runner    executor.Runner
}

// DetectArgs lists scenes of input into a JSON file at output
func (d *SceneDetector) DetectArgs(input, output string) []string {
	return []string{
		"-i", input,
		"detect-content",
		"-t", strconv.Itoa(d.Threshold),
		"list-scenes",
		"-o", output,
		"-f", "json",
	}
}

// Detect runs the detector and parses its scene list
func (d *SceneDetector) Detect(ctx context.Context, input, output string) ([]DetectedScene, error) {
	if _, err := executor.RunStep(ctx, d.runner, "detect_scenes", d.Bin, d.DetectArgs(input, output)...); err != nil {
		return nil, err
	}
	if err := requireOutput("detect_scenes", output); err != nil {
		return nil, &executor.StepError{Step: "detect_scenes", Message: "Failed to detect scenes", Err: err}
	}
	return ParseSceneList(output)
}

// ParseSceneList reads a {"scenes": [...]} document
func ParseSceneList(path string) ([]DetectedScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &executor.StepError{Step: "detect_scenes", Message: "failed to read scene list", Err: err}
	}

	var doc struct {
		Scenes []DetectedScene `json:"scenes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &executor.StepError{Step: "detect_scenes", Message: "malformed scene list", Err: err}
	}
	return doc.Scenes, nil
}
