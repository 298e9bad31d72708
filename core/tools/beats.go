package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"media-toolkit/core/executor"
)

// beatScript is written next to the audio and run with the configured interpreter
const beatScript = `import json
import sys

import librosa


def detect_beats(audio_path):
    y, sr = librosa.load(audio_path)
    tempo, beat_frames = librosa.beat.beat_track(y=y, sr=sr)
    beat_times = librosa.frames_to_time(beat_frames, sr=sr)
    return {"tempo": float(tempo), "beat_times": beat_times.tolist()}


if __name__ == "__main__":
    with open(sys.argv[2], "w") as f:
        json.dump(detect_beats(sys.argv[1]), f)
`

// BeatAnalysis is the tempo and beat grid of an audio track
type BeatAnalysis struct {
	Tempo     float64   `json:"tempo"`
	BeatTimes []float64 `json:"beat_times"`
}

// BeatDetector runs the librosa helper script
type BeatDetector struct {
	Python string
	runner executor.Runner
}

// DetectArgs runs script over audio, writing JSON to output
func (b *BeatDetector) DetectArgs(script, audio, output string) []string {
	return []string{script, audio, output}
}

// Detect writes the helper into workDir, runs it and parses the result
func (b *BeatDetector) Detect(ctx context.Context, workDir, audio string) (*BeatAnalysis, error) {
	script := filepath.Join(workDir, "beat_detection.py")
	if err := os.WriteFile(script, []byte(beatScript), 0o644); err != nil {
		return nil, &executor.StepError{Step: "detect_beats", Message: "failed to write helper script", Err: err}
	}

	output := filepath.Join(workDir, "beats.json")
	if _, err := executor.RunStep(ctx, b.runner, "detect_beats", b.Python, b.DetectArgs(script, audio, output)...); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, &executor.StepError{Step: "detect_beats", Message: "beat analysis was not produced", Err: err}
	}

	var analysis BeatAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, &executor.StepError{Step: "detect_beats", Message: "malformed beat analysis", Err: err}
	}
	return &analysis, nil
}
