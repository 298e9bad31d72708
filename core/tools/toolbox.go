package tools

import (
	"fmt"
	"os"

	"media-toolkit/core/executor"
	"media-toolkit/core/spec"
)

// Toolbox bundles the external tool adapters configured from one profile
type Toolbox struct {
	FFmpeg  *FFmpeg
	YtDlp   *YtDlp
	Scenes  *SceneDetector
	Beats   *BeatDetector
	Bandit  *Analyzer
	Semgrep *Analyzer
}

// NewToolbox wires every adapter to the same runner
func NewToolbox(runner executor.Runner, profile *spec.Profile) *Toolbox {
	return &Toolbox{
		FFmpeg: &FFmpeg{
			Bin:        profile.Tools.FFmpeg,
			VideoCodec: profile.Encode.VideoCodec,
			AudioCodec: profile.Encode.AudioCodec,
			runner:     runner,
		},
		YtDlp: &YtDlp{
			Bin:         profile.Tools.YtDlp,
			AudioFormat: profile.AMV.AudioFormat,
			runner:      runner,
		},
		Scenes: &SceneDetector{
			Bin:       profile.Tools.SceneDetect,
			Threshold: profile.Scenes.Threshold,
			runner:    runner,
		},
		Beats: &BeatDetector{
			Python: profile.Tools.Python,
			runner: runner,
		},
		Bandit:  NewBandit(profile.Tools.Bandit, runner),
		Semgrep: NewSemgrep(profile.Tools.Semgrep, runner),
	}
}

// Binaries lists the tool names a deployment needs on PATH
func (t *Toolbox) Binaries() []string {
	return []string{
		t.FFmpeg.Bin,
		t.YtDlp.Bin,
		t.Scenes.Bin,
		t.Beats.Python,
		t.Bandit.Bin,
		t.Semgrep.Bin,
	}
}

// requireOutput fails a step whose tool exited cleanly without writing its file
func requireOutput(step, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &executor.StepError{Step: step, Message: fmt.Sprintf("expected output %s was not produced", path), Err: err}
	}
	if info.IsDir() {
		return &executor.StepError{Step: step, Message: fmt.Sprintf("expected output %s is a directory", path)}
	}
	return nil
}
