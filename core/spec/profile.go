package spec

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile holds the fixed parameters every workflow passes to its external tools
type Profile struct {
	Tools  ToolPaths     `yaml:"tools"`
	AMV    AMVProfile    `yaml:"amv"`
	Scenes ScenesProfile `yaml:"scenes"`
	Encode EncodeProfile `yaml:"encode"`
}

// ToolPaths names the binaries invoked by the workflows
type ToolPaths struct {
	FFmpeg      string `yaml:"ffmpeg"`
	YtDlp       string `yaml:"yt_dlp"`
	SceneDetect string `yaml:"scenedetect"`
	Python      string `yaml:"python"`
	Bandit      string `yaml:"bandit"`
	Semgrep     string `yaml:"semgrep"`
}

// AMVProfile lists the clip windows cut from an uploaded video
type AMVProfile struct {
	Clips       []ClipWindow `yaml:"clips"`
	AudioFormat string       `yaml:"audio_format"`
}

// ClipWindow is one fixed trim window and the names of its artifact
type ClipWindow struct {
	Variant      string `yaml:"variant"`       // download path segment, e.g. "three_min"
	ResultKey    string `yaml:"result_key"`    // key in job results, e.g. "three_min_amv"
	OutputPrefix string `yaml:"output_prefix"` // file prefix, e.g. "3min_amv"
	Start        string `yaml:"start"`         // ffmpeg -ss value
	Duration     string `yaml:"duration"`      // ffmpeg -t value
}

// ScenesProfile configures scene detection
type ScenesProfile struct {
	Threshold int `yaml:"threshold"`
}

// EncodeProfile holds the codecs used when re-encoding clips
type EncodeProfile struct {
	VideoCodec string `yaml:"video_codec"`
	AudioCodec string `yaml:"audio_codec"`
}

// DefaultProfile returns the built-in workflow parameters
func DefaultProfile() *Profile {
	return &Profile{
		Tools: ToolPaths{
			FFmpeg:      "ffmpeg",
			YtDlp:       "yt-dlp",
			SceneDetect: "scenedetect",
			Python:      "python3",
			Bandit:      "bandit",
			Semgrep:     "semgrep",
		},
		AMV: AMVProfile{
			// Skip intros for the long clip, take later action for the short one.
			Clips: []ClipWindow{
				{Variant: "three_min", ResultKey: "three_min_amv", OutputPrefix: "3min_amv", Start: "00:05:00", Duration: "00:03:00"},
				{Variant: "one_min", ResultKey: "one_min_amv", OutputPrefix: "1min_amv", Start: "00:10:00", Duration: "00:01:00"},
			},
			AudioFormat: "mp3",
		},
		Scenes: ScenesProfile{
			Threshold: 30,
		},
		Encode: EncodeProfile{
			VideoCodec: "libx264",
			AudioCodec: "aac",
		},
	}
}

// LoadProfile reads a YAML profile and fills unset fields from the defaults
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow profile: %w", err)
	}

	return ParseProfile(data)
}

// ParseProfile parses YAML profile bytes over the defaults
func ParseProfile(data []byte) (*Profile, error) {
	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

// Validate checks that every clip window is complete and uniquely named
func (p *Profile) Validate() error {
	if len(p.AMV.Clips) == 0 {
		return fmt.Errorf("amv profile needs at least one clip window")
	}

	seen := make(map[string]bool)
	for i, clip := range p.AMV.Clips {
		if strings.TrimSpace(clip.Variant) == "" || strings.TrimSpace(clip.ResultKey) == "" || strings.TrimSpace(clip.OutputPrefix) == "" {
			return fmt.Errorf("clip %d: variant, result_key and output_prefix are required", i)
		}
		if clip.Start == "" || clip.Duration == "" {
			return fmt.Errorf("clip %q: start and duration are required", clip.Variant)
		}
		if seen[clip.Variant] {
			return fmt.Errorf("clip %q declared twice", clip.Variant)
		}
		seen[clip.Variant] = true
	}

	if p.Scenes.Threshold <= 0 {
		return fmt.Errorf("scene threshold must be positive, got %d", p.Scenes.Threshold)
	}
	return nil
}

// Clip returns the window registered for a download variant
func (p *Profile) Clip(variant string) (ClipWindow, bool) {
	for _, clip := range p.AMV.Clips {
		if clip.Variant == variant {
			return clip, true
		}
	}
	return ClipWindow{}, false
}
