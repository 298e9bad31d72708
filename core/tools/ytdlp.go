package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"media-toolkit/core/executor"
)

// YtDlp fetches audio tracks from media URLs
type YtDlp struct {
	Bin         string
	AudioFormat string
	runner      executor.Runner
}

// ValidateMusicURL accepts only absolute http(s) URLs with a host
func ValidateMusicURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("music URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid music URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("music URL must use http or https")
	}
	if u.Host == "" {
		return "", fmt.Errorf("music URL must include a host")
	}
	return u.String(), nil
}

// FetchArgs extracts audio to output; the URL follows "--" so it is never parsed as an option
func (y *YtDlp) FetchArgs(musicURL, output string) []string {
	return []string{
		"-x",
		"--audio-format", y.AudioFormat,
		"-o", output,
		"--",
		musicURL,
	}
}

// FetchAudio downloads the audio track of musicURL into output
func (y *YtDlp) FetchAudio(ctx context.Context, musicURL, output string) error {
	if _, err := executor.RunStep(ctx, y.runner, "download_music", y.Bin, y.FetchArgs(musicURL, output)...); err != nil {
		return err
	}
	if err := requireOutput("download_music", output); err != nil {
		return &executor.StepError{Step: "download_music", Message: "Failed to download music file", Err: err}
	}
	return nil
}
