package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"media-toolkit/core/executor"
)

// FFmpeg builds and runs the fixed ffmpeg command lines used by the workflows
type FFmpeg struct {
	Bin        string
	VideoCodec string
	AudioCodec string
	runner     executor.Runner
}

// TrimArgs cuts a window of duration starting at start and re-encodes it
func (f *FFmpeg) TrimArgs(input, start, duration, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-ss", start,
		"-t", duration,
		"-c:v", f.VideoCodec,
		"-c:a", f.AudioCodec,
		"-strict", "experimental",
		output,
	}
}

// Trim runs TrimArgs and checks the output exists
func (f *FFmpeg) Trim(ctx context.Context, input, start, duration, output string) error {
	return f.run(ctx, "trim", output, f.TrimArgs(input, start, duration, output))
}

// MuxArgs replaces the audio of a video with a music track, stopping at the shorter input
func (f *FFmpeg) MuxArgs(video, audio, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", f.AudioCodec,
		"-shortest",
		output,
	}
}

// Mux runs MuxArgs and checks the output exists
func (f *FFmpeg) Mux(ctx context.Context, video, audio, output string) error {
	return f.run(ctx, "mux", output, f.MuxArgs(video, audio, output))
}

// FrameArgs grabs one high quality still at the given offset in seconds
func (f *FFmpeg) FrameArgs(input string, at float64, output string) []string {
	return []string{
		"-y",
		"-ss", formatSeconds(at),
		"-i", input,
		"-vframes", "1",
		"-q:v", "2",
		output,
	}
}

// ExtractFrame runs FrameArgs and checks the output exists
func (f *FFmpeg) ExtractFrame(ctx context.Context, input string, at float64, output string) error {
	return f.run(ctx, "thumbnail", output, f.FrameArgs(input, at, output))
}

// RangeArgs re-encodes the span between two offsets in seconds
func (f *FFmpeg) RangeArgs(input string, from, to float64, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-ss", formatSeconds(from),
		"-to", formatSeconds(to),
		"-c:v", f.VideoCodec,
		"-c:a", f.AudioCodec,
		"-strict", "experimental",
		output,
	}
}

// ExtractRange runs RangeArgs and checks the output exists
func (f *FFmpeg) ExtractRange(ctx context.Context, input string, from, to float64, output string) error {
	return f.run(ctx, "extract_scene", output, f.RangeArgs(input, from, to, output))
}

// ConcatArgs joins the clips named in a concat demuxer list without re-encoding
func (f *FFmpeg) ConcatArgs(listFile, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}
}

// Concat writes the demuxer list file for clips and joins them into output
func (f *FFmpeg) Concat(ctx context.Context, clips []string, listFile, output string) error {
	if len(clips) == 0 {
		return &executor.StepError{Step: "concat", Message: "no clips to join"}
	}
	if err := os.WriteFile(listFile, []byte(ConcatList(clips)), 0o644); err != nil {
		return &executor.StepError{Step: "concat", Message: "failed to write clip list", Err: err}
	}
	return f.run(ctx, "concat", output, f.ConcatArgs(listFile, output))
}

// ConcatList renders clip paths in the concat demuxer format. Relative paths are
// made absolute since the demuxer resolves them against the list file's directory.
func ConcatList(clips []string) string {
	var b strings.Builder
	for _, clip := range clips {
		if abs, err := filepath.Abs(clip); err == nil {
			clip = abs
		}
		// The demuxer reads single-quoted paths; embedded quotes are closed, escaped and reopened.
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(clip, "'", `'\''`))
	}
	return b.String()
}

func (f *FFmpeg) run(ctx context.Context, step, output string, args []string) error {
	if _, err := executor.RunStep(ctx, f.runner, step, f.Bin, args...); err != nil {
		return err
	}
	return requireOutput(step, output)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
