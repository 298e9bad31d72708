package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-toolkit/core/executor"
	"media-toolkit/core/spec"
)

// fakeRunner records invocations and delegates to injected behavior.
type fakeRunner struct {
	calls [][]string
	run   func(name string, args []string) (executor.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (executor.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.run == nil {
		return executor.Result{}, nil
	}
	return f.run(name, args)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeLastArg simulates a tool writing its output to the final argument.
func writeLastArg(t *testing.T) func(string, []string) (executor.Result, error) {
	return func(name string, args []string) (executor.Result, error) {
		mustWriteFile(t, args[len(args)-1], "data")
		return executor.Result{}, nil
	}
}

// TestFFmpegTrimArgs verifies the trim command line.
func TestFFmpegTrimArgs(t *testing.T) {
	box := NewToolbox(&fakeRunner{}, spec.DefaultProfile())
	got := strings.Join(box.FFmpeg.TrimArgs("in.mp4", "00:05:00", "00:03:00", "out.mp4"), " ")
	want := "-y -i in.mp4 -ss 00:05:00 -t 00:03:00 -c:v libx264 -c:a aac -strict experimental out.mp4"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

// TestFFmpegMuxArgs verifies the audio replacement command line.
func TestFFmpegMuxArgs(t *testing.T) {
	box := NewToolbox(&fakeRunner{}, spec.DefaultProfile())
	got := strings.Join(box.FFmpeg.MuxArgs("v.mp4", "a.mp3", "o.mp4"), " ")
	want := "-y -i v.mp4 -i a.mp3 -map 0:v -map 1:a -c:v copy -c:a aac -shortest o.mp4"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

// TestFFmpegMissingOutputFails checks a clean exit without output is a step failure.
func TestFFmpegMissingOutputFails(t *testing.T) {
	box := NewToolbox(&fakeRunner{}, spec.DefaultProfile())
	out := filepath.Join(t.TempDir(), "out.mp4")

	err := box.FFmpeg.Trim(context.Background(), "in.mp4", "0", "1", out)
	var stepErr *executor.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "trim" {
		t.Fatalf("Trim() error = %v, want trim StepError", err)
	}
}

// TestFFmpegConcatWritesList checks the demuxer list and the empty case.
func TestFFmpegConcatWritesList(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{run: writeLastArg(t)}
	box := NewToolbox(runner, spec.DefaultProfile())

	list := filepath.Join(dir, "clips.txt")
	out := filepath.Join(dir, "out.mp4")
	if err := box.FFmpeg.Concat(context.Background(), []string{"/tmp/a.mp4", "/tmp/it's.mp4"}, list, out); err != nil {
		t.Fatalf("Concat() error = %v", err)
	}

	data, err := os.ReadFile(list)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	want := "file '/tmp/a.mp4'\nfile '/tmp/it'\\''s.mp4'\n"
	if string(data) != want {
		t.Fatalf("list = %q, want %q", data, want)
	}

	if err := box.FFmpeg.Concat(context.Background(), nil, list, out); err == nil {
		t.Fatal("expected error for empty clip list")
	}
}

// TestConcatListAbsolutePaths verifies relative clips are written as absolute paths.
func TestConcatListAbsolutePaths(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	got := ConcatList([]string{filepath.Join("tmp", "edit-1", "scene_0.mp4")})
	want := "file '" + filepath.Join(wd, "tmp", "edit-1", "scene_0.mp4") + "'\n"
	if got != want {
		t.Fatalf("ConcatList() = %q, want %q", got, want)
	}
}

// TestFFmpegFrameArgs checks fractional offsets are rendered plainly.
func TestFFmpegFrameArgs(t *testing.T) {
	box := NewToolbox(&fakeRunner{}, spec.DefaultProfile())
	args := box.FFmpeg.FrameArgs("in.mp4", 12.25, "t.jpg")
	if args[2] != "12.25" {
		t.Fatalf("offset = %q, want 12.25", args[2])
	}
}

// TestValidateMusicURL checks scheme and host validation.
func TestValidateMusicURL(t *testing.T) {
	valid := []string{"https://youtube.com/watch?v=x", " http://example.com/a.mp3 "}
	for _, raw := range valid {
		if _, err := ValidateMusicURL(raw); err != nil {
			t.Fatalf("ValidateMusicURL(%q) error = %v", raw, err)
		}
	}

	invalid := []string{"", "--exec=rm", "file:///etc/passwd", "https://", "ftp://example.com/a"}
	for _, raw := range invalid {
		if _, err := ValidateMusicURL(raw); err == nil {
			t.Fatalf("ValidateMusicURL(%q) accepted", raw)
		}
	}
}

// TestYtDlpURLAfterSeparator verifies the URL is never in option position.
func TestYtDlpURLAfterSeparator(t *testing.T) {
	box := NewToolbox(&fakeRunner{}, spec.DefaultProfile())
	args := box.YtDlp.FetchArgs("https://example.com/x", "music.mp3")
	if args[len(args)-2] != "--" || args[len(args)-1] != "https://example.com/x" {
		t.Fatalf("args = %v", args)
	}
}

// TestYtDlpFetchAudio checks the downloaded file is required.
func TestYtDlpFetchAudio(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "music.mp3")
	runner := &fakeRunner{run: func(name string, args []string) (executor.Result, error) {
		mustWriteFile(t, out, "mp3")
		return executor.Result{}, nil
	}}
	box := NewToolbox(runner, spec.DefaultProfile())

	if err := box.YtDlp.FetchAudio(context.Background(), "https://example.com/x", out); err != nil {
		t.Fatalf("FetchAudio() error = %v", err)
	}
	if runner.calls[0][0] != "yt-dlp" {
		t.Fatalf("binary = %q", runner.calls[0][0])
	}

	missing := NewToolbox(&fakeRunner{}, spec.DefaultProfile())
	if err := missing.YtDlp.FetchAudio(context.Background(), "https://example.com/x", filepath.Join(dir, "none.mp3")); err == nil {
		t.Fatal("expected error when no file is produced")
	}
}

// TestSceneDetectorParsesList checks scene list parsing and malformed output.
func TestSceneDetectorParsesList(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "scenes.json")
	runner := &fakeRunner{run: func(name string, args []string) (executor.Result, error) {
		mustWriteFile(t, out, `{"scenes":[{"start_time":0,"end_time":4.5},{"start_time":4.5,"end_time":9}]}`)
		return executor.Result{}, nil
	}}
	box := NewToolbox(runner, spec.DefaultProfile())

	scenes, err := box.Scenes.Detect(context.Background(), "in.mp4", out)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(scenes) != 2 || scenes[1].EndTime != 9 {
		t.Fatalf("scenes = %+v", scenes)
	}
	if got := strings.Join(runner.calls[0], " "); !strings.Contains(got, "detect-content -t 30 list-scenes") {
		t.Fatalf("command = %q", got)
	}

	mustWriteFile(t, out, "not json")
	if _, err := ParseSceneList(out); err == nil {
		t.Fatal("expected malformed list error")
	}
}

// TestBeatDetector checks the helper script is written and output parsed.
func TestBeatDetector(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{run: func(name string, args []string) (executor.Result, error) {
		if _, err := os.Stat(args[0]); err != nil {
			t.Fatalf("helper script missing: %v", err)
		}
		mustWriteFile(t, args[2], `{"tempo":128.0,"beat_times":[0.5,1.0,1.5]}`)
		return executor.Result{}, nil
	}}
	box := NewToolbox(runner, spec.DefaultProfile())

	analysis, err := box.Beats.Detect(context.Background(), dir, filepath.Join(dir, "music.mp3"))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if analysis.Tempo != 128 || len(analysis.BeatTimes) != 3 {
		t.Fatalf("analysis = %+v", analysis)
	}
	if runner.calls[0][0] != "python3" {
		t.Fatalf("interpreter = %q", runner.calls[0][0])
	}
}

// TestAnalyzerNonZeroExitKeepsReport verifies findings exits still yield the report.
func TestAnalyzerNonZeroExitKeepsReport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bandit.json")
	runner := &fakeRunner{run: func(name string, args []string) (executor.Result, error) {
		mustWriteFile(t, out, `{"results":[{"issue_severity":"HIGH"}]}`)
		return executor.Result{ExitCode: 1}, errors.New("exit status 1")
	}}
	box := NewToolbox(runner, spec.DefaultProfile())

	report := box.Bandit.Scan(context.Background(), "app.py", out)
	if !strings.Contains(string(report), "issue_severity") {
		t.Fatalf("report = %s", report)
	}
}

// TestReadReportPlaceholders checks missing and malformed reports.
func TestReadReportPlaceholders(t *testing.T) {
	dir := t.TempDir()
	if got := string(ReadReport("semgrep", filepath.Join(dir, "none.json"))); got != `{"error":"No results produced"}` {
		t.Fatalf("missing report = %s", got)
	}

	bad := filepath.Join(dir, "bad.json")
	mustWriteFile(t, bad, "{oops")
	if got := string(ReadReport("semgrep", bad)); got != `{"error":"Failed to parse results"}` {
		t.Fatalf("malformed report = %s", got)
	}
}

// TestSemgrepArgs verifies the semgrep command line.
func TestSemgrepArgs(t *testing.T) {
	box := NewToolbox(&fakeRunner{}, spec.DefaultProfile())
	got := strings.Join(box.Semgrep.Args("app.py", "out.json"), " ")
	if got != "--config=auto app.py --json --output out.json" {
		t.Fatalf("args = %q", got)
	}
}
