package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// stderrTailBytes bounds the tool output kept in error messages
const stderrTailBytes = 2048

// Result is the captured outcome of one process
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner abstracts process execution so tools can be tested without binaries
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner executes commands via os/exec
type ExecRunner struct{}

// NewExecRunner creates a runner backed by real processes
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes one command and captures stdout, stderr and exit code.
// Cancelling ctx kills the process.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// CommandLog records one external command invocation
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// NewCommandLog builds a log entry from a finished command
func NewCommandLog(name string, args []string, result Result) CommandLog {
	return CommandLog{
		Command:  name,
		Args:     append([]string(nil), args...),
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
}

// StepError is a failure of one named workflow step
type StepError struct {
	Step    string
	Message string
	Log     CommandLog
	Err     error
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	if e.Log.Command == "" {
		return fmt.Sprintf("%s: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("%s: %s (cmd=%s exit=%d)", e.Step, e.Message, e.Log.Command, e.Log.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RunStep runs a command that must exit zero.
// Any failure comes back as a *StepError carrying the command log.
func RunStep(ctx context.Context, runner Runner, step, name string, args ...string) (CommandLog, error) {
	result, err := runner.Run(ctx, name, args...)
	cmdLog := NewCommandLog(name, args, result)
	if err != nil {
		log.Printf("Step %s failed: %s exited %d: %s", step, name, result.ExitCode, StderrTail(result.Stderr))
		message := "command failed"
		if tail := StderrTail(result.Stderr); tail != "" {
			message = tail
		}
		return cmdLog, &StepError{Step: step, Message: message, Log: cmdLog, Err: err}
	}
	return cmdLog, nil
}

// StderrTail returns the trimmed end of a tool's stderr
func StderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if len(stderr) <= stderrTailBytes {
		return stderr
	}
	return "..." + stderr[len(stderr)-stderrTailBytes:]
}
