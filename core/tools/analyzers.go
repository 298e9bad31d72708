package tools

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"media-toolkit/core/executor"
)

// Analyzer runs a static analyzer that writes a JSON report.
// A non-zero exit means findings, not failure.
type Analyzer struct {
	Name   string
	Bin    string
	args   func(target, output string) []string
	runner executor.Runner
}

// NewBandit creates the bandit adapter
func NewBandit(bin string, runner executor.Runner) *Analyzer {
	return &Analyzer{
		Name: "bandit",
		Bin:  bin,
		args: func(target, output string) []string {
			return []string{"-r", target, "-f", "json", "-o", output}
		},
		runner: runner,
	}
}

// NewSemgrep creates the semgrep adapter
func NewSemgrep(bin string, runner executor.Runner) *Analyzer {
	return &Analyzer{
		Name: "semgrep",
		Bin:  bin,
		args: func(target, output string) []string {
			return []string{"--config=auto", target, "--json", "--output", output}
		},
		runner: runner,
	}
}

// Args returns the command line for scanning target into output
func (a *Analyzer) Args(target, output string) []string {
	return a.args(target, output)
}

// Scan runs the analyzer and returns its report, or a {"error": ...}
// placeholder when the report is missing or unparseable.
func (a *Analyzer) Scan(ctx context.Context, target, output string) json.RawMessage {
	args := a.Args(target, output)
	result, err := a.runner.Run(ctx, a.Bin, args...)
	if err != nil {
		log.Printf("%s exited %d (findings or failure): %s", a.Name, result.ExitCode, executor.StderrTail(result.Stderr))
	}
	return ReadReport(a.Name, output)
}

// ReadReport loads a JSON report, substituting a placeholder on failure
func ReadReport(name, path string) json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("No %s results at %s: %v", name, path, err)
		return placeholder("No results produced")
	}
	if !json.Valid(data) {
		log.Printf("Failed to parse %s results", name)
		return placeholder("Failed to parse results")
	}
	return json.RawMessage(data)
}

func placeholder(msg string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}
