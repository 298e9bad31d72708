package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"media-toolkit/core/models"
	"media-toolkit/core/tools"
	"media-toolkit/storage"
)

// ErrReportNotFound is returned for a scan id with no saved report
var ErrReportNotFound = errors.New("report not found")

// CodeScanner runs the static analyzers over an uploaded source file
type CodeScanner struct {
	tools     *tools.Toolbox
	artifacts *storage.ArtifactStore
}

// NewCodeScanner creates the scanner workflow
func NewCodeScanner(toolbox *tools.Toolbox, artifacts *storage.ArtifactStore) *CodeScanner {
	return &CodeScanner{tools: toolbox, artifacts: artifacts}
}

// Scan analyzes codePath and saves the combined report under the scan id.
// Analyzer failures produce placeholders; only storage errors are returned.
func (s *CodeScanner) Scan(ctx context.Context, scanID, filename, codePath string) (*models.ScanReport, error) {
	log.Printf("Starting security scan %s of %s", scanID, filename)

	reportDir := s.artifacts.ReportDir(scanID)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	report := &models.ScanReport{
		Filename:       filename,
		ScanID:         scanID,
		BanditResults:  s.tools.Bandit.Scan(ctx, codePath, filepath.Join(reportDir, "bandit_report.json")),
		SemgrepResults: s.tools.Semgrep.Scan(ctx, codePath, filepath.Join(reportDir, "semgrep_report.json")),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	reportPath := s.artifacts.ReportPath(scanID)
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	s.artifacts.Publish(ctx, storage.KindReports, reportPath)

	log.Printf("Security scan %s completed", scanID)
	return report, nil
}

// LoadReport reads a saved combined report
func (s *CodeScanner) LoadReport(scanID string) (*models.ScanReport, error) {
	data, err := os.ReadFile(s.artifacts.ReportPath(scanID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	var report models.ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", scanID, err)
	}
	return &report, nil
}

// ReportPath returns the on-disk location of a scan's combined report
func (s *CodeScanner) ReportPath(scanID string) string {
	return s.artifacts.ReportPath(scanID)
}
