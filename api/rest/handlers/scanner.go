package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"media-toolkit/core/workflows"
	"media-toolkit/storage"

	"github.com/gorilla/mux"
)

// ScannerHandler serves the code scanner endpoints
type ScannerHandler struct {
	scanner     *workflows.CodeScanner
	artifacts   *storage.ArtifactStore
	maxUpload   int64
	scanTimeout time.Duration
}

// NewScannerHandler creates a new scanner handler
func NewScannerHandler(scanner *workflows.CodeScanner, artifacts *storage.ArtifactStore, maxUpload int64) *ScannerHandler {
	return &ScannerHandler{
		scanner:     scanner,
		artifacts:   artifacts,
		maxUpload:   maxUpload,
		scanTimeout: 10 * time.Minute,
	}
}

// Scan handles POST /bug_scanner/scan; the scan runs within the request
func (h *ScannerHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeUploadError(w, err, "Error scanning code")
		return
	}

	file, header, err := formFile(r, "file", "No file provided", "No file selected")
	if err != nil {
		writeUploadError(w, err, "Error scanning code")
		return
	}
	defer file.Close()

	if !hasExtension(header.Filename, codeExtensions) {
		writeError(w, http.StatusBadRequest, "Only Python (.py) files are allowed")
		return
	}

	upload, err := saveUpload(h.artifacts, storage.KindCode, file, header)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error scanning code: failed to save upload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.scanTimeout)
	defer cancel()

	if _, err := h.scanner.Scan(ctx, upload.ID, upload.Filename, upload.Path); err != nil {
		log.Printf("Error scanning code: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error scanning code: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"scan_id":  upload.ID,
		"filename": upload.Filename,
		"message":  "Scan completed successfully. You can now download the report.",
	})
}

// Report handles GET /bug_scanner/report/{scan_id}
func (h *ScannerHandler) Report(w http.ResponseWriter, r *http.Request) {
	scanID := mux.Vars(r)["scan_id"]
	if !validID(scanID) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	report, err := h.scanner.LoadReport(scanID)
	if errors.Is(err, workflows.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		log.Printf("Error getting report %s: %v", scanID, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting report: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"report":  report,
	})
}

// Download handles GET /bug_scanner/download/{scan_id}
func (h *ScannerHandler) Download(w http.ResponseWriter, r *http.Request) {
	scanID := mux.Vars(r)["scan_id"]
	if !validID(scanID) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	path := h.scanner.ReportPath(scanID)
	if !storage.Exists(path) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	serveAttachment(w, r, path, fmt.Sprintf("security_scan_%s.json", scanID), "application/json")
}
