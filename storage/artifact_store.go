package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
)

// Kind names a subfolder of the upload or results area
type Kind string

const (
	KindCode   Kind = "code"
	KindVideos Kind = "videos"
	KindMusic  Kind = "music"

	KindReports Kind = "reports"
	KindAMV     Kind = "amv"
	KindEdited  Kind = "edited"
)

var (
	uploadKinds = []Kind{KindCode, KindVideos, KindMusic}
	resultKinds = []Kind{KindReports, KindAMV, KindEdited}
)

// Mirror copies finished artifacts to remote storage
type Mirror interface {
	Upload(ctx context.Context, key, localPath string) error
}

// ArtifactStore owns the on-disk layout of uploads and results
type ArtifactStore struct {
	uploadDir  string
	resultsDir string
	mirror     Mirror
}

// NewArtifactStore creates a store rooted at the two directories; mirror may be nil
func NewArtifactStore(uploadDir, resultsDir string, mirror Mirror) *ArtifactStore {
	return &ArtifactStore{
		uploadDir:  uploadDir,
		resultsDir: resultsDir,
		mirror:     mirror,
	}
}

// EnsureLayout creates every upload and result subfolder
func (s *ArtifactStore) EnsureLayout() error {
	for _, kind := range uploadKinds {
		if err := os.MkdirAll(filepath.Join(s.uploadDir, string(kind)), 0o755); err != nil {
			return fmt.Errorf("failed to create upload folder %s: %w", kind, err)
		}
	}
	for _, kind := range resultKinds {
		if err := os.MkdirAll(filepath.Join(s.resultsDir, string(kind)), 0o755); err != nil {
			return fmt.Errorf("failed to create results folder %s: %w", kind, err)
		}
	}
	return nil
}

// UploadPath returns where an uploaded file of kind is stored
func (s *ArtifactStore) UploadPath(kind Kind, name string) string {
	return filepath.Join(s.uploadDir, string(kind), filepath.Base(name))
}

// ResultPath returns where a result artifact of kind is stored
func (s *ArtifactStore) ResultPath(kind Kind, name string) string {
	return filepath.Join(s.resultsDir, string(kind), filepath.Base(name))
}

// ReportDir returns the per-scan report folder
func (s *ArtifactStore) ReportDir(scanID string) string {
	return filepath.Join(s.resultsDir, string(KindReports), filepath.Base(scanID))
}

// ReportPath returns the combined report of a scan
func (s *ArtifactStore) ReportPath(scanID string) string {
	return filepath.Join(s.ReportDir(scanID), "combined_report.json")
}

// SaveUpload streams r into the upload area and returns the stored path.
// A partially written file is removed on error.
func (s *ArtifactStore) SaveUpload(kind Kind, name string, r io.Reader) (string, error) {
	dst := s.UploadPath(kind, name)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return dst, nil
}

// Exists reports whether path is an existing regular file
func Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Publish mirrors a result artifact when a mirror is configured.
// Failures are logged and never returned.
func (s *ArtifactStore) Publish(ctx context.Context, kind Kind, localPath string) {
	if s.mirror == nil {
		return
	}

	rel, err := filepath.Rel(filepath.Join(s.resultsDir, string(kind)), localPath)
	if err != nil {
		rel = filepath.Base(localPath)
	}
	key := path.Join(string(kind), filepath.ToSlash(rel))

	if err := s.mirror.Upload(ctx, key, localPath); err != nil {
		log.Printf("Failed to mirror artifact %s: %v", key, err)
		return
	}
	log.Printf("Mirrored artifact %s", key)
}
