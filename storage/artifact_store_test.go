package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeMirror struct {
	keys []string
	err  error
}

func (m *fakeMirror) Upload(ctx context.Context, key, localPath string) error {
	m.keys = append(m.keys, key)
	return m.err
}

// TestEnsureLayout verifies every subfolder is created.
func TestEnsureLayout(t *testing.T) {
	root := t.TempDir()
	s := NewArtifactStore(filepath.Join(root, "uploads"), filepath.Join(root, "results"), nil)
	if err := s.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}

	for _, dir := range []string{"uploads/code", "uploads/videos", "uploads/music", "results/reports", "results/amv", "results/edited"} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Fatalf("missing folder %s: %v", dir, err)
		}
	}
}

// TestPathsStayInsideLayout verifies names cannot escape their folder.
func TestPathsStayInsideLayout(t *testing.T) {
	s := NewArtifactStore("/u", "/r", nil)
	if got := s.ResultPath(KindAMV, "../../etc/passwd"); got != filepath.Join("/r", "amv", "passwd") {
		t.Fatalf("ResultPath = %q", got)
	}
	if got := s.ReportPath("../x"); got != filepath.Join("/r", "reports", "x", "combined_report.json") {
		t.Fatalf("ReportPath = %q", got)
	}
}

// TestSaveUploadAndExists verifies uploads are written once.
func TestSaveUploadAndExists(t *testing.T) {
	root := t.TempDir()
	s := NewArtifactStore(filepath.Join(root, "uploads"), filepath.Join(root, "results"), nil)
	_ = s.EnsureLayout()

	p, err := s.SaveUpload(KindCode, "id_app.py", strings.NewReader("print(1)"))
	if err != nil {
		t.Fatalf("SaveUpload() error = %v", err)
	}
	if !Exists(p) {
		t.Fatalf("upload %s not found", p)
	}
	if _, err := s.SaveUpload(KindCode, "id_app.py", strings.NewReader("again")); err == nil {
		t.Fatal("expected error when overwriting an upload")
	}
	if Exists(filepath.Join(root, "uploads")) {
		t.Fatal("Exists reported a directory")
	}
}

// TestPublishUsesKindKey verifies mirror keys and that failures are swallowed.
func TestPublishUsesKindKey(t *testing.T) {
	root := t.TempDir()
	mirror := &fakeMirror{err: errors.New("offline")}
	s := NewArtifactStore(filepath.Join(root, "uploads"), filepath.Join(root, "results"), mirror)

	s.Publish(context.Background(), KindReports, s.ReportPath("scan-1"))
	if len(mirror.keys) != 1 || mirror.keys[0] != "reports/scan-1/combined_report.json" {
		t.Fatalf("keys = %v", mirror.keys)
	}

	NewArtifactStore("u", "r", nil).Publish(context.Background(), KindAMV, "r/amv/x.mp4")
}
