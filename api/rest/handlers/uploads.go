package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"media-toolkit/storage"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	videoExtensions = map[string]bool{"mp4": true, "mkv": true, "avi": true}
	codeExtensions  = map[string]bool{"py": true}

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	whitespaceRuns      = regexp.MustCompile(`\s+`)
)

// uploadError is a client error with the status to answer with
type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// SanitizeFilename folds accents to ASCII, keeps [A-Za-z0-9._-] and strips
// leading dots and underscores. An empty result becomes "upload".
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))

	folder := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, name); err == nil {
		name = folded
	}

	name = whitespaceRuns.ReplaceAllString(strings.TrimSpace(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" || name == "." {
		return "upload"
	}
	return name
}

// hasExtension checks the extension case-insensitively against an allow-list
func hasExtension(name string, allowed map[string]bool) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return ext != "" && allowed[strings.ToLower(ext)]
}

// parseMultipart bounds the body and parses the form
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return &uploadError{
				status:  http.StatusRequestEntityTooLarge,
				message: fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes>>20),
			}
		}
		// A missing or non-multipart body is treated as "no file"
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil
		}
		return &uploadError{status: http.StatusBadRequest, message: fmt.Sprintf("Invalid form data: %v", err)}
	}
	return nil
}

// formFile fetches a named part, distinguishing "absent" from "no filename"
func formFile(r *http.Request, field, missingMsg, emptyMsg string) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil, &uploadError{status: http.StatusBadRequest, message: missingMsg}
	}
	header := r.MultipartForm.File[field][0]
	if strings.TrimSpace(header.Filename) == "" {
		return nil, nil, &uploadError{status: http.StatusBadRequest, message: emptyMsg}
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, &uploadError{status: http.StatusBadRequest, message: "Failed to read uploaded file"}
	}
	return file, header, nil
}

// savedUpload is an accepted upload under a fresh id
type savedUpload struct {
	ID       string
	Filename string
	Path     string
}

// saveUpload stores an accepted file as <id>_<sanitized name> under kind
func saveUpload(artifacts *storage.ArtifactStore, kind storage.Kind, file multipart.File, header *multipart.FileHeader) (*savedUpload, error) {
	defer file.Close()

	id := uuid.New().String()
	name := SanitizeFilename(header.Filename)
	path, err := artifacts.SaveUpload(kind, fmt.Sprintf("%s_%s", id, name), file)
	if err != nil {
		log.Printf("Failed to save upload %s: %v", name, err)
		return nil, err
	}
	return &savedUpload{ID: id, Filename: name, Path: path}, nil
}

// writeUploadError answers with the status carried by err, or 500
func writeUploadError(w http.ResponseWriter, err error, fallback string) {
	var ue *uploadError
	if errors.As(err, &ue) {
		writeError(w, ue.status, ue.message)
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", fallback, err))
}
