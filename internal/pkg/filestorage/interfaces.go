package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a reference does not resolve to a stored object
var ErrNotFound = errors.New("stored file not found")

// FileStorage stores uploaded document blobs. A ref is an opaque handle
// returned by Put and later passed to Open, URL and Delete.
type FileStorage interface {
	// Put stores the content under key and returns the reference to persist
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)

	// Open streams a stored object
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// URL returns a direct download link, or "" when the backend has none
	URL(ctx context.Context, ref string) (string, error)

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, ref string) error
}

// ObjectKey builds a unique key for a student's document upload, keeping the
// original extension: students/42/jamb-admission/<uuid>.pdf
func ObjectKey(studentID int64, documentType, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("students/%d/%s/%s%s", studentID, sanitizeSegment(documentType), uuid.New().String(), ext)
}

// ProfileKey builds a unique key for a profile picture.
func ProfileKey(filename string) string {
	return "profiles/" + uuid.New().String() + strings.ToLower(path.Ext(filename))
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// cleanRef normalises a reference and rejects ones escaping the storage root
func cleanRef(ref string) (string, error) {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" {
		return "", fmt.Errorf("empty file reference")
	}
	cleaned := path.Clean("/" + ref)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(ref, "/") || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid file reference %q", ref)
	}
	return cleaned, nil
}
