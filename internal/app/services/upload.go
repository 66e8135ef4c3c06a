package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/oaustech/docportal/internal/workflow"
)

// sniffLen is how much of an upload is read to detect its real type
const sniffLen = 3072

// sniffContentType replaces the client-declared content type with the one detected
// from the file's leading bytes. Content that cannot be recognised is rejected as an
// invalid file type whatever the client declared. The returned file still streams the whole content.
func sniffContentType(f workflow.File) (workflow.File, error) {
	if f.Reader == nil {
		return f, nil
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return f, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if detected.Is("application/octet-stream") {
		return f, &workflow.ValidationError{
			Kind:    workflow.InvalidFileType,
			Message: fmt.Sprintf("could not recognise the content of %q; upload a PDF, JPEG or PNG file", f.Name),
		}
	}
	f.ContentType = detected.String()
	f.Reader = io.MultiReader(bytes.NewReader(head), f.Reader)
	return f, nil
}
