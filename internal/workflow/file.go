package workflow

import (
	"io"
	"mime"
	"strings"
)

// MaxUploadSize is the largest accepted upload, inclusive.
const MaxUploadSize int64 = 10 << 20

// File is an upload candidate. Reader may be nil for pure validation.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UploadPolicy holds the guard applied to every upload.
type UploadPolicy struct {
	MaxSize      int64
	AllowedTypes []string
}

// DefaultUploadPolicy accepts PDF, JPEG and PNG up to 10 MiB.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxSize:      MaxUploadSize,
		AllowedTypes: []string{"application/pdf", "image/jpeg", "image/png"},
	}
}

// NormalizeContentType lowercases a media type, drops parameters and folds image/jpg
// into image/jpeg.
func NormalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	ct = strings.ToLower(ct)
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return "image/jpeg"
	}
	return ct
}

// Allows reports whether the content type is on the allow list.
func (p UploadPolicy) Allows(contentType string) bool {
	ct := NormalizeContentType(contentType)
	for _, allowed := range p.AllowedTypes {
		if NormalizeContentType(allowed) == ct {
			return true
		}
	}
	return false
}

// Validate checks type before size so a wrong type is reported even when the file is also too big.
func (p UploadPolicy) Validate(f File) error {
	if !p.Allows(f.ContentType) {
		return newValidationError(InvalidFileType,
			"file type %q is not allowed; upload a PDF, JPEG or PNG file", f.ContentType)
	}
	limit := p.MaxSize
	if limit <= 0 {
		limit = MaxUploadSize
	}
	if f.Size > limit {
		return newValidationError(FileTooLarge,
			"file is %d bytes; the limit is %d bytes (%d MiB)", f.Size, limit, limit>>20)
	}
	return nil
}

// ValidateFile applies the default policy.
func ValidateFile(f File) error {
	return DefaultUploadPolicy().Validate(f)
}
