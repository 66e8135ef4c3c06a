package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/pkg/filestorage"
)

// APIPrefix is where the versioned API is mounted
const APIPrefix = "/api/v1"

// URLResolver turns storage references into links a browser can open: a direct
// storage link when the backend offers one, the API's streaming endpoint otherwise.
type URLResolver struct {
	storage filestorage.FileStorage
	baseURL string
	logger  zerolog.Logger
}

// NewURLResolver creates a URLResolver; baseURL is the public address of the API server
func NewURLResolver(storage filestorage.FileStorage, baseURL string, logger zerolog.Logger) *URLResolver {
	return &URLResolver{
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// DocumentFilePath is the API path streaming a document's file
func DocumentFilePath(studentID int64, documentType string) string {
	return fmt.Sprintf("%s/students/%d/documents/%s/file", APIPrefix, studentID, url.PathEscape(documentType))
}

// ProfilePhotoPath is the API path streaming a student's profile picture
func ProfilePhotoPath(studentID int64) string {
	return fmt.Sprintf("%s/students/%d/photo", APIPrefix, studentID)
}

// Document resolves the link of a document's file
func (u *URLResolver) Document(ctx context.Context, studentID int64, documentType, ref string) string {
	return u.resolve(ctx, ref, DocumentFilePath(studentID, documentType))
}

// Photo resolves the link of a profile picture
func (u *URLResolver) Photo(ctx context.Context, studentID int64, ref *string) string {
	if ref == nil {
		return ""
	}
	return u.resolve(ctx, *ref, ProfilePhotoPath(studentID))
}

func (u *URLResolver) resolve(ctx context.Context, ref, apiPath string) string {
	if strings.TrimSpace(ref) == "" {
		return ""
	}
	direct, err := u.storage.URL(ctx, ref)
	if err != nil {
		u.logger.Warn().Err(err).Str("ref", ref).Msg("Failed to resolve file URL")
	}
	if direct != "" {
		return direct
	}
	return u.baseURL + apiPath
}
