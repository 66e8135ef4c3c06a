package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/filestorage"
	"github.com/oaustech/docportal/internal/workflow"
)

// blobDeleteConcurrency bounds parallel storage deletes when a student is removed
const blobDeleteConcurrency = 4

// DocumentStore is the workflow.RecordStore backed by the document repository
// for records and FileStorage for the uploaded blobs.
type DocumentStore struct {
	docs    DocumentRepository
	storage filestorage.FileStorage
	urls    *URLResolver
	now     func() time.Time
	logger  zerolog.Logger
}

var _ workflow.RecordStore = (*DocumentStore)(nil)

// NewDocumentStore creates a DocumentStore
func NewDocumentStore(docs DocumentRepository, storage filestorage.FileStorage, urls *URLResolver, logger zerolog.Logger) *DocumentStore {
	return &DocumentStore{
		docs:    docs,
		storage: storage,
		urls:    urls,
		now:     time.Now,
		logger:  logger.With().Str("component", "document_store").Logger(),
	}
}

// withURL fills FileURL of a record that has a file
func (s *DocumentStore) withURL(ctx context.Context, rec workflow.DocumentRecord) workflow.DocumentRecord {
	if rec.HasFile() {
		rec.FileURL = s.urls.Document(ctx, rec.StudentID, rec.DocumentType, rec.FileRef)
	}
	return rec
}

// ListRecords implements workflow.RecordStore
func (s *DocumentStore) ListRecords(ctx context.Context, studentID int64) ([]workflow.DocumentRecord, error) {
	records, err := s.docs.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i] = s.withURL(ctx, records[i])
	}
	return records, nil
}

// UpsertUpload implements workflow.RecordStore. The blob is stored first; if the
// record cannot be saved it is removed again, and a replaced blob is removed once
// the record points at the new one.
func (s *DocumentStore) UpsertUpload(ctx context.Context, studentID int64, documentType string, file workflow.File) (workflow.DocumentRecord, error) {
	previous, err := s.docs.Get(ctx, studentID, documentType)
	if err != nil && !errors.Is(err, apperrors.ErrDocumentRecordNotFound) {
		return workflow.DocumentRecord{}, err
	}

	key := filestorage.ObjectKey(studentID, documentType, file.Name)
	ref, err := s.storage.Put(ctx, key, file.Reader, file.Size, file.ContentType)
	if err != nil {
		return workflow.DocumentRecord{}, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}

	saved, err := s.docs.Upsert(ctx, workflow.DocumentRecord{
		StudentID:    studentID,
		DocumentType: documentType,
		FileRef:      ref,
		FileName:     file.Name,
		ContentType:  file.ContentType,
		FileSize:     file.Size,
		UpdatedAt:    s.now().UTC(),
	})
	if err != nil {
		s.deleteBlob(ref)
		return workflow.DocumentRecord{}, err
	}

	if previous.HasFile() && previous.FileRef != ref {
		s.deleteBlob(previous.FileRef)
	}

	s.logger.Info().Int64("studentID", studentID).Str("documentType", documentType).
		Int64("size", file.Size).Msg("Document uploaded")
	return s.withURL(ctx, saved), nil
}

// UpdateReview implements workflow.RecordStore
func (s *DocumentStore) UpdateReview(ctx context.Context, studentID int64, documentType string, change workflow.ReviewChange) (workflow.DocumentRecord, error) {
	rec, err := s.docs.UpdateReview(ctx, studentID, documentType, change)
	if err != nil {
		return workflow.DocumentRecord{}, err
	}
	s.logger.Info().Int64("studentID", studentID).Str("documentType", documentType).
		Str("status", change.Status.String()).Str("reviewedBy", change.ReviewedBy).Msg("Document reviewed")
	return s.withURL(ctx, rec), nil
}

// DeleteStudentRecords implements workflow.RecordStore. Rows go first; the files
// are removed afterwards since no row points at them any more.
func (s *DocumentStore) DeleteStudentRecords(ctx context.Context, studentID int64) error {
	refs, err := s.docs.DeleteByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	s.DeleteFiles(ctx, studentID, refs)
	return nil
}

// DeleteFiles removes blobs in parallel. Failures are only logged; callers run it
// after the rows referencing refs are gone for good.
func (s *DocumentStore) DeleteFiles(ctx context.Context, studentID int64, refs []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobDeleteConcurrency)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		ref := ref
		g.Go(func() error {
			if err := s.storage.Delete(gctx, ref); err != nil {
				return fmt.Errorf("delete %s: %w", ref, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Int64("studentID", studentID).Msg("Some document files could not be removed")
	}
	s.logger.Info().Int64("studentID", studentID).Int("files", len(refs)).Msg("Student documents deleted")
}

// Open streams the file of a record
func (s *DocumentStore) Open(ctx context.Context, rec workflow.DocumentRecord) (io.ReadCloser, error) {
	if !rec.HasFile() {
		return nil, apperrors.NewResourceNotFoundError("Document has no uploaded file")
	}
	rc, err := s.storage.Open(ctx, rec.FileRef)
	if err != nil {
		if errors.Is(err, filestorage.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Stored file not found")
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return rc, nil
}

func (s *DocumentStore) deleteBlob(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, ref); err != nil {
		s.logger.Warn().Err(err).Str("ref", ref).Msg("Failed to delete stored file")
	}
}
