package services

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/pkg/email"
	"github.com/oaustech/docportal/internal/workflow"
)

// DocumentService runs uploads and reviews through the review workflow
type DocumentService struct {
	wf       *workflow.Workflow
	store    *DocumentStore
	students StudentRepository
	mailer   email.EmailService
	logger   zerolog.Logger
}

// NewDocumentService creates a DocumentService
func NewDocumentService(wf *workflow.Workflow, store *DocumentStore, students StudentRepository, mailer email.EmailService, logger zerolog.Logger) *DocumentService {
	return &DocumentService{
		wf:       wf,
		store:    store,
		students: students,
		mailer:   mailer,
		logger:   logger.With().Str("component", "document_service").Logger(),
	}
}

// Catalog describes the required documents and the upload limits
func (s *DocumentService) Catalog() dto.CatalogResponse {
	catalog := s.wf.Catalog()
	policy := s.wf.Policy()
	return dto.CatalogResponse{
		Total:      catalog.Len(),
		Documents:  catalog.Documents(),
		Categories: catalog.Categories(),
		MaxBytes:   policy.MaxSize,
		MimeTypes:  policy.AllowedTypes,
	}
}

// Records lists a student's stored records
func (s *DocumentService) Records(ctx context.Context, sess workflow.Session, studentID int64) ([]workflow.DocumentRecord, error) {
	return s.wf.Records(ctx, sess, studentID)
}

// Record returns one document's record, pending when nothing was uploaded
func (s *DocumentService) Record(ctx context.Context, sess workflow.Session, studentID int64, documentType string) (workflow.DocumentRecord, error) {
	return s.wf.Record(ctx, sess, studentID, documentType)
}

// Summary aggregates a student's progress
func (s *DocumentService) Summary(ctx context.Context, sess workflow.Session, studentID int64) (workflow.ProgressSummary, error) {
	return s.wf.Summary(ctx, sess, studentID)
}

// Upload attaches a file to one of the student's documents. The content type is
// taken from the file's bytes, not from what the client declared.
func (s *DocumentService) Upload(ctx context.Context, sess workflow.Session, studentID int64, documentType string, file workflow.File) (workflow.DocumentRecord, error) {
	rec, err := s.wf.Record(ctx, sess, studentID, documentType)
	if err != nil {
		return workflow.DocumentRecord{}, err
	}
	file, err = sniffContentType(file)
	if err != nil {
		return rec, err
	}
	return s.wf.ApplyUpload(ctx, sess, rec, file)
}

// Review records an admin decision and tells the student by email when the
// document was approved or rejected.
func (s *DocumentService) Review(ctx context.Context, sess workflow.Session, studentID int64, documentType string, decision workflow.Decision, remarks string) (workflow.DocumentRecord, error) {
	rec, err := s.wf.Record(ctx, sess, studentID, documentType)
	if err != nil {
		return workflow.DocumentRecord{}, err
	}
	updated, err := s.wf.ApplyReview(ctx, sess, rec, decision, remarks)
	if err != nil {
		return updated, err
	}
	if updated.Status == workflow.StatusApproved || updated.Status == workflow.StatusRejected {
		s.notify(ctx, updated)
	}
	return updated, nil
}

// OpenFile streams the file of a student's document
func (s *DocumentService) OpenFile(ctx context.Context, sess workflow.Session, studentID int64, documentType string) (io.ReadCloser, workflow.DocumentRecord, error) {
	rec, err := s.wf.Record(ctx, sess, studentID, documentType)
	if err != nil {
		return nil, rec, err
	}
	rc, err := s.store.Open(ctx, rec)
	if err != nil {
		return nil, rec, err
	}
	return rc, rec, nil
}

func (s *DocumentService) notify(ctx context.Context, rec workflow.DocumentRecord) {
	if s.mailer == nil {
		return
	}
	student, err := s.students.GetStudentByUserID(ctx, rec.StudentID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("studentID", rec.StudentID).Msg("Cannot notify student of review")
		return
	}
	if student.User == nil || student.User.Email == "" {
		return
	}

	name := rec.DocumentType
	if spec, ok := s.wf.Catalog().Lookup(rec.DocumentType); ok {
		name = spec.Name
	}
	notice := email.ReviewNotice{
		DocumentName: name,
		Decision:     rec.Status.String(),
		Remarks:      rec.Remarks,
		ReviewedBy:   rec.ReviewedBy,
	}
	if err := s.mailer.SendDocumentReviewedEmail(student.User.Email, student.FullName, notice); err != nil {
		s.logger.Warn().Err(err).Int64("studentID", rec.StudentID).Msg("Failed to send review email")
	}
}
