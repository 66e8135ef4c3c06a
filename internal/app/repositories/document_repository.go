package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/oaustech/docportal/internal/db"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/dberrors"
	"github.com/oaustech/docportal/internal/pkg/logger"
	"github.com/oaustech/docportal/internal/workflow"
)

var documentColumns = []string{
	"id", "student_id", "document_type", "status", "file_ref", "file_name", "content_type",
	"file_size", "COALESCE(remarks, '')", "uploaded_at", "reviewed_at", "COALESCE(reviewed_by, '')", "updated_at",
}

// DocumentRepository persists document records, one row per (student, document type)
type DocumentRepository struct {
	db db.DBTX
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(conn db.DBTX) *DocumentRepository {
	return &DocumentRepository{db: conn}
}

func scanDocument(row rowScanner) (workflow.DocumentRecord, error) {
	var (
		rec        workflow.DocumentRecord
		status     string
		uploadedAt time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.StudentID, &rec.DocumentType, &status, &rec.FileRef, &rec.FileName, &rec.ContentType,
		&rec.FileSize, &rec.Remarks, &uploadedAt, &rec.ReviewedAt, &rec.ReviewedBy, &rec.UpdatedAt)
	if err != nil {
		return rec, err
	}
	rec.Status, err = workflow.ParseStatus(status)
	if err != nil {
		return rec, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	rec.UploadedAt = &uploadedAt
	return rec, nil
}

// Upsert stores an uploaded file for the pair, resetting status and review fields.
// A second upload for the same pair updates the existing row.
func (r *DocumentRepository) Upsert(ctx context.Context, rec workflow.DocumentRecord) (workflow.DocumentRecord, error) {
	now := rec.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	sql, args, err := psql.Insert("document_records").
		Columns("student_id", "document_type", "status", "file_ref", "file_name", "content_type",
			"file_size", "remarks", "uploaded_at", "reviewed_at", "reviewed_by", "updated_at").
		Values(rec.StudentID, rec.DocumentType, workflow.StatusUploaded.String(), rec.FileRef, rec.FileName, rec.ContentType,
			rec.FileSize, nil, now, nil, nil, now).
		Suffix(`ON CONFLICT (student_id, document_type) DO UPDATE SET
			status = EXCLUDED.status,
			file_ref = EXCLUDED.file_ref,
			file_name = EXCLUDED.file_name,
			content_type = EXCLUDED.content_type,
			file_size = EXCLUDED.file_size,
			remarks = NULL,
			uploaded_at = EXCLUDED.uploaded_at,
			reviewed_at = NULL,
			reviewed_by = NULL,
			updated_at = EXCLUDED.updated_at`).
		Suffix("RETURNING " + strings.Join(documentColumns, ", ")).
		ToSql()
	if err != nil {
		return workflow.DocumentRecord{}, fmt.Errorf("failed to build upsert document query: %w", err)
	}

	saved, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return workflow.DocumentRecord{}, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("studentID", rec.StudentID).Str("documentType", rec.DocumentType).
			Msg("Error executing upsert document query")
		return workflow.DocumentRecord{}, fmt.Errorf("error saving document record: %w", err)
	}
	return saved, nil
}

// Get returns the record of one pair
func (r *DocumentRepository) Get(ctx context.Context, studentID int64, documentType string) (workflow.DocumentRecord, error) {
	sql, args, err := psql.Select(documentColumns...).From("document_records").
		Where(squirrel.Eq{"student_id": studentID, "document_type": documentType}).
		Limit(1).ToSql()
	if err != nil {
		return workflow.DocumentRecord{}, fmt.Errorf("failed to build get document query: %w", err)
	}
	rec, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return workflow.DocumentRecord{}, apperrors.ErrDocumentRecordNotFound
		}
		return workflow.DocumentRecord{}, fmt.Errorf("error retrieving document record: %w", err)
	}
	return rec, nil
}

// ListByStudent returns every record of a student
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID int64) ([]workflow.DocumentRecord, error) {
	return r.list(ctx, squirrel.Eq{"student_id": studentID})
}

// ListByStudents returns the records of several students at once
func (r *DocumentRepository) ListByStudents(ctx context.Context, studentIDs []int64) ([]workflow.DocumentRecord, error) {
	if len(studentIDs) == 0 {
		return []workflow.DocumentRecord{}, nil
	}
	return r.list(ctx, squirrel.Eq{"student_id": studentIDs})
}

func (r *DocumentRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]workflow.DocumentRecord, error) {
	sql, args, err := psql.Select(documentColumns...).From("document_records").
		Where(where).OrderBy("student_id", "document_type").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list documents query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing document records: %w", err)
	}
	defer rows.Close()

	records := make([]workflow.DocumentRecord, 0)
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning document record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document records: %w", err)
	}
	return records, nil
}

// UpdateReview writes a review decision onto an existing record
func (r *DocumentRepository) UpdateReview(ctx context.Context, studentID int64, documentType string, change workflow.ReviewChange) (workflow.DocumentRecord, error) {
	var remarks interface{}
	if change.Remarks != "" {
		remarks = change.Remarks
	}

	sql, args, err := psql.Update("document_records").
		Set("status", change.Status.String()).
		Set("remarks", remarks).
		Set("reviewed_by", change.ReviewedBy).
		Set("reviewed_at", change.ReviewedAt).
		Set("updated_at", change.ReviewedAt).
		Where(squirrel.Eq{"student_id": studentID, "document_type": documentType}).
		Suffix("RETURNING " + strings.Join(documentColumns, ", ")).
		ToSql()
	if err != nil {
		return workflow.DocumentRecord{}, fmt.Errorf("failed to build update review query: %w", err)
	}

	rec, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return workflow.DocumentRecord{}, apperrors.ErrDocumentRecordNotFound
		}
		return workflow.DocumentRecord{}, fmt.Errorf("error updating document review: %w", err)
	}
	return rec, nil
}

// DeleteByStudent removes every record of a student and returns the file references they held
func (r *DocumentRepository) DeleteByStudent(ctx context.Context, studentID int64) ([]string, error) {
	sql, args, err := psql.Delete("document_records").
		Where(squirrel.Eq{"student_id": studentID}).
		Suffix("RETURNING file_ref").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build delete documents query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error deleting document records: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("error scanning deleted file reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
