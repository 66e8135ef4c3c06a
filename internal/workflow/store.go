package workflow

import "context"

// RecordStore persists document records. Every call may fail and may cross the
// network; the workflow never retries a failed call.
type RecordStore interface {
	// ListRecords returns every stored record of a student. Pending documents have no record.
	ListRecords(ctx context.Context, studentID int64) ([]DocumentRecord, error)
	// UpsertUpload attaches a file and resets the record to uploaded, creating it if
	// absent. Calling it twice for the same pair must leave exactly one record.
	UpsertUpload(ctx context.Context, studentID int64, documentType string, file File) (DocumentRecord, error)
	// UpdateReview writes a review decision onto an existing record.
	UpdateReview(ctx context.Context, studentID int64, documentType string, change ReviewChange) (DocumentRecord, error)
	// DeleteStudentRecords removes all of a student's records.
	DeleteStudentRecords(ctx context.Context, studentID int64) error
}
