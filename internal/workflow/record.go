package workflow

import (
	"fmt"
	"strings"
	"time"
)

// DocumentRecord is the stored submission for one (student, document type) pair.
type DocumentRecord struct {
	ID           int64      `json:"id"`
	StudentID    int64      `json:"studentId"`
	DocumentType string     `json:"documentType"`
	Status       Status     `json:"status"`
	FileRef      string     `json:"fileRef,omitempty"`
	FileURL      string     `json:"fileUrl,omitempty"`
	FileName     string     `json:"fileName,omitempty"`
	ContentType  string     `json:"contentType,omitempty"`
	FileSize     int64      `json:"fileSize,omitempty"`
	Remarks      string     `json:"remarks,omitempty"`
	UploadedAt   *time.Time `json:"uploadedAt,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy   string     `json:"reviewedBy,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasFile reports whether the record carries a file reference.
func (r DocumentRecord) HasFile() bool {
	return strings.TrimSpace(r.FileRef) != ""
}

// PendingRecord returns the implicit, unstored record of a document nobody uploaded yet.
func PendingRecord(studentID int64, documentType string) DocumentRecord {
	return DocumentRecord{StudentID: studentID, DocumentType: documentType, Status: StatusPending}
}

// Decision is an admin's verdict on a document.
type Decision string

const (
	DecisionReviewing Decision = "reviewing"
	DecisionApproved  Decision = "approved"
	DecisionRejected  Decision = "rejected"
)

// ParseDecision validates a decision string.
func ParseDecision(v string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(v))); d {
	case DecisionReviewing, DecisionApproved, DecisionRejected:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDecision, v)
}

func (d Decision) event() Event {
	switch d {
	case DecisionApproved:
		return EventApprove
	case DecisionRejected:
		return EventReject
	default:
		return EventBeginReview
	}
}

// ReviewChange is what the store writes for a review decision.
type ReviewChange struct {
	Status     Status    `json:"status"`
	Remarks    string    `json:"remarks,omitempty"`
	ReviewedBy string    `json:"reviewedBy,omitempty"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

// ComputeStatus returns the status of one document for one student. Absent records
// are pending. When several records share the pair the most recently updated wins.
func ComputeStatus(studentID int64, documentType string, records []DocumentRecord) Status {
	rec, ok := FindRecord(studentID, documentType, records)
	if !ok {
		return StatusPending
	}
	return rec.Status
}

// FindRecord returns the current record for the pair, if any.
func FindRecord(studentID int64, documentType string, records []DocumentRecord) (DocumentRecord, bool) {
	var (
		found DocumentRecord
		ok    bool
	)
	for _, r := range records {
		if r.StudentID != studentID || r.DocumentType != documentType {
			continue
		}
		if !ok || r.UpdatedAt.After(found.UpdatedAt) {
			found, ok = r, true
		}
	}
	return found, ok
}
