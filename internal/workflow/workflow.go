package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Workflow applies the state machine to a record store on behalf of a session.
// It holds no per-student state and is safe for concurrent use.
type Workflow struct {
	store   RecordStore
	catalog Catalog
	policy  UploadPolicy
	now     func() time.Time
}

// Option customises a Workflow.
type Option func(*Workflow)

// WithCatalog replaces the default catalog.
func WithCatalog(c Catalog) Option {
	return func(w *Workflow) { w.catalog = c }
}

// WithUploadPolicy replaces the default upload guard.
func WithUploadPolicy(p UploadPolicy) Option {
	return func(w *Workflow) { w.policy = p }
}

// WithClock sets the time source used for expiry checks and review stamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// New creates a Workflow over store.
func New(store RecordStore, opts ...Option) *Workflow {
	w := &Workflow{
		store:   store,
		catalog: DefaultCatalog(),
		policy:  DefaultUploadPolicy(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Catalog returns the catalog the workflow checks document types against.
func (w *Workflow) Catalog() Catalog { return w.catalog }

// Policy returns the upload guard.
func (w *Workflow) Policy() UploadPolicy { return w.policy }

func (w *Workflow) authorize(sess Session, studentID int64) error {
	if err := sess.Check(w.now()); err != nil {
		return err
	}
	if sess.actor() == ActorSystem {
		return nil
	}
	if !sess.CanAccessStudent(studentID) {
		return fmt.Errorf("%w: user %d cannot access student %d", ErrForbiddenActor, sess.UserID, studentID)
	}
	return nil
}

// Records lists a student's stored records. A NotFound from the store means the
// student has nothing stored yet and yields an empty list.
func (w *Workflow) Records(ctx context.Context, sess Session, studentID int64) ([]DocumentRecord, error) {
	if err := w.authorize(sess, studentID); err != nil {
		return nil, err
	}
	records, err := w.store.ListRecords(ctx, studentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []DocumentRecord{}, nil
		}
		return nil, err
	}
	return records, nil
}

// Record returns the current record for one document, or its implicit pending record.
func (w *Workflow) Record(ctx context.Context, sess Session, studentID int64, documentType string) (DocumentRecord, error) {
	if !w.catalog.Has(documentType) {
		return DocumentRecord{}, fmt.Errorf("%w: %q", ErrUnknownDocument, documentType)
	}
	records, err := w.Records(ctx, sess, studentID)
	if err != nil {
		return DocumentRecord{}, err
	}
	if rec, ok := FindRecord(studentID, documentType, records); ok {
		return rec, nil
	}
	return PendingRecord(studentID, documentType), nil
}

// Summary aggregates a student's progress against the catalog.
func (w *Workflow) Summary(ctx context.Context, sess Session, studentID int64) (ProgressSummary, error) {
	records, err := w.Records(ctx, sess, studentID)
	if err != nil {
		return ProgressSummary{}, err
	}
	summary := Aggregate(w.catalog, records)
	summary.StudentID = studentID
	return summary, nil
}

// ApplyUpload attaches file to rec. The session, the transition and the file are all
// checked before the store is called, so a failure leaves rec as it was.
func (w *Workflow) ApplyUpload(ctx context.Context, sess Session, rec DocumentRecord, file File) (DocumentRecord, error) {
	if err := w.authorize(sess, rec.StudentID); err != nil {
		return rec, err
	}
	if !w.catalog.Has(rec.DocumentType) {
		return rec, fmt.Errorf("%w: %q", ErrUnknownDocument, rec.DocumentType)
	}
	if _, err := Transition(rec.Status, EventUpload, sess.actor()); err != nil {
		return rec, err
	}
	if err := w.policy.Validate(file); err != nil {
		return rec, err
	}

	file.ContentType = NormalizeContentType(file.ContentType)
	updated, err := w.store.UpsertUpload(ctx, rec.StudentID, rec.DocumentType, file)
	if err != nil {
		return rec, err
	}
	return updated, nil
}

// ApplyReview records an admin decision on rec. Rejections need remarks and
// approvals need a file reference; neither failure reaches the store.
func (w *Workflow) ApplyReview(ctx context.Context, sess Session, rec DocumentRecord, decision Decision, remarks string) (DocumentRecord, error) {
	if err := w.authorize(sess, rec.StudentID); err != nil {
		return rec, err
	}
	actor := sess.actor()
	if actor == ActorStudent {
		return rec, fmt.Errorf("%w: students cannot review documents", ErrForbiddenActor)
	}
	if _, err := ParseDecision(string(decision)); err != nil {
		return rec, err
	}

	remarks = strings.TrimSpace(remarks)
	if decision == DecisionRejected && remarks == "" {
		return rec, newValidationError(MissingRemarks, "remarks are required when rejecting a document")
	}
	if !w.catalog.Has(rec.DocumentType) {
		return rec, fmt.Errorf("%w: %q", ErrUnknownDocument, rec.DocumentType)
	}

	next, err := Transition(rec.Status, decision.event(), actor)
	if err != nil {
		return rec, err
	}
	if next == StatusApproved && !rec.HasFile() {
		return rec, ErrMissingFile
	}

	change := ReviewChange{
		Status:     next,
		ReviewedBy: sess.Username,
		ReviewedAt: w.now().UTC(),
	}
	if next == StatusRejected {
		change.Remarks = remarks
	}
	updated, err := w.store.UpdateReview(ctx, rec.StudentID, rec.DocumentType, change)
	if err != nil {
		return rec, err
	}
	return updated, nil
}

// DeleteStudent removes every record of a student. Admins only.
func (w *Workflow) DeleteStudent(ctx context.Context, sess Session, studentID int64) error {
	if err := sess.Check(w.now()); err != nil {
		return err
	}
	if sess.actor() != ActorAdmin {
		return fmt.Errorf("%w: only admins can delete a student's documents", ErrForbiddenActor)
	}
	return w.store.DeleteStudentRecords(ctx, studentID)
}
