// Package workflowtest provides an in-memory workflow.RecordStore for tests.
package workflowtest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/oaustech/docportal/internal/workflow"
)

type key struct {
	student int64
	docType string
}

// MemStore keeps records in a map keyed by (student, document type).
type MemStore struct {
	mu      sync.Mutex
	records map[key]workflow.DocumentRecord
	nextID  int64
	now     func() time.Time

	// Calls counts store calls by method name.
	Calls map[string]int
	// Err, when set, is returned by every call.
	Err error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[key]workflow.DocumentRecord),
		now:     time.Now,
		Calls:   make(map[string]int),
	}
}

// Put stores rec as is, overwriting any record for the same pair.
func (m *MemStore) Put(rec workflow.DocumentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == 0 {
		m.nextID++
		rec.ID = m.nextID
	}
	m.records[key{rec.StudentID, rec.DocumentType}] = rec
}

// Len returns the number of stored records.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// CallCount returns how often method was called.
func (m *MemStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

func (m *MemStore) enter(method string) error {
	m.Calls[method]++
	return m.Err
}

func (m *MemStore) ListRecords(_ context.Context, studentID int64) ([]workflow.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListRecords"); err != nil {
		return nil, err
	}
	out := []workflow.DocumentRecord{}
	for k, r := range m.records {
		if k.student == studentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentType < out[j].DocumentType })
	return out, nil
}

func (m *MemStore) UpsertUpload(_ context.Context, studentID int64, documentType string, file workflow.File) (workflow.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpsertUpload"); err != nil {
		return workflow.DocumentRecord{}, err
	}
	if file.Reader != nil {
		if _, err := io.Copy(io.Discard, file.Reader); err != nil {
			return workflow.DocumentRecord{}, err
		}
	}

	k := key{studentID, documentType}
	rec, ok := m.records[k]
	if !ok {
		m.nextID++
		rec = workflow.DocumentRecord{ID: m.nextID, StudentID: studentID, DocumentType: documentType}
	}
	now := m.now().UTC()
	rec.Status = workflow.StatusUploaded
	rec.FileRef = fmt.Sprintf("mem/%d/%s/%d", studentID, documentType, now.UnixNano())
	rec.FileName = file.Name
	rec.ContentType = file.ContentType
	rec.FileSize = file.Size
	rec.Remarks = ""
	rec.ReviewedBy = ""
	rec.ReviewedAt = nil
	rec.UploadedAt = &now
	rec.UpdatedAt = now
	m.records[k] = rec
	return rec, nil
}

func (m *MemStore) UpdateReview(_ context.Context, studentID int64, documentType string, change workflow.ReviewChange) (workflow.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateReview"); err != nil {
		return workflow.DocumentRecord{}, err
	}
	k := key{studentID, documentType}
	rec, ok := m.records[k]
	if !ok {
		return workflow.DocumentRecord{}, &workflow.TransportError{Kind: workflow.TransportNotFound, Message: "document record not found"}
	}
	reviewedAt := change.ReviewedAt
	rec.Status = change.Status
	rec.Remarks = change.Remarks
	rec.ReviewedBy = change.ReviewedBy
	rec.ReviewedAt = &reviewedAt
	rec.UpdatedAt = m.now().UTC()
	m.records[k] = rec
	return rec, nil
}

func (m *MemStore) DeleteStudentRecords(_ context.Context, studentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteStudentRecords"); err != nil {
		return err
	}
	for k := range m.records {
		if k.student == studentID {
			delete(m.records, k)
		}
	}
	return nil
}

var _ workflow.RecordStore = (*MemStore)(nil)
