package workflow_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaustech/docportal/internal/workflow"
)

func recordsWith(catalog workflow.Catalog, statuses ...workflow.Status) []workflow.DocumentRecord {
	docs := catalog.Documents()
	out := make([]workflow.DocumentRecord, 0, len(statuses))
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	for i, s := range statuses {
		out = append(out, workflow.DocumentRecord{
			ID:           int64(i + 1),
			StudentID:    7,
			DocumentType: docs[i].ID,
			Status:       s,
			FileRef:      fmt.Sprintf("students/7/%s.pdf", docs[i].ID),
			UpdatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func repeat(s workflow.Status, n int) []workflow.Status {
	out := make([]workflow.Status, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestAggregateNoRecords(t *testing.T) {
	s := workflow.Aggregate(workflow.DefaultCatalog(), nil)

	assert.Equal(t, 15, s.Total)
	assert.Equal(t, workflow.OverallIncomplete, s.OverallStatus)
	assert.Zero(t, s.UploadProgressPct)
	assert.Zero(t, s.ApprovalProgressPct)
	assert.Equal(t, 15, s.PendingCount)
	require.Len(t, s.Documents, 15)
	for _, d := range s.Documents {
		assert.Equal(t, workflow.StatusPending, d.Status)
		assert.Nil(t, d.Record)
		assert.True(t, d.UploadAllowed)
	}
}

func TestAggregateAllApproved(t *testing.T) {
	catalog := workflow.DefaultCatalog()
	s := workflow.Aggregate(catalog, recordsWith(catalog, repeat(workflow.StatusApproved, 15)...))

	assert.Equal(t, workflow.OverallApproved, s.OverallStatus)
	assert.Equal(t, 100.0, s.ApprovalProgressPct)
	assert.Equal(t, 100.0, s.UploadProgressPct)
	assert.Equal(t, 15, s.ApprovedCount)
	assert.Equal(t, int64(7), s.StudentID)
	for _, d := range s.Documents {
		assert.False(t, d.UploadAllowed, d.Spec.ID)
	}
}

func TestAggregateOneRejected(t *testing.T) {
	catalog := workflow.DefaultCatalog()
	statuses := append(repeat(workflow.StatusApproved, 10), workflow.StatusRejected)
	s := workflow.Aggregate(catalog, recordsWith(catalog, statuses...))

	assert.Equal(t, workflow.OverallRejected, s.OverallStatus)
	assert.Equal(t, 11, s.SubmittedCount)
	assert.Equal(t, 10, s.ApprovedCount)
	assert.Equal(t, 1, s.RejectedCount)
	assert.Equal(t, 4, s.PendingCount)
	assert.InDelta(t, 11.0/15*100, s.UploadProgressPct, 1e-9)
}

func TestAggregateUnderReview(t *testing.T) {
	catalog := workflow.DefaultCatalog()
	s := workflow.Aggregate(catalog, recordsWith(catalog,
		workflow.StatusApproved, workflow.StatusUploaded, workflow.StatusReviewing))

	assert.Equal(t, workflow.OverallUnderReview, s.OverallStatus)
	assert.Equal(t, 2, s.UnderReviewCount)
	assert.Equal(t, 3, s.SubmittedCount)
}

func TestAggregateIgnoresUnknownAndDuplicateRecords(t *testing.T) {
	catalog := workflow.DefaultCatalog()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []workflow.DocumentRecord{
		{StudentID: 1, DocumentType: "jamb-admission", Status: workflow.StatusRejected, Remarks: "blurry", UpdatedAt: older},
		{StudentID: 1, DocumentType: "jamb-admission", Status: workflow.StatusApproved, FileRef: "x", UpdatedAt: older.Add(time.Hour)},
		{StudentID: 1, DocumentType: "passport-photo", Status: workflow.StatusUploaded, FileRef: "y", UpdatedAt: older},
	}
	s := workflow.Aggregate(catalog, records)

	assert.Equal(t, 1, s.SubmittedCount)
	assert.Equal(t, 1, s.ApprovedCount)
	assert.Zero(t, s.RejectedCount)
	assert.Equal(t, workflow.StatusApproved, workflow.ComputeStatus(1, "jamb-admission", records))
}

func TestAggregateCategories(t *testing.T) {
	catalog := workflow.DefaultCatalog()
	s := workflow.Aggregate(catalog, recordsWith(catalog, workflow.StatusApproved, workflow.StatusUploaded))

	require.Len(t, s.Categories, 6)
	for i, cat := range workflow.AllCategories() {
		assert.Equal(t, cat, s.Categories[i].Category)
	}

	total := 0
	for _, c := range s.Categories {
		total += len(c.Documents)
	}
	assert.Equal(t, 15, total)

	admission := s.Categories[0]
	assert.Len(t, admission.Documents, 4)
	assert.Len(t, admission.Records, 2)
	assert.Equal(t, 2, admission.Submitted)
	assert.Equal(t, 1, admission.Approved)
	assert.Len(t, s.Categories[5].Documents, 1)
}

func TestAggregateEmptyCatalog(t *testing.T) {
	empty, err := workflow.NewCatalog(nil)
	require.NoError(t, err)

	s := workflow.Aggregate(empty, []workflow.DocumentRecord{
		{StudentID: 1, DocumentType: "jamb-admission", Status: workflow.StatusApproved},
	})
	assert.Zero(t, s.Total)
	assert.Zero(t, s.UploadProgressPct)
	assert.Zero(t, s.ApprovalProgressPct)
	assert.Equal(t, workflow.OverallIncomplete, s.OverallStatus)
}

func TestAggregatePercentagesInRange(t *testing.T) {
	full := workflow.DefaultCatalog().Documents()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(len(full))
		catalog, err := workflow.NewCatalog(full[:n])
		require.NoError(t, err)

		var records []workflow.DocumentRecord
		for j := 0; j < rng.Intn(40); j++ {
			records = append(records, workflow.DocumentRecord{
				StudentID:    1,
				DocumentType: full[rng.Intn(len(full))].ID,
				Status:       workflow.AllStatuses()[rng.Intn(5)],
				UpdatedAt:    time.Unix(int64(rng.Intn(1000)), 0),
			})
		}

		s := workflow.Aggregate(catalog, records)
		for _, pct := range []float64{s.UploadProgressPct, s.ApprovalProgressPct} {
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
		}
		assert.LessOrEqual(t, s.SubmittedCount, s.Total)
		assert.Equal(t, s.Total, s.SubmittedCount+s.PendingCount)
	}
}

func TestCatalog(t *testing.T) {
	c := workflow.DefaultCatalog()
	assert.Equal(t, workflow.RequiredDocumentCount, c.Len())
	assert.Equal(t, workflow.AllCategories(), c.Categories())

	doc, ok := c.Lookup("payment-receipts")
	require.True(t, ok)
	assert.Equal(t, workflow.CategoryFinancial, doc.Category)
	assert.Equal(t, 4, doc.Copies.Photocopies)

	_, ok = c.Lookup("passport")
	assert.False(t, ok)

	_, err := workflow.NewCatalog([]workflow.RequiredDocument{
		{ID: "a", Category: workflow.CategoryLegal},
		{ID: "a", Category: workflow.CategoryLegal},
	})
	assert.Error(t, err)

	_, err = workflow.NewCatalog([]workflow.RequiredDocument{{ID: "a", Category: "sports"}})
	assert.Error(t, err)
}
