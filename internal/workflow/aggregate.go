package workflow

// OverallStatus is the derived state of a student's whole document set.
type OverallStatus string

const (
	OverallIncomplete  OverallStatus = "incomplete"
	OverallUnderReview OverallStatus = "under-review"
	OverallRejected    OverallStatus = "rejected"
	OverallApproved    OverallStatus = "approved"
)

// ParseOverallStatus validates a filter value.
func ParseOverallStatus(v string) (OverallStatus, bool) {
	switch s := OverallStatus(v); s {
	case OverallIncomplete, OverallUnderReview, OverallRejected, OverallApproved:
		return s, true
	}
	return "", false
}

// DocumentProgress is one catalog entry joined with its current record.
type DocumentProgress struct {
	Spec          RequiredDocument `json:"spec"`
	Status        Status           `json:"status"`
	Record        *DocumentRecord  `json:"record,omitempty"`
	UploadAllowed bool             `json:"uploadAllowed"`
}

// CategoryProgress groups the catalog entries and records of one category.
type CategoryProgress struct {
	Category  Category           `json:"category"`
	Documents []RequiredDocument `json:"documents"`
	Records   []DocumentRecord   `json:"records"`
	Submitted int                `json:"submitted"`
	Approved  int                `json:"approved"`
}

// ProgressSummary is everything derived from a student's records. Nothing in it is stored.
type ProgressSummary struct {
	StudentID           int64              `json:"studentId"`
	Total               int                `json:"total"`
	SubmittedCount      int                `json:"submittedCount"`
	ApprovedCount       int                `json:"approvedCount"`
	UnderReviewCount    int                `json:"underReviewCount"`
	RejectedCount       int                `json:"rejectedCount"`
	PendingCount        int                `json:"pendingCount"`
	UploadProgressPct   float64            `json:"uploadProgressPct"`
	ApprovalProgressPct float64            `json:"approvalProgressPct"`
	OverallStatus       OverallStatus      `json:"overallStatus"`
	Documents           []DocumentProgress `json:"documents"`
	Categories          []CategoryProgress `json:"categories"`
}

// Aggregate derives a ProgressSummary. Records for document types outside the catalog
// are ignored and duplicates for one type collapse to the most recently updated.
func Aggregate(catalog Catalog, records []DocumentRecord) ProgressSummary {
	current := make(map[string]DocumentRecord, len(records))
	var studentID int64
	for _, r := range records {
		if !catalog.Has(r.DocumentType) {
			continue
		}
		if prev, ok := current[r.DocumentType]; ok && !r.UpdatedAt.After(prev.UpdatedAt) {
			continue
		}
		current[r.DocumentType] = r
		studentID = r.StudentID
	}

	s := ProgressSummary{
		StudentID: studentID,
		Total:     catalog.Len(),
		Documents: make([]DocumentProgress, 0, catalog.Len()),
	}
	byCategory := make(map[Category]*CategoryProgress)
	for _, cat := range AllCategories() {
		byCategory[cat] = &CategoryProgress{Category: cat, Documents: []RequiredDocument{}, Records: []DocumentRecord{}}
	}

	for _, spec := range catalog.Documents() {
		dp := DocumentProgress{Spec: spec, Status: StatusPending}
		cp := byCategory[spec.Category]
		cp.Documents = append(cp.Documents, spec)

		if rec, ok := current[spec.ID]; ok && rec.Status.Stored() {
			rec := rec
			dp.Status = rec.Status
			dp.Record = &rec
			cp.Records = append(cp.Records, rec)
			cp.Submitted++
			s.SubmittedCount++
			Match(rec.Status,
				func() {},
				func() { s.UnderReviewCount++ },
				func() { s.UnderReviewCount++ },
				func() { s.ApprovedCount++; cp.Approved++ },
				func() { s.RejectedCount++ },
			)()
		}
		dp.UploadAllowed = CanUpload(dp.Status)
		s.Documents = append(s.Documents, dp)
	}

	s.PendingCount = s.Total - s.SubmittedCount
	s.UploadProgressPct = percent(s.SubmittedCount, s.Total)
	s.ApprovalProgressPct = percent(s.ApprovedCount, s.Total)
	s.OverallStatus = overall(s)

	for _, cat := range AllCategories() {
		s.Categories = append(s.Categories, *byCategory[cat])
	}
	return s
}

func overall(s ProgressSummary) OverallStatus {
	switch {
	case s.Total > 0 && s.ApprovedCount == s.Total:
		return OverallApproved
	case s.RejectedCount > 0:
		return OverallRejected
	case s.SubmittedCount > 0:
		return OverallUnderReview
	default:
		return OverallIncomplete
	}
}

// percent guards the empty catalog and clamps to [0, 100].
func percent(n, total int) float64 {
	if total <= 0 || n <= 0 {
		return 0
	}
	if n >= total {
		return 100
	}
	return float64(n) / float64(total) * 100
}
