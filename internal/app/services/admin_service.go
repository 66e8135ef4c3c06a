package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/helpers"
	"github.com/oaustech/docportal/internal/workflow"
)

// AdminService backs the admin dashboard
type AdminService struct {
	wf     *workflow.Workflow
	repos  Repos
	tx     TxManager
	store  *DocumentStore
	urls   *URLResolver
	logger zerolog.Logger
}

// NewAdminService creates an AdminService
func NewAdminService(
	wf *workflow.Workflow,
	repos Repos,
	tx TxManager,
	store *DocumentStore,
	urls *URLResolver,
	logger zerolog.Logger,
) *AdminService {
	return &AdminService{
		wf:     wf,
		repos:  repos,
		tx:     tx,
		store:  store,
		urls:   urls,
		logger: logger.With().Str("component", "admin_service").Logger(),
	}
}

func requireAdmin(sess workflow.Session) error {
	if !sess.IsAdmin() {
		return apperrors.NewForbiddenError("Admin access required")
	}
	return nil
}

// overview aggregates every student matching filter
func (s *AdminService) overview(ctx context.Context, filter models.StudentFilter) ([]dto.StudentListItem, error) {
	filter.Limit = 0
	students, _, err := s.repos.Students.ListStudents(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(students))
	for i, st := range students {
		ids[i] = st.UserID
	}
	records, err := s.repos.Documents.ListByStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[int64][]workflow.DocumentRecord, len(students))
	for _, rec := range records {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	catalog := s.wf.Catalog()
	items := make([]dto.StudentListItem, 0, len(students))
	for _, st := range students {
		summary := workflow.Aggregate(catalog, byStudent[st.UserID])
		items = append(items, dto.StudentListItem{
			StudentResponse: dto.NewStudentResponse(st, s.urls.Photo(ctx, st.UserID, st.ProfilePhotoRef)),
			Submitted:       summary.SubmittedCount,
			Approved:        summary.ApprovedCount,
			Total:           summary.Total,
			OverallStatus:   summary.OverallStatus,
		})
	}
	return items, nil
}

// ListStudents returns one page of students with their document progress.
// The status filter applies to the derived overall status.
func (s *AdminService) ListStudents(ctx context.Context, sess workflow.Session, query dto.StudentListQuery) (*dto.PaginatedResponse, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	var statusFilter workflow.OverallStatus
	if query.Status != "" {
		st, ok := workflow.ParseOverallStatus(query.Status)
		if !ok {
			return nil, apperrors.NewBadRequestError("Unknown status filter")
		}
		statusFilter = st
	}

	items, err := s.overview(ctx, models.StudentFilter{Search: query.Search, Department: query.Department})
	if err != nil {
		return nil, err
	}
	if statusFilter != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.OverallStatus == statusFilter {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	page, size := helpers.NormalizePage(query.Page, query.Size)
	start, end := helpers.CalculateSliceIndices(page, size, len(items))
	return &dto.PaginatedResponse{
		Items:      items[start:end],
		Pagination: helpers.NewPaginationInfo(int64(len(items)), page, size),
	}, nil
}

// Stats counts students per overall status
func (s *AdminService) Stats(ctx context.Context, sess workflow.Session) (*dto.DashboardStats, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	items, err := s.overview(ctx, models.StudentFilter{})
	if err != nil {
		return nil, err
	}
	stats := &dto.DashboardStats{}
	for _, it := range items {
		stats.Add(it.OverallStatus)
	}
	return stats, nil
}

// StudentDetail returns a student's profile with their full document progress.
// Students may read their own.
func (s *AdminService) StudentDetail(ctx context.Context, sess workflow.Session, studentID int64) (*dto.StudentDetailResponse, error) {
	if !sess.CanAccessStudent(studentID) {
		return nil, apperrors.NewForbiddenError("You cannot view this student")
	}
	student, err := s.repos.Students.GetStudentByUserID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	summary, err := s.wf.Summary(ctx, sess, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.StudentDetailResponse{
		Student:  dto.NewStudentResponse(student, s.urls.Photo(ctx, student.UserID, student.ProfilePhotoRef)),
		Progress: summary,
	}, nil
}

// DeleteStudent removes a student with their documents, files and account.
// Rows go in one transaction; files are only touched once it has committed,
// so a failed delete leaves the student exactly as it was.
func (s *AdminService) DeleteStudent(ctx context.Context, sess workflow.Session, studentID int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if err := sess.Check(time.Now()); err != nil {
		return err
	}
	student, err := s.repos.Students.GetStudentByUserID(ctx, studentID)
	if err != nil {
		return err
	}

	var refs []string
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		deleted, err := repos.Documents.DeleteByStudent(ctx, studentID)
		if err != nil {
			return err
		}
		// the students row cascades from users
		if err := repos.Users.DeleteUser(ctx, studentID); err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
		refs = deleted
		return nil
	})
	if err != nil {
		return err
	}

	if student.ProfilePhotoRef != nil {
		refs = append(refs, *student.ProfilePhotoRef)
	}
	s.store.DeleteFiles(ctx, studentID, refs)
	s.logger.Info().Int64("studentID", studentID).Str("by", sess.Username).Msg("Student deleted")
	return nil
}

// DeleteStudentDocuments clears a student's records and files but keeps the account
func (s *AdminService) DeleteStudentDocuments(ctx context.Context, sess workflow.Session, studentID int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if _, err := s.repos.Students.GetStudentByUserID(ctx, studentID); err != nil {
		return err
	}
	if err := s.wf.DeleteStudent(ctx, sess, studentID); err != nil {
		return err
	}
	s.logger.Info().Int64("studentID", studentID).Str("by", sess.Username).Msg("Student documents deleted")
	return nil
}
