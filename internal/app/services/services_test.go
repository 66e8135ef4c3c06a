package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/filestorage"
	"github.com/oaustech/docportal/internal/workflow"
)

func pdfFile(name string) workflow.File {
	return workflow.File{Name: name, ContentType: "application/pdf", Size: int64(len(pdfBytes)), Reader: bytes.NewReader(pdfBytes)}
}

func TestSniffContentType(t *testing.T) {
	f, err := sniffContentType(workflow.File{Name: "a.pdf", ContentType: "image/png", Reader: bytes.NewReader(pdfBytes)})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType)

	content, err := io.ReadAll(f.Reader)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, content, "sniffing must not consume the stream")
}

func TestSniffRejectsUnrecognisedContent(t *testing.T) {
	garbage := []byte{0x00, 0x13, 0x37, 0xfe, 0xed, 0x00, 0x01, 0x02, 0xff, 0x00}
	_, err := sniffContentType(workflow.File{Name: "a.pdf", ContentType: "application/pdf", Reader: bytes.NewReader(garbage)})
	assert.ErrorIs(t, err, workflow.ErrInvalidFileType)

	h := newHarness(t)
	sess := h.addStudent(t, "ST001", "Ada Okafor", "CSC")
	_, err = h.docs.Upload(context.Background(), sess, sess.UserID, "jamb-admission", workflow.File{
		Name: "a.pdf", ContentType: "application/pdf", Size: int64(len(garbage)), Reader: bytes.NewReader(garbage),
	})
	assert.ErrorIs(t, err, workflow.ErrInvalidFileType)

	records, err := h.db.repos().Documents.ListByStudent(context.Background(), sess.UserID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUploadStoresFileAndURL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.addStudent(t, "ST001", "Ada Okafor", "CSC")

	rec, err := h.docs.Upload(ctx, sess, sess.UserID, "jamb-admission", pdfFile("jamb.pdf"))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusUploaded, rec.Status)
	assert.Equal(t, "application/pdf", rec.ContentType)
	assert.Equal(t, "http://portal.test"+DocumentFilePath(sess.UserID, "jamb-admission"), rec.FileURL)

	rc, got, err := h.docs.OpenFile(ctx, sess, sess.UserID, "jamb-admission")
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, content)
	assert.Equal(t, "jamb.pdf", got.FileName)
}

func TestReuploadReplacesBlob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.addStudent(t, "ST001", "Ada Okafor", "CSC")

	first, err := h.docs.Upload(ctx, sess, sess.UserID, "course-form", pdfFile("v1.pdf"))
	require.NoError(t, err)
	second, err := h.docs.Upload(ctx, sess, sess.UserID, "course-form", pdfFile("v2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.FileRef, second.FileRef)
	_, err = h.storage.Open(ctx, first.FileRef)
	assert.ErrorIs(t, err, filestorage.ErrNotFound)

	records, err := h.docs.Records(ctx, sess, sess.UserID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUploadRejectsSpoofedType(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.addStudent(t, "ST001", "Ada Okafor", "CSC")

	text := []byte("just some plain text pretending to be a pdf")
	_, err := h.docs.Upload(ctx, sess, sess.UserID, "course-form", workflow.File{
		Name: "fake.pdf", ContentType: "application/pdf", Size: int64(len(text)), Reader: bytes.NewReader(text),
	})
	assert.ErrorIs(t, err, workflow.ErrInvalidFileType)

	records, err := h.docs.Records(ctx, sess, sess.UserID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReviewNotifiesStudent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.addStudent(t, "ST001", "Ada Okafor", "CSC")
	admin := adminSession()

	_, err := h.docs.Upload(ctx, sess, sess.UserID, "medical-form", pdfFile("medical.pdf"))
	require.NoError(t, err)

	rec, err := h.docs.Review(ctx, admin, sess.UserID, "medical-form", workflow.DecisionReviewing, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReviewing, rec.Status)
	assert.Empty(t, h.mailer.reviews)

	rec, err = h.docs.Review(ctx, admin, sess.UserID, "medical-form", workflow.DecisionRejected, "  Stamp missing ")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, rec.Status)
	assert.Equal(t, "Stamp missing", rec.Remarks)
	assert.Equal(t, "registrar", rec.ReviewedBy)

	require.Len(t, h.mailer.reviews, 1)
	mail := h.mailer.reviews[0]
	assert.Equal(t, "ST001@student.test", mail.to)
	assert.Equal(t, "Medical Form", mail.notice.DocumentName)
	assert.Equal(t, "rejected", mail.notice.Decision)
	assert.Equal(t, "Stamp missing", mail.notice.Remarks)

	_, err = h.docs.Review(ctx, sess, sess.UserID, "medical-form", workflow.DecisionApproved, "")
	assert.ErrorIs(t, err, workflow.ErrForbiddenActor)
}

func TestReviewOfPendingDocumentIsIllegal(t *testing.T) {
	h := newHarness(t)
	sess := h.addStudent(t, "ST001", "Ada Okafor", "CSC")

	_, err := h.docs.Review(context.Background(), adminSession(), sess.UserID, "birth-certificate", workflow.DecisionApproved, "")
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	photo := &workflow.File{Name: "me.png", ContentType: "image/png", Size: int64(len(pngBytes)), Reader: bytes.NewReader(pngBytes)}
	resp, err := h.auth.RegisterStudent(ctx, dto.RegisterStudentRequest{
		Username: "ST2024001", Password: "password1", Name: "Ada Okafor",
		Email: "Ada@Example.com", Department: "CSC", Level: "100",
	}, photo)
	require.NoError(t, err)
	assert.Equal(t, "student", resp.User.Role)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, []string{"ada@example.com"}, h.mailer.welcomes)

	claims, err := h.jwt.ValidateToken(resp.Token.AccessToken)
	require.NoError(t, err)
	sess := claims.Session(resp.Token.AccessToken)

	profile, err := h.auth.Profile(ctx, sess)
	require.NoError(t, err)
	require.NotNil(t, profile.Student)
	assert.Equal(t, "CSC", profile.Student.Department)
	assert.Equal(t, "http://portal.test"+ProfilePhotoPath(sess.UserID), profile.Student.ProfilePhotoURL)

	rc, err := h.auth.OpenProfilePhoto(ctx, sess, sess.UserID)
	require.NoError(t, err)
	rc.Close()

	login, err := h.auth.Login(ctx, dto.LoginRequest{Username: "ST2024001", Password: "password1"})
	require.NoError(t, err)
	assert.NotNil(t, login.User.LastLoginAt)

	_, err = h.auth.Login(ctx, dto.LoginRequest{Username: "ST2024001", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = h.auth.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = h.auth.RegisterStudent(ctx, dto.RegisterStudentRequest{
		Username: "ST2024001", Password: "password1", Name: "Someone Else",
		Email: "else@example.com", Department: "NUR", Level: "200",
	}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)
}

func TestRegisterRejectsBadPhoto(t *testing.T) {
	h := newHarness(t)
	photo := &workflow.File{Name: "me.pdf", ContentType: "image/png", Size: int64(len(pdfBytes)), Reader: bytes.NewReader(pdfBytes)}
	_, err := h.auth.RegisterStudent(context.Background(), dto.RegisterStudentRequest{
		Username: "ST2024001", Password: "password1", Name: "Ada Okafor",
		Email: "ada@example.com", Department: "CSC", Level: "100",
	}, photo)
	assert.ErrorIs(t, err, workflow.ErrInvalidFileType)

	n, err := h.db.repos().Users.CountByRole(context.Background(), "student")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateAdminRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	sess := h.addStudent(t, "ST001", "Ada Okafor", "CSC")
	_, err := h.auth.CreateAdmin(context.Background(), sess, dto.CreateAdminRequest{Username: "boss", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	user, err := h.auth.CreateAdmin(context.Background(), adminSession(), dto.CreateAdminRequest{Username: "boss", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
}

func TestAdminListAndStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := adminSession()

	ada := h.addStudent(t, "ST001", "Ada Okafor", "CSC")
	bola := h.addStudent(t, "ST002", "Bola Adeyemi", "NUR")
	h.addStudent(t, "ST003", "Chidi Eze", "CSC")

	_, err := h.docs.Upload(ctx, ada, ada.UserID, "course-form", pdfFile("c.pdf"))
	require.NoError(t, err)
	_, err = h.docs.Upload(ctx, bola, bola.UserID, "course-form", pdfFile("c.pdf"))
	require.NoError(t, err)
	_, err = h.docs.Review(ctx, admin, bola.UserID, "course-form", workflow.DecisionRejected, "Wrong session")
	require.NoError(t, err)

	page, err := h.admin.ListStudents(ctx, admin, dto.StudentListQuery{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Len(t, page.Items, 2)

	far, err := h.admin.ListStudents(ctx, admin, dto.StudentListQuery{Page: math.MaxInt/20 + 2, Size: 20})
	require.NoError(t, err)
	assert.Empty(t, far.Items)
	assert.Equal(t, 1, far.Pagination.CurrentPage)

	rejected, err := h.admin.ListStudents(ctx, admin, dto.StudentListQuery{Status: "rejected"})
	require.NoError(t, err)
	items := rejected.Items.([]dto.StudentListItem)
	require.Len(t, items, 1)
	assert.Equal(t, "ST002", items[0].Username)
	assert.Equal(t, 1, items[0].Submitted)
	assert.Equal(t, workflow.RequiredDocumentCount, items[0].Total)

	stats, err := h.admin.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, dto.DashboardStats{TotalStudents: 3, UnderReview: 1, Rejected: 1, Incomplete: 1}, *stats)

	_, err = h.admin.Stats(ctx, ada)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestStudentDetailAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.addStudent(t, "ST001", "Ada Okafor", "CSC")
	bola := h.addStudent(t, "ST002", "Bola Adeyemi", "NUR")

	detail, err := h.admin.StudentDetail(ctx, ada, ada.UserID)
	require.NoError(t, err)
	assert.Equal(t, workflow.OverallIncomplete, detail.Progress.OverallStatus)
	assert.Equal(t, ada.UserID, detail.Progress.StudentID)

	_, err = h.admin.StudentDetail(ctx, ada, bola.UserID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestDeleteStudentCascade(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := adminSession()
	ada := h.addStudent(t, "ST001", "Ada Okafor", "CSC")

	rec, err := h.docs.Upload(ctx, ada, ada.UserID, "course-form", pdfFile("c.pdf"))
	require.NoError(t, err)

	require.NoError(t, h.admin.DeleteStudent(ctx, admin, ada.UserID))

	_, err = h.db.repos().Users.GetUserByID(ctx, ada.UserID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	_, err = h.storage.Open(ctx, rec.FileRef)
	assert.ErrorIs(t, err, filestorage.ErrNotFound)

	err = h.admin.DeleteStudent(ctx, admin, ada.UserID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestDeleteStudentFailureKeepsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ada := h.addStudent(t, "ST001", "Ada Okafor", "CSC")

	rec, err := h.docs.Upload(ctx, ada, ada.UserID, "course-form", pdfFile("c.pdf"))
	require.NoError(t, err)

	h.db.deleteUserErr = errors.New("db down")
	err = h.admin.DeleteStudent(ctx, adminSession(), ada.UserID)
	require.EqualError(t, err, "db down")

	left, err := h.db.repos().Documents.ListByStudent(ctx, ada.UserID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, rec.FileRef, left[0].FileRef)

	rc, err := h.storage.Open(ctx, rec.FileRef)
	require.NoError(t, err)
	rc.Close()

	_, err = h.db.repos().Users.GetUserByID(ctx, ada.UserID)
	assert.NoError(t, err)

	h.db.deleteUserErr = nil
	require.NoError(t, h.admin.DeleteStudent(ctx, adminSession(), ada.UserID))
	_, err = h.storage.Open(ctx, rec.FileRef)
	assert.ErrorIs(t, err, filestorage.ErrNotFound)
}
