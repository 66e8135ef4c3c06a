// Package controllers handles HTTP request handling
package controllers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/middleware"
	"github.com/oaustech/docportal/internal/pkg/helpers"
	"github.com/oaustech/docportal/internal/workflow"
)

// AuthService is what AuthController needs from the auth service
type AuthService interface {
	RegisterStudent(ctx context.Context, req dto.RegisterStudentRequest, photo *workflow.File) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Profile(ctx context.Context, sess workflow.Session) (*dto.ProfileResponse, error)
	OpenProfilePhoto(ctx context.Context, sess workflow.Session, studentID int64) (io.ReadCloser, error)
	CreateAdmin(ctx context.Context, sess workflow.Session, req dto.CreateAdminRequest) (*dto.UserResponse, error)
}

// DocumentService is what DocumentController needs from the document service
type DocumentService interface {
	Catalog() dto.CatalogResponse
	Records(ctx context.Context, sess workflow.Session, studentID int64) ([]workflow.DocumentRecord, error)
	Record(ctx context.Context, sess workflow.Session, studentID int64, documentType string) (workflow.DocumentRecord, error)
	Summary(ctx context.Context, sess workflow.Session, studentID int64) (workflow.ProgressSummary, error)
	Upload(ctx context.Context, sess workflow.Session, studentID int64, documentType string, file workflow.File) (workflow.DocumentRecord, error)
	Review(ctx context.Context, sess workflow.Session, studentID int64, documentType string, decision workflow.Decision, remarks string) (workflow.DocumentRecord, error)
	OpenFile(ctx context.Context, sess workflow.Session, studentID int64, documentType string) (io.ReadCloser, workflow.DocumentRecord, error)
}

// AdminService is what AdminController needs from the admin service
type AdminService interface {
	ListStudents(ctx context.Context, sess workflow.Session, query dto.StudentListQuery) (*dto.PaginatedResponse, error)
	Stats(ctx context.Context, sess workflow.Session) (*dto.DashboardStats, error)
	StudentDetail(ctx context.Context, sess workflow.Session, studentID int64) (*dto.StudentDetailResponse, error)
	DeleteStudent(ctx context.Context, sess workflow.Session, studentID int64) error
	DeleteStudentDocuments(ctx context.Context, sess workflow.Session, studentID int64) error
}

// session returns the caller's session or writes a 401
func session(ctx *gin.Context) (workflow.Session, bool) {
	sess, ok := middleware.GetSession(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	}
	return sess, ok
}

// studentID reads the :id path parameter or writes a 400
func studentID(ctx *gin.Context) (int64, bool) {
	id, ok := helpers.ParseIDParam(ctx, "id")
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid student ID").WithField("id")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
	}
	return id, ok
}

// formFile opens a multipart file part. A missing part yields ok == false with no error written
// when optional is set.
func formFile(ctx *gin.Context, field string, optional bool) (*workflow.File, func(), bool) {
	header, err := ctx.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeFileTooLarge, "Request body too large").WithField(field)
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(errorDetail))
		case errors.Is(err, http.ErrMissingFile) && optional:
			return nil, func() {}, true
		default:
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, fmt.Sprintf("%s is required", field)).WithField(field)
			ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		}
		return nil, func() {}, false
	}
	return openPart(ctx, header)
}

func openPart(ctx *gin.Context, header *multipart.FileHeader) (*workflow.File, func(), bool) {
	f, err := header.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("open upload: %w", err))
		return nil, func() {}, false
	}
	return &workflow.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      f,
	}, func() { _ = f.Close() }, true
}

const sniffLen = 3072

// stream copies a stored file to the response. An empty content type is sniffed
// from the first bytes.
func stream(ctx *gin.Context, rc io.ReadCloser, contentType, filename string, size int64) {
	defer rc.Close()
	var body io.Reader = rc
	if contentType == "" {
		buffered := bufio.NewReaderSize(rc, sniffLen)
		head, _ := buffered.Peek(sniffLen)
		contentType = mimetype.Detect(head).String()
		body = buffered
	}
	headers := map[string]string{}
	if filename != "" {
		headers["Content-Disposition"] = fmt.Sprintf("inline; filename=%q", filename)
	}
	ctx.DataFromReader(http.StatusOK, size, contentType, body, headers)
}
