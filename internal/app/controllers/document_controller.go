package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/middleware"
	"github.com/oaustech/docportal/internal/workflow"
)

// DocumentController serves the registration document workflow
type DocumentController struct {
	documentService DocumentService
	logger          zerolog.Logger
}

// NewDocumentController creates a new DocumentController
func NewDocumentController(documentService DocumentService, logger zerolog.Logger) *DocumentController {
	return &DocumentController{
		documentService: documentService,
		logger:          logger,
	}
}

// Catalog lists the required documents
// @Summary Required documents
// @Description Lists the documents every student must submit, their categories and the upload limits
// @Tags documents
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CatalogResponse}
// @Router /catalog [get]
func (c *DocumentController) Catalog(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.documentService.Catalog(), ""))
}

// List returns a student's stored records
// @Summary List document records
// @Description Returns every stored record of a student. Documents never uploaded have no record and count as pending.
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.DocumentListResponse}
// @Failure 403 {object} dto.ErrorResponse "Not your documents"
// @Router /students/{id}/documents [get]
func (c *DocumentController) List(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	records, err := c.documentService.Records(ctx.Request.Context(), sess, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if records == nil {
		records = []workflow.DocumentRecord{}
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DocumentListResponse{StudentID: id, Records: records}, ""))
}

// Summary returns a student's progress
// @Summary Submission progress
// @Description Aggregates a student's documents into per-category and overall progress
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=workflow.ProgressSummary}
// @Failure 403 {object} dto.ErrorResponse "Not your documents"
// @Router /students/{id}/documents/summary [get]
func (c *DocumentController) Summary(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	summary, err := c.documentService.Summary(ctx.Request.Context(), sess, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(summary, ""))
}

// Get returns one document's record
// @Summary Get a document record
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param type path string true "Document type"
// @Success 200 {object} dto.APIResponse{data=workflow.DocumentRecord}
// @Failure 404 {object} dto.ErrorResponse "Unknown document type"
// @Router /students/{id}/documents/{type} [get]
func (c *DocumentController) Get(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	rec, err := c.documentService.Record(ctx.Request.Context(), sess, id, ctx.Param("type"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rec, ""))
}

// Upload attaches a file to one of a student's documents
// @Summary Upload a document
// @Description Uploads or replaces a document file. Only PDF, JPEG and PNG files up to the size limit are accepted; the type is checked against the file's content. Approved documents cannot be replaced.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param documentType formData string true "Document type"
// @Param file formData file true "Document file"
// @Success 201 {object} dto.APIResponse{data=workflow.DocumentRecord}
// @Failure 400 {object} dto.ErrorResponse "Invalid file type or file too large"
// @Failure 403 {object} dto.ErrorResponse "Only the student may upload"
// @Failure 404 {object} dto.ErrorResponse "Unknown document type"
// @Failure 409 {object} dto.ErrorResponse "Document already approved"
// @Router /students/{id}/documents [post]
func (c *DocumentController) Upload(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}
	var form dto.UploadDocumentForm
	if !middleware.BindForm(ctx, &form) {
		return
	}
	file, closeFn, ok := formFile(ctx, "file", false)
	if !ok {
		return
	}
	defer closeFn()

	rec, err := c.documentService.Upload(ctx.Request.Context(), sess, id, form.DocumentType, *file)
	if err != nil {
		c.logger.Warn().Err(err).
			Int64("studentID", id).
			Str("documentType", form.DocumentType).
			Msg("Upload rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("studentID", id).
		Str("documentType", rec.DocumentType).
		Int64("size", rec.FileSize).
		Msg("Document uploaded")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(rec, "Document uploaded"))
}

// Review records an admin decision on a document
// @Summary Review a document
// @Description Moves a document to reviewing, approved or rejected. Rejection requires remarks.
// @Tags documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param type path string true "Document type"
// @Param request body dto.ReviewRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=workflow.DocumentRecord}
// @Failure 400 {object} dto.ErrorResponse "Remarks missing"
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 409 {object} dto.ErrorResponse "Transition not allowed from the current status"
// @Router /admin/students/{id}/documents/{type}/review [put]
func (c *DocumentController) Review(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	decision, err := workflow.ParseDecision(req.Decision)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	documentType := ctx.Param("type")
	rec, err := c.documentService.Review(ctx.Request.Context(), sess, id, documentType, decision, req.Remarks)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("studentID", id).
		Str("documentType", documentType).
		Str("status", rec.Status.String()).
		Str("reviewer", sess.Username).
		Msg("Document reviewed")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rec, "Review recorded"))
}

// Download streams a document's file
// @Summary Download a document file
// @Description Streams the uploaded file. Browsers may pass the token as the "token" query parameter.
// @Tags documents
// @Produce application/pdf,image/jpeg,image/png
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param type path string true "Document type"
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse "Unknown document type"
// @Failure 409 {object} dto.ErrorResponse "Nothing uploaded yet"
// @Router /students/{id}/documents/{type}/file [get]
func (c *DocumentController) Download(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	rc, rec, err := c.documentService.OpenFile(ctx.Request.Context(), sess, id, ctx.Param("type"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	size := rec.FileSize
	if size <= 0 {
		size = -1
	}
	stream(ctx, rc, rec.ContentType, rec.FileName, size)
}
