package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/middleware"
)

// AdminController serves the registrar dashboard
type AdminController struct {
	adminService AdminService
	logger       zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(adminService AdminService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// ListStudents returns students with their progress
// @Summary List students
// @Description Lists students with submission counts and overall status, filtered by name or matric number, department and overall status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or username fragment"
// @Param department query string false "Department code"
// @Param status query string false "Overall status" Enums(incomplete, under-review, rejected, approved)
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.StudentListItem}}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /admin/students [get]
func (c *AdminController) ListStudents(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	var query dto.StudentListQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	page, err := c.adminService.ListStudents(ctx.Request.Context(), sess, query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(page, ""))
}

// Stats returns dashboard counters
// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardStats}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}

	stats, err := c.adminService.Stats(ctx.Request.Context(), sess)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}

// StudentDetail returns one student with their documents
// @Summary Student detail
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentDetailResponse}
// @Failure 403 {object} dto.ErrorResponse "Not your profile"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /admin/students/{id} [get]
func (c *AdminController) StudentDetail(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	detail, err := c.adminService.StudentDetail(ctx.Request.Context(), sess, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(detail, ""))
}

// DeleteStudent removes a student, their records and their files
// @Summary Delete a student
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /admin/students/{id} [delete]
func (c *AdminController) DeleteStudent(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	if err := c.adminService.DeleteStudent(ctx.Request.Context(), sess, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("studentID", id).Str("deletedBy", sess.Username).Msg("Student deleted")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Student deleted"))
}

// DeleteStudentDocuments removes every record and file of a student, keeping the account
// @Summary Delete a student's documents
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /admin/students/{id}/documents [delete]
func (c *AdminController) DeleteStudentDocuments(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	if err := c.adminService.DeleteStudentDocuments(ctx.Request.Context(), sess, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Documents deleted"))
}
