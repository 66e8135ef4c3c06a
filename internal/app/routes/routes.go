package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaustech/docportal/internal/app/controllers"
	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/app/services"
	"github.com/oaustech/docportal/internal/middleware"
	"github.com/oaustech/docportal/internal/workflow"
)

// multipartOverhead is allowed on top of the file limit for form fields and part headers
const multipartOverhead = 1 << 20

// Handlers groups everything SetupRouter mounts
type Handlers struct {
	Auth           *controllers.AuthController
	Documents      *controllers.DocumentController
	Admin          *controllers.AdminController
	AuthMiddleware *middleware.AuthMiddleware
	// MaxUploadBytes caps document upload bodies
	MaxUploadBytes int64
	// Ping checks the database for /health; nil reports the database as unchecked
	Ping func(ctx context.Context) error
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, h Handlers) {
	router.GET("/health", health(h.Ping))

	v1 := router.Group(services.APIPrefix)
	v1.GET("/health", health(h.Ping))

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", middleware.MaxBodySize(services.MaxProfilePhotoSize+multipartOverhead), h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}
	v1.GET("/catalog", h.Documents.Catalog)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(h.AuthMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", h.Auth.Me)

		// A student may only reach their own records; admins reach everyone's
		students := authenticated.Group("/students/:id")
		students.Use(h.AuthMiddleware.StudentAccess("id"))
		{
			students.GET("", h.Admin.StudentDetail)
			students.GET("/photo", h.Auth.ProfilePhoto)
			students.GET("/documents", h.Documents.List)
			students.POST("/documents", middleware.MaxBodySize(h.MaxUploadBytes+multipartOverhead), h.Documents.Upload)
			students.GET("/documents/summary", h.Documents.Summary)
			students.GET("/documents/:type", h.Documents.Get)
			students.GET("/documents/:type/file", h.Documents.Download)
		}

		admin := authenticated.Group("/admin")
		admin.Use(h.AuthMiddleware.RoleRequired(workflow.RoleAdmin))
		{
			admin.GET("/students", h.Admin.ListStudents)
			admin.GET("/students/:id", h.Admin.StudentDetail)
			admin.DELETE("/students/:id", h.Admin.DeleteStudent)
			admin.DELETE("/students/:id/documents", h.Admin.DeleteStudentDocuments)
			admin.PUT("/students/:id/documents/:type/review", h.Documents.Review)
			admin.GET("/stats", h.Admin.Stats)
			admin.POST("/admins", h.Auth.CreateAdmin)
		}
	}
}

// health reports liveness and database reachability
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.HealthResponse}
// @Failure 503 {object} dto.APIResponse{data=dto.HealthResponse}
// @Router /health [get]
func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := dto.HealthResponse{Status: "ok", Database: "unchecked"}
		status := http.StatusOK
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				resp.Status, resp.Database = "degraded", "unreachable"
				status = http.StatusServiceUnavailable
			} else {
				resp.Database = "ok"
			}
		}
		c.JSON(status, dto.NewSuccessResponse(resp, ""))
	}
}
