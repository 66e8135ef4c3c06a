package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles student self-registration
// @Summary Register a student
// @Description Creates a student account from a multipart form. A JPEG or PNG profile picture of up to 5 MiB may be attached as "profilePicture".
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param username formData string true "Matriculation number"
// @Param password formData string true "Password (8 to 72 characters)"
// @Param name formData string true "Full name"
// @Param email formData string true "Email address"
// @Param department formData string true "Department code"
// @Param level formData string true "Level (100 to 900)"
// @Param profilePicture formData file false "Profile picture"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Student registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid form"
// @Failure 409 {object} dto.ErrorResponse "Username or email already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterStudentRequest
	if !middleware.BindForm(ctx, &req) {
		c.logger.Warn().Msg("Invalid registration form")
		return
	}

	photo, closeFn, ok := formFile(ctx, "profilePicture", true)
	if !ok {
		return
	}
	defer closeFn()

	resp, err := c.authService.RegisterStudent(ctx.Request.Context(), req, photo)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", resp.User.ID).Msg("Student registered")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp, "Registration successful"))
}

// Login handles user login
// @Summary Log in
// @Description Authenticates a student or admin and returns a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Login successful"))
}

// Me returns the signed-in user
// @Summary Current user
// @Description Returns the signed-in user and, for students, their profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}

	resp, err := c.authService.Profile(ctx.Request.Context(), sess)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// CreateAdmin lets an admin add another admin account
// @Summary Create an admin
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAdminRequest true "New admin"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 409 {object} dto.ErrorResponse "Username already exists"
// @Router /admin/admins [post]
func (c *AuthController) CreateAdmin(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	var req dto.CreateAdminRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.authService.CreateAdmin(ctx.Request.Context(), sess, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", user.ID).Str("createdBy", sess.Username).Msg("Admin created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(user, "Admin created"))
}

// ProfilePhoto streams a student's profile picture
// @Summary Student profile picture
// @Tags students
// @Produce image/jpeg,image/png
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {file} binary
// @Failure 403 {object} dto.ErrorResponse "Not your profile"
// @Failure 404 {object} dto.ErrorResponse "No profile picture"
// @Router /students/{id}/photo [get]
func (c *AuthController) ProfilePhoto(ctx *gin.Context) {
	sess, ok := session(ctx)
	if !ok {
		return
	}
	id, ok := studentID(ctx)
	if !ok {
		return
	}

	rc, err := c.authService.OpenProfilePhoto(ctx.Request.Context(), sess, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	stream(ctx, rc, "", "", -1)
}
