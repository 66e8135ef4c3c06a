package dto

import (
	"time"

	"github.com/oaustech/docportal/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"ST2024001"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType" example:"Bearer"`
	ExpiresIn   int       `json:"expiresIn" example:"3600"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// RegisterStudentRequest is the multipart form of student self-registration.
// The optional profile picture arrives as the "profilePicture" file part.
type RegisterStudentRequest struct {
	Username   string `form:"username" binding:"required,username" example:"ST2024001"`
	Password   string `form:"password" binding:"required,min=8,max=72"`
	Name       string `form:"name" binding:"required,min=2,max=100" example:"Ada Okafor"`
	Email      string `form:"email" binding:"required,email"`
	Department string `form:"department" binding:"required,department" example:"CSC"`
	Level      string `form:"level" binding:"required,level" example:"100"`
}

// CreateAdminRequest is used by an admin to create another admin
type CreateAdminRequest struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role" example:"student"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// NewUserResponse converts a user model
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.RoleType),
		LastLoginAt: u.LastLoginAt,
	}
}

// ProfileResponse is the signed-in user with their student profile, if any
type ProfileResponse struct {
	User    UserResponse     `json:"user"`
	Student *StudentResponse `json:"student,omitempty"`
}
