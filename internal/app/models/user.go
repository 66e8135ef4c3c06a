package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`                                   // Unique identifier for the user
	Username    string     `json:"username" db:"username" example:"ST2024001"`               // Matriculation number for students, login name for admins
	Email       string     `json:"email" db:"email" example:"ada@student.oaustech.edu.ng"`   // Contact address for notifications
	Password    string     `json:"-" db:"password"`                                          // Hashed password (excluded from JSON)
	RoleType    RoleType   `json:"role" db:"role" example:"student"`                         // student or admin
	CreatedAt   time.Time  `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"` // Timestamp when the user was created
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"` // Timestamp when the user was last updated
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`                 // Timestamp of the last login (nullable)
}
