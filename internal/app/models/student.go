package models

import "time"

// Student defines the student profile based on the 'students' table.
// UserID is also the student identifier used by document records.
type Student struct {
	UserID          int64     `json:"userId" db:"user_id" example:"5"`              // ID of the associated user account
	FullName        string    `json:"fullName" db:"full_name" example:"Ada Okafor"` // Student's full name
	Department      string    `json:"department" db:"department" example:"CSC"`     // Department code
	Level           string    `json:"level" db:"level" example:"100"`               // Academic level
	ProfilePhotoRef *string   `json:"-" db:"profile_photo_ref"`                     // Storage reference of the profile picture
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`                    // Registration time

	// Relations (populated when needed)
	User *User `json:"user,omitempty"`
}

// StudentFilter narrows the admin student listing
type StudentFilter struct {
	Search     string // matched against name, username, email and department
	Department string
	Offset     uint64
	Limit      int
}
