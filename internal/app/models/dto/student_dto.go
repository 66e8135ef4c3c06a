package dto

import (
	"time"

	"github.com/oaustech/docportal/internal/app/models"
	"github.com/oaustech/docportal/internal/workflow"
)

// StudentResponse is a student profile
type StudentResponse struct {
	ID              int64     `json:"id" example:"5"`
	Username        string    `json:"username" example:"ST2024001"`
	FullName        string    `json:"fullName" example:"Ada Okafor"`
	Email           string    `json:"email"`
	Department      string    `json:"department" example:"CSC"`
	Level           string    `json:"level" example:"100"`
	ProfilePhotoURL string    `json:"profilePhotoUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewStudentResponse converts a student model; photoURL is resolved by the caller
func NewStudentResponse(s *models.Student, photoURL string) StudentResponse {
	resp := StudentResponse{
		ID:              s.UserID,
		FullName:        s.FullName,
		Department:      s.Department,
		Level:           s.Level,
		ProfilePhotoURL: photoURL,
		CreatedAt:       s.CreatedAt,
	}
	if s.User != nil {
		resp.Username = s.User.Username
		resp.Email = s.User.Email
	}
	return resp
}

// StudentListItem is one row of the admin dashboard
type StudentListItem struct {
	StudentResponse
	Submitted     int                    `json:"submitted" example:"11"`
	Approved      int                    `json:"approved" example:"10"`
	Total         int                    `json:"total" example:"15"`
	OverallStatus workflow.OverallStatus `json:"overallStatus" example:"rejected"`
}

// StudentDetailResponse is a student with their whole document set
type StudentDetailResponse struct {
	Student  StudentResponse          `json:"student"`
	Progress workflow.ProgressSummary `json:"progress"`
}

// StudentListQuery holds admin listing filters
type StudentListQuery struct {
	Search     string `form:"search" binding:"omitempty,max=100"`
	Department string `form:"department" binding:"omitempty,max=10"`
	Status     string `form:"status" binding:"omitempty,oneof=incomplete under-review rejected approved"`
	Page       int    `form:"page"`
	Size       int    `form:"size"`
}

// DashboardStats counts students per overall status
type DashboardStats struct {
	TotalStudents int `json:"totalStudents" example:"120"`
	Approved      int `json:"approved" example:"30"`
	UnderReview   int `json:"underReview" example:"50"`
	Rejected      int `json:"rejected" example:"10"`
	Incomplete    int `json:"incomplete" example:"30"`
}

// Add counts one student's overall status
func (d *DashboardStats) Add(s workflow.OverallStatus) {
	d.TotalStudents++
	switch s {
	case workflow.OverallApproved:
		d.Approved++
	case workflow.OverallUnderReview:
		d.UnderReview++
	case workflow.OverallRejected:
		d.Rejected++
	default:
		d.Incomplete++
	}
}
