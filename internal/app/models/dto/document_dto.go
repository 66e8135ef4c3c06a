package dto

import "github.com/oaustech/docportal/internal/workflow"

// ReviewRequest is an admin decision on one document
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=reviewing approved rejected" example:"rejected"`
	Remarks  string `json:"remarks" binding:"max=1000" example:"The scan is unreadable, please upload a clearer copy"`
}

// UploadDocumentForm is the multipart form of a document upload; the blob is the "file" part
type UploadDocumentForm struct {
	DocumentType string `form:"documentType" binding:"required,max=64" example:"jamb-admission"`
}

// DocumentListResponse is every stored record of a student
type DocumentListResponse struct {
	StudentID int64                     `json:"studentId"`
	Records   []workflow.DocumentRecord `json:"records"`
}

// CatalogResponse lists the required documents grouped for display
type CatalogResponse struct {
	Total      int                         `json:"total" example:"15"`
	Documents  []workflow.RequiredDocument `json:"documents"`
	Categories []workflow.Category         `json:"categories"`
	MaxBytes   int64                       `json:"maxBytes" example:"10485760"`
	MimeTypes  []string                    `json:"mimeTypes"`
}
