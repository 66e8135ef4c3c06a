// Package apperrors holds the service-layer error kinds the HTTP layer maps onto status codes.
package apperrors

import (
	"errors"
	"fmt"
)

// Kinds matched with errors.Is by the error middleware.
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrValidationFailed      = errors.New("validation failed")
	ErrBadRequest            = errors.New("bad request")
	ErrStorageUnavailable    = errors.New("file storage unavailable")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
)

// Account and record lookups
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUsernameAlreadyExists  = errors.New("username already exists")
	ErrEmailAlreadyExists     = errors.New("email already exists")
	ErrStudentNotFound        = errors.New("student not found")
	ErrInvalidStudentID       = errors.New("invalid student ID")
	ErrDocumentRecordNotFound = errors.New("document record not found")
)

// CustomError attaches a client-facing message to one of the kinds above.
type CustomError struct {
	Err     error
	Message string
}

func (e *CustomError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error { return e.Err }

func withMessage(kind error, format string, args ...any) error {
	return &CustomError{Err: kind, Message: fmt.Sprintf(format, args...)}
}

// NewResourceNotFoundError reports a missing resource with a message shown to the client.
func NewResourceNotFoundError(format string, args ...any) error {
	return withMessage(ErrResourceNotFound, format, args...)
}

// NewConflictError reports a write that clashes with existing state.
func NewConflictError(format string, args ...any) error {
	return withMessage(ErrConflict, format, args...)
}

// NewForbiddenError reports an authenticated caller acting outside their role.
func NewForbiddenError(format string, args ...any) error {
	return withMessage(ErrPermissionDenied, format, args...)
}

func NewBadRequestError(format string, args ...any) error {
	return withMessage(ErrBadRequest, format, args...)
}
