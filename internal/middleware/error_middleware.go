package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/pkg/apperrors"
	"github.com/oaustech/docportal/internal/pkg/logger"
	"github.com/oaustech/docportal/internal/workflow"
)

// HandleAPIError writes the error response matching err
func HandleAPIError(c *gin.Context, err error) {
	status, detail := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

// ErrorStatus maps an error onto its HTTP status and error detail
func ErrorStatus(err error) (int, *dto.ErrorDetail) {
	var validationErr *workflow.ValidationError
	if errors.As(err, &validationErr) {
		code := dto.ErrorCodeValidationFailed
		field := "file"
		switch validationErr.Kind {
		case workflow.InvalidFileType:
			code = dto.ErrorCodeInvalidFileType
		case workflow.FileTooLarge:
			code = dto.ErrorCodeFileTooLarge
		case workflow.MissingRemarks:
			code = dto.ErrorCodeMissingRemarks
			field = "remarks"
		}
		return http.StatusBadRequest, dto.NewErrorDetail(code, validationErr.Error()).WithField(field)
	}

	var transitionErr *workflow.TransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeIllegalTransition, transitionErr.Error()).
			WithDetails(map[string]string{
				"from":  transitionErr.From.String(),
				"event": transitionErr.Event.String(),
			})
	}

	var transportErr *workflow.TransportError
	if errors.As(err, &transportErr) && transportErr.Kind == workflow.TransportServerUnavailable {
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Service temporarily unavailable")
	}

	message := func(fallback string) string {
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			return custom.Message
		}
		return fallback
	}

	switch {
	case errors.Is(err, workflow.ErrMissingFile):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeMissingFile, "Document has no uploaded file to approve")
	case errors.Is(err, workflow.ErrUnknownDocument):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeUnknownDocument, "Unknown document type")
	case errors.Is(err, workflow.ErrInvalidDecision):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid review decision").WithField("decision")
	case errors.Is(err, workflow.ErrSessionExpired), errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Session expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid username or password")
	case errors.Is(err, workflow.ErrForbiddenActor), errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, message("Permission denied"))
	case errors.Is(err, apperrors.ErrUsernameAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Username already exists").WithField("username")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Email already exists").WithField("email")
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, message("Resource already exists"))
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, message("Conflict"))
	case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrStudentNotFound),
		errors.Is(err, apperrors.ErrDocumentRecordNotFound), errors.Is(err, apperrors.ErrResourceNotFound),
		errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message("Resource not found"))
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrInvalidStudentID):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message("Validation failed"))
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeBadRequest, message("Bad request"))
	case errors.Is(err, apperrors.ErrStorageUnavailable), errors.Is(err, workflow.ErrServerUnavailable):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "File storage unavailable")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
