package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaustech/docportal/internal/app/models/dto"
)

// BindJSON binds and validates a JSON body, writing a 400 on failure
func BindJSON(c *gin.Context, obj interface{}) bool {
	return bindWith(c, c.ShouldBindJSON(obj))
}

// BindForm binds and validates form or multipart fields, writing a 400 on failure
func BindForm(c *gin.Context, obj interface{}) bool {
	return bindWith(c, c.ShouldBind(obj))
}

// BindQuery binds and validates query parameters, writing a 400 on failure
func BindQuery(c *gin.Context, obj interface{}) bool {
	return bindWith(c, c.ShouldBindQuery(obj))
}

func bindWith(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeFileTooLarge, "Request body too large").WithField("file")
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(errorDetail))
		return false
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
	return false
}
