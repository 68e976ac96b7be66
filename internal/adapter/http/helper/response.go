package helper

import (
	"errors"
	"net/http"

	. "todotracker/internal/adapter/http/validation"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/response"

	"github.com/gin-gonic/gin"
)

func SendSuccess(c *gin.Context, statusCode int, data any, message ...string) {
	response := response.SuccessResponse{
		Data: data,
	}

	if len(message) > 0 && message[0] != "" {
		response.Message = message[0]
	}

	c.JSON(statusCode, response)
}

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	errorResponse := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	c.JSON(statusCode, errorResponse)
}

func SendValidationError(c *gin.Context, err error) {
	validationErrors := FormatValidationErrors(err)
	SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErrors)
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", single("server", message), details...)
}

func SendUnauthorizedError(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, "UNAUTHORIZED", single("auth", message))
}

func SendForbiddenError(c *gin.Context, message string) {
	SendError(c, http.StatusForbidden, "FORBIDDEN", single("auth", message))
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	SendError(c, http.StatusBadRequest, "BAD_REQUEST", single(field, message))
}

func SendNotFoundError(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, "NOT_FOUND", single("resource", message))
}

func SendConflictError(c *gin.Context, field string, message string) {
	SendError(c, http.StatusConflict, "CONFLICT", single(field, message))
}

// SendDomainError maps service errors onto the HTTP envelope. Unknown errors
// become a 500 with a generic message.
func SendDomainError(c *gin.Context, err error, field string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		SendBadRequestError(c, field, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		SendNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		SendConflictError(c, field, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		SendUnauthorizedError(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		SendForbiddenError(c, err.Error())
	default:
		_ = c.Error(err)
		SendInternalError(c, "Internal server error")
	}
}

func single(field, message string) []response.ValidationError {
	return []response.ValidationError{
		{
			Field:   field,
			Message: message,
		},
	}
}
