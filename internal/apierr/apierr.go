// Package apierr: единый формат ошибок HTTP API:
// {"error": {"code": "...", "message": "..."}}.
package apierr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/complaint-service/internal/errs"
)

const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInternalError   = "INTERNAL_ERROR"
)

type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field: поле, не прошедшее валидацию.
	Field string `json:"field,omitempty"`
}

// Abort пишет ошибку и прерывает цепочку обработчиков.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Body{Error: Detail{Code: code, Message: message}})
}

// Classify сопоставляет доменную ошибку HTTP-статусу и телу ответа.
// Неизвестные ошибки становятся 500 без деталей.
func Classify(err error) (int, Body) {
	var verr *errs.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, Body{Error: Detail{Code: CodeValidationError, Message: verr.Message, Field: verr.Field}}
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, Body{Error: Detail{Code: CodeValidationError, Message: err.Error()}}
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized, Body{Error: Detail{Code: CodeUnauthorized, Message: err.Error()}}
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, Body{Error: Detail{Code: CodeForbidden, Message: err.Error()}}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, Body{Error: Detail{Code: CodeNotFound, Message: err.Error()}}
	default:
		return http.StatusInternalServerError, Body{Error: Detail{Code: CodeInternalError, Message: "internal server error"}}
	}
}

// Respond: Classify + запись ответа.
func Respond(c *gin.Context, err error) {
	status, body := Classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
