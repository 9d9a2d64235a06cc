// Package errs: доменные ошибки сервиса. Четыре класса (NotFound, Forbidden, Validation,
// Unauthenticated) различимы через errors.Is и отображаются в разные HTTP-статусы.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
)

var (
	ErrCategoryNotFound   = fmt.Errorf("category %w", ErrNotFound)
	ErrComplaintNotFound  = fmt.Errorf("complaint %w", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("comment %w", ErrNotFound)
	ErrAttachmentNotFound = fmt.Errorf("attachment %w", ErrNotFound)
	ErrProfileNotFound    = fmt.Errorf("admin profile %w", ErrNotFound)
	ErrBlobNotFound       = fmt.Errorf("file %w", ErrNotFound)
)

// ValidationError: ошибка валидации конкретного поля.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid создаёт ValidationError для поля.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError несёт причину отказа авторизатора.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return ErrForbidden.Error()
	}
	return "forbidden: " + e.Reason
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// Forbidden создаёт ForbiddenError с причиной.
func Forbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}
