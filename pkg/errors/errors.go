package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDecode     ErrorType = "decode"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeThumbnail  ErrorType = "thumbnail"
	ErrorTypeStore      ErrorType = "store"
	ErrorTypePageIndex  ErrorType = "page_index"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStatus overrides the HTTP status code.
func (e *AppError) WithStatus(code int) *AppError {
	e.StatusCode = code
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewDecodeError reports a payload the rendering engine could not decode.
func NewDecodeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDecode,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewExtractionError reports a page the engine failed on during extraction.
func NewExtractionError(page int, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExtraction,
		Message:    fmt.Sprintf("failed to extract page %d", page),
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewThumbnailError is logged by the extraction service and never returned to callers.
func NewThumbnailError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeThumbnail,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewStoreError creates a new persistence error
func NewStoreError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStore,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewPageIndexError creates an error for a page outside the document.
func NewPageIndexError(page, pageCount int, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePageIndex,
		Message:    fmt.Sprintf("page %d outside document of %d pages", page, pageCount),
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if any error in the chain is an AppError of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
