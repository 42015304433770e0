package domain

import "errors"

// Domain errors
var (
	ErrNotFound         = errors.New("not found")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrRenderSuperseded = errors.New("render superseded by a newer request")
	ErrSessionClosed    = errors.New("reading session closed")
	ErrInvalidFile      = errors.New("invalid file")
	ErrDocumentClosed   = errors.New("document closed")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
