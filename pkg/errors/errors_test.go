package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = stderrors.New("sentinel")

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		typ    ErrorType
		status int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"decode", NewDecodeError("bad pdf", errSentinel), ErrorTypeDecode, http.StatusUnprocessableEntity},
		{"extraction", NewExtractionError(3, errSentinel), ErrorTypeExtraction, http.StatusUnprocessableEntity},
		{"thumbnail", NewThumbnailError("raster", errSentinel), ErrorTypeThumbnail, http.StatusInternalServerError},
		{"store", NewStoreError("write", errSentinel), ErrorTypeStore, http.StatusInternalServerError},
		{"page index", NewPageIndexError(9, 3, errSentinel), ErrorTypePageIndex, http.StatusBadRequest},
		{"not found", NewNotFoundError("doc", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("superseded", nil), ErrorTypeConflict, http.StatusConflict},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.True(t, IsType(tt.err, tt.typ))
		})
	}
}

func TestAppError_UnwrapThroughWrapping(t *testing.T) {
	err := fmt.Errorf("ingest: %w", NewDecodeError("bad pdf", errSentinel))

	assert.True(t, stderrors.Is(err, errSentinel))
	assert.True(t, IsType(err, ErrorTypeDecode))
	assert.False(t, IsType(err, ErrorTypeStore))
	assert.Equal(t, http.StatusUnprocessableEntity, GetStatusCode(err))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "validation: too big (limit 10)", NewValidationError("too big", nil, "limit 10").Error())
	assert.Equal(t, "store: write: sentinel", NewStoreError("write", errSentinel).Error())
	assert.Equal(t, "not_found: doc", NewNotFoundError("doc", nil).Error())
}

func TestGetStatusCode_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errSentinel))
	assert.Equal(t, http.StatusRequestEntityTooLarge,
		GetStatusCode(NewValidationError("x", nil).WithStatus(http.StatusRequestEntityTooLarge)))
}
