package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeServiceError maps a service error onto a status code and body. Server-side failures
// are logged with fields.
func writeServiceError(w http.ResponseWriter, logger domain.Logger, msg string, err error, fields ...interface{}) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, fields...)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, status, errorResponse{Error: appErr.Message, Type: string(appErr.Type), Details: appErr.Details})
		return
	}
	writeError(w, status, http.StatusText(status))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return apperrors.GetStatusCode(err)
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
