package handler

import (
	"net/http"

	"pdf-reader/internal/domain"
	"pdf-reader/internal/service"
)

// PreferenceHandler serves the reader settings
type PreferenceHandler struct {
	settings *service.SettingsService
	logger   domain.Logger
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(settings *service.SettingsService, logger domain.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		settings: settings,
		logger:   logger,
	}
}

// GetSettings handles GET /settings
func (h *PreferenceHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.GetSettings())
}

// UpdateSettings handles PUT /settings. The body replaces the settings as a whole.
func (h *PreferenceHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.ReaderSettings
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.settings.UpdateSettings(req)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ResetSettings handles POST /settings/reset
func (h *PreferenceHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.ResetSettings())
}
