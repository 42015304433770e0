package handler

import (
	"net/http"

	"pdf-reader/internal/domain"
	"pdf-reader/internal/service"

	"github.com/gorilla/mux"
)

// HighlightHandler handles highlight and annotation HTTP requests.
type HighlightHandler struct {
	highlightService *service.HighlightService
	logger           domain.Logger
}

func NewHighlightHandler(highlightService *service.HighlightService, logger domain.Logger) *HighlightHandler {
	return &HighlightHandler{
		highlightService: highlightService,
		logger:           logger,
	}
}

type createHighlightRequest struct {
	PageNumber   int                      `json:"page_number"`
	Text         string                   `json:"text"`
	SelectedText string                   `json:"selected_text"`
	Position     domain.Rect              `json:"position"`
	Color        string                   `json:"color"`
	Category     domain.HighlightCategory `json:"category"`
}

type createAnnotationRequest struct {
	PageNumber  int           `json:"page_number"`
	Content     string        `json:"content"`
	Position    *domain.Point `json:"position"`
	HighlightID *string       `json:"highlight_id"`
	Tags        []string      `json:"tags"`
}

// CreateHighlight handles POST /documents/{id}/highlights
func (h *HighlightHandler) CreateHighlight(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	var req createHighlightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.highlightService.CreateHighlight(r.Context(), &domain.Highlight{
		DocumentID:   documentID,
		PageNumber:   req.PageNumber,
		Text:         req.Text,
		SelectedText: req.SelectedText,
		Position:     req.Position,
		Color:        req.Color,
		Category:     req.Category,
	})
	if err != nil {
		writeServiceError(w, h.logger, "Failed to create highlight", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListHighlights handles GET /documents/{id}/highlights
func (h *HighlightHandler) ListHighlights(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	list, err := h.highlightService.ListHighlights(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list highlights", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateHighlight handles PATCH /highlights/{id}
func (h *HighlightHandler) UpdateHighlight(w http.ResponseWriter, r *http.Request) {
	highlightID := mux.Vars(r)["id"]

	var update domain.HighlightUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.highlightService.UpdateHighlight(r.Context(), highlightID, update)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to update highlight", err, "highlight_id", highlightID)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteHighlight handles DELETE /highlights/{id}
func (h *HighlightHandler) DeleteHighlight(w http.ResponseWriter, r *http.Request) {
	highlightID := mux.Vars(r)["id"]

	if err := h.highlightService.DeleteHighlight(r.Context(), highlightID); err != nil {
		writeServiceError(w, h.logger, "Failed to delete highlight", err, "highlight_id", highlightID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateAnnotation handles POST /documents/{id}/annotations
func (h *HighlightHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	var req createAnnotationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.highlightService.CreateAnnotation(r.Context(), &domain.Annotation{
		DocumentID:  documentID,
		PageNumber:  req.PageNumber,
		Content:     req.Content,
		Position:    req.Position,
		HighlightID: req.HighlightID,
		Tags:        req.Tags,
	})
	if err != nil {
		writeServiceError(w, h.logger, "Failed to create annotation", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListAnnotations handles GET /documents/{id}/annotations
func (h *HighlightHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	list, err := h.highlightService.ListAnnotations(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list annotations", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateAnnotation handles PATCH /annotations/{id}
func (h *HighlightHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	annotationID := mux.Vars(r)["id"]

	var update domain.AnnotationUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.highlightService.UpdateAnnotation(r.Context(), annotationID, update)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to update annotation", err, "annotation_id", annotationID)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAnnotation handles DELETE /annotations/{id}
func (h *HighlightHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	annotationID := mux.Vars(r)["id"]

	if err := h.highlightService.DeleteAnnotation(r.Context(), annotationID); err != nil {
		writeServiceError(w, h.logger, "Failed to delete annotation", err, "annotation_id", annotationID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
