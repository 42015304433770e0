package handler

import (
	"bytes"
	"image/jpeg"
	"net/http"
	"strconv"

	"pdf-reader/internal/domain"
	"pdf-reader/internal/service"

	"github.com/gorilla/mux"
)

const (
	defaultRenderScale = 1.0
	maxRenderScale     = 4.0
	pageImageQuality   = 85
)

// SessionHandler exposes reading sessions: page turns, bookmarks, page text and page images.
type SessionHandler struct {
	sessions *service.SessionManager
	logger   domain.Logger
}

func NewSessionHandler(sessions *service.SessionManager, logger domain.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type jumpRequest struct {
	Page *int `json:"page"`
}

type bookmarkResponse struct {
	Bookmarked bool                `json:"bookmarked"`
	State      domain.ReadingState `json:"state"`
}

// OpenSession handles POST /documents/{id}/session
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	s, err := h.sessions.Open(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to open reading session", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// GetState handles GET /documents/{id}/session
func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// CloseSession handles DELETE /documents/{id}/session
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	if err := h.sessions.Close(r.Context(), documentID); err != nil {
		writeServiceError(w, h.logger, "Failed to close reading session", err, "document_id", documentID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Next handles POST /documents/{id}/session/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, s)(s.Next())
}

// Previous handles POST /documents/{id}/session/previous
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, s)(s.Previous())
}

// JumpTo handles PUT /documents/{id}/session/page with {"page": k}, k 0-indexed.
func (h *SessionHandler) JumpTo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req jumpRequest
	if err := decodeJSON(r, &req); err != nil || req.Page == nil {
		writeError(w, http.StatusBadRequest, "page is required")
		return
	}
	h.writeState(w, s)(s.JumpTo(*req.Page))
}

// ToggleBookmark handles POST /documents/{id}/session/bookmark
func (h *SessionHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	on, err := s.ToggleBookmark(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "Failed to toggle bookmark", err, "document_id", s.DocumentID())
		return
	}
	writeJSON(w, http.StatusOK, bookmarkResponse{Bookmarked: on, State: s.State()})
}

// PageContent handles GET /documents/{id}/session/content
func (h *SessionHandler) PageContent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	page, err := s.PageContent()
	if err != nil {
		writeServiceError(w, h.logger, "Failed to load page content", err, "document_id", s.DocumentID())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PageImage handles GET /documents/{id}/pages/{page}/image?scale=, page 0-indexed. It opens
// the session if needed. A render superseded by a newer one answers 409.
func (h *SessionHandler) PageImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	documentID := vars["id"]

	pageIndex, err := strconv.Atoi(vars["page"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	scale := defaultRenderScale
	if raw := r.URL.Query().Get("scale"); raw != "" {
		scale, err = strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 || scale > maxRenderScale {
			writeError(w, http.StatusBadRequest, "scale must be in (0, 4]")
			return
		}
	}

	s, err := h.sessions.Open(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to open reading session", err, "document_id", documentID)
		return
	}

	img, err := s.RenderPage(r.Context(), pageIndex, scale)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to render page", err, "document_id", documentID, "page", pageIndex)
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: pageImageQuality}); err != nil {
		h.logger.Error("Failed to encode page image", err, "document_id", documentID, "page", pageIndex)
		writeError(w, http.StatusInternalServerError, "Failed to encode page image")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// session returns the open session for the {id} route variable or writes 404.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*service.ReadingSession, bool) {
	documentID := mux.Vars(r)["id"]
	s, ok := h.sessions.Get(documentID)
	if !ok {
		writeError(w, http.StatusNotFound, "No open reading session for this document")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeState(w http.ResponseWriter, s *service.ReadingSession) func(domain.ReadingState, error) {
	return func(state domain.ReadingState, err error) {
		if err != nil {
			writeServiceError(w, h.logger, "Failed to change page", err, "document_id", s.DocumentID())
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}
