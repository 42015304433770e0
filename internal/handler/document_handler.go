// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pdf-reader/internal/domain"
	"pdf-reader/internal/service"

	"github.com/gorilla/mux"
)

// multipartOverhead is the slack allowed on top of the file size for form boundaries and fields.
const multipartOverhead = 1 << 20

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	documentService  *service.DocumentService
	ingestionService *service.IngestionService
	sessions         *service.SessionManager
	maxFileSize      int64
	logger           domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	documentService *service.DocumentService,
	ingestionService *service.IngestionService,
	sessions *service.SessionManager,
	maxFileSize int64,
	logger domain.Logger,
) *DocumentHandler {
	if maxFileSize <= 0 {
		maxFileSize = service.DefaultMaxFileSize
	}
	return &DocumentHandler{
		documentService:  documentService,
		ingestionService: ingestionService,
		sessions:         sessions,
		maxFileSize:      maxFileSize,
		logger:           logger,
	}
}

// ListDocuments handles GET /documents?favorite=&archived=&tag=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.DocumentFilter{Tag: strings.TrimSpace(q.Get("tag"))}

	var err error
	if filter.Favorite, err = optionalBool(q.Get("favorite")); err != nil {
		writeError(w, http.StatusBadRequest, "favorite must be true or false")
		return
	}
	if filter.Archived, err = optionalBool(q.Get("archived")); err != nil {
		writeError(w, http.StatusBadRequest, "archived must be true or false")
		return
	}

	docs, err := h.documentService.ListDocuments(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// UploadDocument handles POST /documents (multipart, field "file")
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.ingestionService.Ingest(r.Context(), upload)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to ingest document", err, "file", upload.FileName)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ReingestDocument handles POST /documents/{id}/reingest
func (h *DocumentHandler) ReingestDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	// The open session still holds the old page list.
	var result *domain.IngestResult
	err := h.sessions.Exclusive(r.Context(), documentID, func() error {
		var err error
		result, err = h.ingestionService.Reingest(r.Context(), documentID, upload)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, "Failed to re-ingest document", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// readUpload parses the multipart form. Oversized files are passed on with their declared
// size only, so the ingestion service rejects them without the payload being read.
func (h *DocumentHandler) readUpload(w http.ResponseWriter, r *http.Request) (*domain.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File exceeds maximum size")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return nil, false
	}
	defer file.Close()

	// Sanitize filename (strip any path components)
	name := strings.TrimSpace(filepath.Base(header.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document.pdf"
	}

	mimeType := header.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}

	upload := &domain.Upload{
		FileName: name,
		MimeType: mimeType,
		Size:     header.Size,
	}
	if raw := r.FormValue("last_modified"); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			upload.LastModified = time.UnixMilli(ms).UTC()
		}
	}

	if header.Size <= h.maxFileSize {
		payload, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read file")
			return nil, false
		}
		upload.Payload = payload
	}
	return upload, true
}

// GetDocument handles GET /documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	doc, err := h.documentService.GetDocument(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get document", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UpdateDocument handles PATCH /documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	var update domain.DocumentUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.documentService.UpdateDocumentDetails(r.Context(), documentID, update)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to update document", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	// No session may be open while the record goes, or queued progress and bookmarks
	// would land after it.
	err := h.sessions.Exclusive(r.Context(), documentID, func() error {
		return h.documentService.DeleteDocument(r.Context(), documentID)
	})
	if err != nil {
		writeServiceError(w, h.logger, "Failed to delete document", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

// DownloadFile handles GET /documents/{id}/file
func (h *DocumentHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	payload, name, err := h.documentService.GetDocumentFile(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to load document file", err, "document_id", documentID)
		return
	}

	w.Header().Set("Content-Type", domain.PDFMimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// ListTags handles GET /tags
func (h *DocumentHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.documentService.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// ListBookmarks handles GET /documents/{id}/bookmarks
func (h *DocumentHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	marks, err := h.documentService.ListBookmarks(r.Context(), documentID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list bookmarks", err, "document_id", documentID)
		return
	}
	writeJSON(w, http.StatusOK, marks)
}

// UpdateBookmark handles PATCH /bookmarks/{id}
func (h *DocumentHandler) UpdateBookmark(w http.ResponseWriter, r *http.Request) {
	bookmarkID := mux.Vars(r)["id"]

	var update domain.BookmarkUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.documentService.UpdateBookmark(r.Context(), bookmarkID, update)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to update bookmark", err, "bookmark_id", bookmarkID)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func optionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", raw, err)
	}
	return &v, nil
}
