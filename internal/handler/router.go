package handler

import (
	"net/http"

	"pdf-reader/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Documents   *DocumentHandler
	Sessions    *SessionHandler
	Highlights  *HighlightHandler
	Preferences *PreferenceHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, allowedOrigins []string, logger domain.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestLogger(logger), LoopbackOnly(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pdf-reader"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Library
	api.HandleFunc("/documents", h.Documents.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents", h.Documents.UploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", h.Documents.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", h.Documents.UpdateDocument).Methods(http.MethodPatch)
	api.HandleFunc("/documents/{id}", h.Documents.DeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/file", h.Documents.DownloadFile).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/reingest", h.Documents.ReingestDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/bookmarks", h.Documents.ListBookmarks).Methods(http.MethodGet)
	api.HandleFunc("/bookmarks/{id}", h.Documents.UpdateBookmark).Methods(http.MethodPatch)
	api.HandleFunc("/tags", h.Documents.ListTags).Methods(http.MethodGet)

	// Reading session
	api.HandleFunc("/documents/{id}/session", h.Sessions.OpenSession).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/session", h.Sessions.GetState).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/session", h.Sessions.CloseSession).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/session/next", h.Sessions.Next).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/session/previous", h.Sessions.Previous).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/session/page", h.Sessions.JumpTo).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id}/session/bookmark", h.Sessions.ToggleBookmark).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/session/content", h.Sessions.PageContent).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/pages/{page:[0-9]+}/image", h.Sessions.PageImage).Methods(http.MethodGet)

	// Highlights and annotations
	api.HandleFunc("/documents/{id}/highlights", h.Highlights.ListHighlights).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/highlights", h.Highlights.CreateHighlight).Methods(http.MethodPost)
	api.HandleFunc("/highlights/{id}", h.Highlights.UpdateHighlight).Methods(http.MethodPatch)
	api.HandleFunc("/highlights/{id}", h.Highlights.DeleteHighlight).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/annotations", h.Highlights.ListAnnotations).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/annotations", h.Highlights.CreateAnnotation).Methods(http.MethodPost)
	api.HandleFunc("/annotations/{id}", h.Highlights.UpdateAnnotation).Methods(http.MethodPatch)
	api.HandleFunc("/annotations/{id}", h.Highlights.DeleteAnnotation).Methods(http.MethodDelete)

	// Settings
	api.HandleFunc("/settings", h.Preferences.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.Preferences.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings/reset", h.Preferences.ResetSettings).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		MaxAge: 300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
