package domain

import (
	"context"
	"image"
)

// Renderer loads document payloads through the rendering engine.
type Renderer interface {
	// Load decodes payload. A malformed payload fails with a decode error.
	Load(ctx context.Context, payload []byte) (DocumentHandle, error)
}

// DocumentHandle is an open document inside the rendering engine.
type DocumentHandle interface {
	PageCount() int
	// Page returns page n, 1-indexed. n outside [1, PageCount] fails with ErrPageOutOfRange.
	Page(ctx context.Context, n int) (PageHandle, error)
	// Info returns the raw document info dictionary reported by the engine.
	Info() map[string]string
	Close() error
}

// PageHandle is a single page of an open document.
type PageHandle interface {
	Number() int
	Size() PageSize
	RenderRaster(ctx context.Context, scale float64) (image.Image, error)
	TextItems(ctx context.Context) ([]string, error)
}

// DocumentStore persists document records.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetAllDocuments(ctx context.Context) ([]*Document, error)
	UpdateDocument(ctx context.Context, id string, update DocumentUpdate) error
	DeleteDocument(ctx context.Context, id string) error
}

// BookmarkStore persists bookmarks keyed by their owning document.
type BookmarkStore interface {
	SaveBookmark(ctx context.Context, b *Bookmark) error
	GetBookmark(ctx context.Context, id string) (*Bookmark, error)
	GetBookmarksByDocument(ctx context.Context, documentID string) ([]*Bookmark, error)
	UpdateBookmark(ctx context.Context, id string, update BookmarkUpdate) error
	DeleteBookmark(ctx context.Context, id string) error
}

// HighlightStore persists highlights keyed by their owning document.
type HighlightStore interface {
	SaveHighlight(ctx context.Context, h *Highlight) error
	GetHighlight(ctx context.Context, id string) (*Highlight, error)
	GetHighlightsByDocument(ctx context.Context, documentID string) ([]*Highlight, error)
	UpdateHighlight(ctx context.Context, id string, update HighlightUpdate) error
	DeleteHighlight(ctx context.Context, id string) error
}

// AnnotationStore persists annotations keyed by their owning document.
type AnnotationStore interface {
	SaveAnnotation(ctx context.Context, a *Annotation) error
	GetAnnotation(ctx context.Context, id string) (*Annotation, error)
	GetAnnotationsByDocument(ctx context.Context, documentID string) ([]*Annotation, error)
	UpdateAnnotation(ctx context.Context, id string, update AnnotationUpdate) error
	DeleteAnnotation(ctx context.Context, id string) error
}

// Store is the full persistence layer: four independent collections. Implementations
// return every time in UTC.
type Store interface {
	DocumentStore
	BookmarkStore
	HighlightStore
	AnnotationStore
	Close() error
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetServerHost() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetLogFormat() string
	GetDataDir() string
	GetDatabasePath() string
	GetStoreDriver() string
	GetThumbnailWidth() int
	GetThumbnailQuality() int
	GetExtractWorkers() int
	GetStrictPDFValidation() bool
	GetAllowedOrigins() []string
}
