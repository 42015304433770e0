package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"

	"github.com/google/uuid"
)

// DefaultMaxFileSize is the upload limit when none is configured (50 MiB).
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// IngestionService validates an upload, runs it through the renderer and extraction
// service, and commits the assembled record. The store write is the last step, so a failed
// ingestion never leaves a record behind.
type IngestionService struct {
	store          domain.DocumentStore
	renderer       domain.Renderer
	extractor      *ExtractionService
	validator      StructureValidator
	logger         domain.Logger
	maxFileSize    int64
	thumbnailWidth int

	now   func() time.Time
	newID func() string
}

// IngestionOptions configures an IngestionService.
type IngestionOptions struct {
	MaxFileSize    int64
	ThumbnailWidth int
	// Validator, when set, runs a structural check before decoding.
	Validator StructureValidator
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	store domain.DocumentStore,
	renderer domain.Renderer,
	extractor *ExtractionService,
	logger domain.Logger,
	opts IngestionOptions,
) *IngestionService {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 200
	}
	return &IngestionService{
		store:          store,
		renderer:       renderer,
		extractor:      extractor,
		validator:      opts.Validator,
		logger:         logger,
		maxFileSize:    opts.MaxFileSize,
		thumbnailWidth: opts.ThumbnailWidth,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
}

// Ingest turns an upload into a stored document and returns its id and page count.
func (s *IngestionService) Ingest(ctx context.Context, upload *domain.Upload) (*domain.IngestResult, error) {
	if err := s.validateUpload(upload); err != nil {
		s.logger.Warn("Upload rejected", "error", err)
		return nil, err
	}

	id := s.newID()
	start := time.Now()

	extraction, pageCount, err := s.process(ctx, upload)
	if err != nil {
		s.logger.Error("Ingestion failed", err, "file", upload.FileName, "document_id", id)
		return nil, err
	}

	now := s.now()
	doc := &domain.Document{
		ID:           id,
		FileName:     upload.FileName,
		FileSize:     upload.EffectiveSize(),
		MimeType:     upload.MimeType,
		UploadDate:   now,
		LastRead:     now,
		LastModified: upload.LastModified,
		Payload:      upload.Payload,
		Pages:        extraction.Pages,
		Images:       []domain.ExtractedImage{},
		Thumbnail:    extraction.Thumbnail,
		Metadata:     extraction.Metadata,
		Collections:  []string{},
		Tags:         []string{},
	}
	doc.Metadata.PageCount = pageCount

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		s.logger.Error("Failed to save document", err, "document_id", id)
		return nil, apperrors.NewStoreError("failed to save document", err)
	}

	s.logger.Info("Document ingested",
		"document_id", id,
		"file", upload.FileName,
		"pages", pageCount,
		"duration_ms", time.Since(start).Milliseconds())
	return &domain.IngestResult{DocumentID: id, PageCount: pageCount}, nil
}

// Reingest replaces the file and everything derived from it on an existing record. Reading
// state, bookmarks, tags and flags are kept; the current page is clamped to the new length.
func (s *IngestionService) Reingest(ctx context.Context, documentID string, upload *domain.Upload) (*domain.IngestResult, error) {
	if err := s.validateUpload(upload); err != nil {
		return nil, err
	}

	if _, err := s.loadForReingest(ctx, documentID); err != nil {
		return nil, err
	}

	extraction, pageCount, err := s.process(ctx, upload)
	if err != nil {
		s.logger.Error("Re-ingestion failed", err, "document_id", documentID)
		return nil, err
	}

	// Read again so edits made while extracting are kept.
	doc, err := s.loadForReingest(ctx, documentID)
	if err != nil {
		return nil, err
	}

	doc.FileName = upload.FileName
	doc.FileSize = upload.EffectiveSize()
	doc.MimeType = upload.MimeType
	doc.LastModified = upload.LastModified
	doc.Payload = upload.Payload
	doc.Pages = extraction.Pages
	doc.Images = []domain.ExtractedImage{}
	doc.Thumbnail = extraction.Thumbnail
	doc.Metadata = extraction.Metadata
	doc.Metadata.PageCount = pageCount

	if doc.CurrentPage >= pageCount {
		doc.CurrentPage = max(pageCount-1, 0)
	}
	doc.ReadingProgress = domain.ReadingProgressFor(doc.CurrentPage, pageCount)

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, apperrors.NewStoreError("failed to save document", err)
	}

	s.logger.Info("Document re-ingested", "document_id", documentID, "pages", pageCount)
	return &domain.IngestResult{DocumentID: documentID, PageCount: pageCount}, nil
}

func (s *IngestionService) loadForReingest(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("document not found", err)
		}
		return nil, apperrors.NewStoreError("failed to load document", err)
	}
	return doc, nil
}

// validateUpload rejects oversized and non-PDF uploads before anything is decoded.
func (s *IngestionService) validateUpload(upload *domain.Upload) error {
	if upload == nil {
		return apperrors.NewValidationError("no file provided", domain.ErrInvalidFile)
	}
	if size := upload.EffectiveSize(); size > s.maxFileSize {
		return apperrors.NewValidationError("file exceeds maximum size", domain.ErrFileTooLarge,
			fmt.Sprintf("%d bytes > %d bytes", size, s.maxFileSize)).
			WithStatus(http.StatusRequestEntityTooLarge)
	}
	if upload.MimeType != domain.PDFMimeType {
		return apperrors.NewValidationError("unsupported file type", domain.ErrUnsupportedType,
			fmt.Sprintf("got %q, want %q", upload.MimeType, domain.PDFMimeType)).
			WithStatus(http.StatusUnsupportedMediaType)
	}
	return nil
}

// process decodes the payload and extracts everything from it.
func (s *IngestionService) process(ctx context.Context, upload *domain.Upload) (*domain.Extraction, int, error) {
	if s.validator != nil {
		if err := s.validator.Validate(ctx, upload.Payload); err != nil {
			return nil, 0, apperrors.NewDecodeError("malformed PDF structure", err)
		}
	}

	handle, err := s.renderer.Load(ctx, upload.Payload)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) || ctx.Err() != nil {
			return nil, 0, err
		}
		return nil, 0, apperrors.NewDecodeError("failed to open PDF", err)
	}
	defer handle.Close()

	extraction, err := s.extractor.Extract(ctx, handle, s.thumbnailWidth)
	if err != nil {
		return nil, 0, err
	}
	return extraction, handle.PageCount(), nil
}
