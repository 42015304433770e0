package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"
)

// DocumentService serves the library: listing, details, file download and deletion.
type DocumentService struct {
	store  domain.Store
	logger domain.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(store domain.Store, logger domain.Logger) *DocumentService {
	return &DocumentService{
		store:  store,
		logger: logger,
	}
}

// ListDocuments returns library summaries, most recently read first.
func (s *DocumentService) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error) {
	docs, err := s.store.GetAllDocuments(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to list documents", err)
	}

	out := make([]*domain.Document, 0, len(docs))
	for _, doc := range docs {
		if filter.Matches(doc) {
			out = append(out, doc.Summary())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastRead.After(out[j].LastRead)
	})
	return out, nil
}

// GetDocument returns the full record.
func (s *DocumentService) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("document not found", err)
		}
		return nil, apperrors.NewStoreError("failed to load document", err)
	}
	return doc, nil
}

// UpdateDocumentDetails changes the library fields of a document. Reading-state fields in
// update are ignored; those belong to the reading session.
func (s *DocumentService) UpdateDocumentDetails(ctx context.Context, documentID string, update domain.DocumentUpdate) (*domain.Document, error) {
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	update.CurrentPage = nil
	update.ReadingProgress = nil
	update.LastRead = nil
	update.TotalReadingTime = nil

	if update.FileName != nil {
		name := strings.TrimSpace(*update.FileName)
		if name == "" {
			return nil, apperrors.NewValidationError("file name cannot be empty", nil)
		}
		update.FileName = &name
	}
	if update.Tags != nil {
		tags := normalizeLabels(*update.Tags)
		update.Tags = &tags
	}
	if update.Collections != nil {
		collections := normalizeLabels(*update.Collections)
		update.Collections = &collections
	}

	if err := s.store.UpdateDocument(ctx, documentID, update); err != nil {
		return nil, apperrors.NewStoreError("failed to update document", err)
	}
	s.logger.Info("Document details updated", "document_id", documentID)

	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return doc.Summary(), nil
}

// SetFavorite marks or unmarks a document as favorite.
func (s *DocumentService) SetFavorite(ctx context.Context, documentID string, favorite bool) (*domain.Document, error) {
	return s.UpdateDocumentDetails(ctx, documentID, domain.DocumentUpdate{IsFavorite: &favorite})
}

// AddTag adds tagName to a document.
func (s *DocumentService) AddTag(ctx context.Context, documentID, tagName string) (*domain.Document, error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil, apperrors.NewValidationError("tag name cannot be empty", nil)
	}
	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	tags := append(append([]string{}, doc.Tags...), tagName)
	return s.UpdateDocumentDetails(ctx, documentID, domain.DocumentUpdate{Tags: &tags})
}

// RemoveTag removes tagName from a document.
func (s *DocumentService) RemoveTag(ctx context.Context, documentID, tagName string) (*domain.Document, error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil, apperrors.NewValidationError("tag name cannot be empty", nil)
	}
	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(doc.Tags))
	for _, t := range doc.Tags {
		if t != tagName {
			tags = append(tags, t)
		}
	}
	return s.UpdateDocumentDetails(ctx, documentID, domain.DocumentUpdate{Tags: &tags})
}

// ListTags returns every tag used in the library, sorted.
func (s *DocumentService) ListTags(ctx context.Context) ([]string, error) {
	docs, err := s.store.GetAllDocuments(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to list documents", err)
	}
	var all []string
	for _, doc := range docs {
		all = append(all, doc.Tags...)
	}
	return normalizeLabels(all), nil
}

// GetDocumentFile returns the original upload.
func (s *DocumentService) GetDocumentFile(ctx context.Context, documentID string) ([]byte, string, error) {
	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	return doc.Payload, doc.FileName, nil
}

// ListBookmarks returns the bookmarks of a document.
func (s *DocumentService) ListBookmarks(ctx context.Context, documentID string) ([]*domain.Bookmark, error) {
	marks, err := s.store.GetBookmarksByDocument(ctx, documentID)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to list bookmarks", err)
	}
	if marks == nil {
		marks = []*domain.Bookmark{}
	}
	return marks, nil
}

// UpdateBookmark changes the label, note, color or position of a bookmark.
func (s *DocumentService) UpdateBookmark(ctx context.Context, bookmarkID string, update domain.BookmarkUpdate) (*domain.Bookmark, error) {
	if _, err := s.getBookmark(ctx, bookmarkID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBookmark(ctx, bookmarkID, update); err != nil {
		return nil, apperrors.NewStoreError("failed to update bookmark", err)
	}
	return s.getBookmark(ctx, bookmarkID)
}

func (s *DocumentService) getBookmark(ctx context.Context, bookmarkID string) (*domain.Bookmark, error) {
	b, err := s.store.GetBookmark(ctx, bookmarkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("bookmark not found", err)
		}
		return nil, apperrors.NewStoreError("failed to load bookmark", err)
	}
	return b, nil
}

// DeleteDocument removes a document together with its bookmarks, highlights and
// annotations. The store does not cascade, so dependents go first.
func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) error {
	marks, err := s.store.GetBookmarksByDocument(ctx, documentID)
	if err != nil {
		return apperrors.NewStoreError("failed to list bookmarks", err)
	}
	for _, b := range marks {
		if err := s.store.DeleteBookmark(ctx, b.ID); err != nil {
			return apperrors.NewStoreError("failed to delete bookmark", err)
		}
	}

	highlights, err := s.store.GetHighlightsByDocument(ctx, documentID)
	if err != nil {
		return apperrors.NewStoreError("failed to list highlights", err)
	}
	for _, h := range highlights {
		if err := s.store.DeleteHighlight(ctx, h.ID); err != nil {
			return apperrors.NewStoreError("failed to delete highlight", err)
		}
	}

	annotations, err := s.store.GetAnnotationsByDocument(ctx, documentID)
	if err != nil {
		return apperrors.NewStoreError("failed to list annotations", err)
	}
	for _, a := range annotations {
		if err := s.store.DeleteAnnotation(ctx, a.ID); err != nil {
			return apperrors.NewStoreError("failed to delete annotation", err)
		}
	}

	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return apperrors.NewStoreError("failed to delete document", err)
	}

	s.logger.Info("Document deleted",
		"document_id", documentID,
		"bookmarks", len(marks),
		"highlights", len(highlights),
		"annotations", len(annotations))
	return nil
}

// normalizeLabels trims, drops empties and de-duplicates, keeping a sorted result.
func normalizeLabels(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
