package service

import (
	"context"
	"errors"
	"time"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"

	"github.com/google/uuid"
)

type HighlightService struct {
	store  domain.Store
	logger domain.Logger
	now    func() time.Time
}

func NewHighlightService(store domain.Store, logger domain.Logger) *HighlightService {
	return &HighlightService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *HighlightService) CreateHighlight(ctx context.Context, highlight *domain.Highlight) (*domain.Highlight, error) {
	if highlight == nil {
		return nil, apperrors.NewValidationError("highlight is required", nil)
	}
	if err := highlight.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), err)
	}
	if err := s.requireDocument(ctx, highlight.DocumentID); err != nil {
		return nil, err
	}

	now := s.now()
	highlight.ID = uuid.NewString()
	highlight.CreatedAt = now
	highlight.UpdatedAt = now
	if highlight.Text == "" {
		highlight.Text = highlight.SelectedText
	}
	if highlight.SelectedText == "" {
		highlight.SelectedText = highlight.Text
	}

	if err := s.store.SaveHighlight(ctx, highlight); err != nil {
		return nil, apperrors.NewStoreError("failed to save highlight", err)
	}
	s.logger.Info("Highlight created", "document_id", highlight.DocumentID, "highlight_id", highlight.ID)
	return highlight, nil
}

func (s *HighlightService) ListHighlights(ctx context.Context, documentID string) ([]*domain.Highlight, error) {
	out, err := s.store.GetHighlightsByDocument(ctx, documentID)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to list highlights", err)
	}
	if out == nil {
		out = []*domain.Highlight{}
	}
	return out, nil
}

func (s *HighlightService) UpdateHighlight(ctx context.Context, highlightID string, update domain.HighlightUpdate) (*domain.Highlight, error) {
	if update.Category != nil && !update.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", nil, string(*update.Category))
	}
	if _, err := s.getHighlight(ctx, highlightID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateHighlight(ctx, highlightID, update); err != nil {
		return nil, apperrors.NewStoreError("failed to update highlight", err)
	}
	return s.getHighlight(ctx, highlightID)
}

func (s *HighlightService) DeleteHighlight(ctx context.Context, highlightID string) error {
	if highlightID == "" {
		return apperrors.NewValidationError("highlight_id is required", nil)
	}
	if err := s.store.DeleteHighlight(ctx, highlightID); err != nil {
		return apperrors.NewStoreError("failed to delete highlight", err)
	}
	return nil
}

func (s *HighlightService) CreateAnnotation(ctx context.Context, annotation *domain.Annotation) (*domain.Annotation, error) {
	if annotation == nil {
		return nil, apperrors.NewValidationError("annotation is required", nil)
	}
	if err := annotation.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), err)
	}
	if err := s.requireDocument(ctx, annotation.DocumentID); err != nil {
		return nil, err
	}
	if annotation.HighlightID != nil {
		h, err := s.getHighlight(ctx, *annotation.HighlightID)
		if err != nil {
			return nil, err
		}
		if h.DocumentID != annotation.DocumentID {
			return nil, apperrors.NewValidationError("highlight belongs to another document", nil)
		}
	}

	now := s.now()
	annotation.ID = uuid.NewString()
	annotation.CreatedAt = now
	annotation.UpdatedAt = now
	if annotation.Tags == nil {
		annotation.Tags = []string{}
	}

	if err := s.store.SaveAnnotation(ctx, annotation); err != nil {
		return nil, apperrors.NewStoreError("failed to save annotation", err)
	}
	s.logger.Info("Annotation created", "document_id", annotation.DocumentID, "annotation_id", annotation.ID)
	return annotation, nil
}

func (s *HighlightService) ListAnnotations(ctx context.Context, documentID string) ([]*domain.Annotation, error) {
	out, err := s.store.GetAnnotationsByDocument(ctx, documentID)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to list annotations", err)
	}
	if out == nil {
		out = []*domain.Annotation{}
	}
	return out, nil
}

func (s *HighlightService) UpdateAnnotation(ctx context.Context, annotationID string, update domain.AnnotationUpdate) (*domain.Annotation, error) {
	if update.Content != nil && *update.Content == "" {
		return nil, apperrors.NewValidationError("content cannot be empty", nil)
	}
	if _, err := s.getAnnotation(ctx, annotationID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAnnotation(ctx, annotationID, update); err != nil {
		return nil, apperrors.NewStoreError("failed to update annotation", err)
	}
	return s.getAnnotation(ctx, annotationID)
}

func (s *HighlightService) DeleteAnnotation(ctx context.Context, annotationID string) error {
	if annotationID == "" {
		return apperrors.NewValidationError("annotation_id is required", nil)
	}
	if err := s.store.DeleteAnnotation(ctx, annotationID); err != nil {
		return apperrors.NewStoreError("failed to delete annotation", err)
	}
	return nil
}

func (s *HighlightService) requireDocument(ctx context.Context, documentID string) error {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.NewNotFoundError("document not found", err)
		}
		return apperrors.NewStoreError("failed to load document", err)
	}
	return nil
}

func (s *HighlightService) getHighlight(ctx context.Context, id string) (*domain.Highlight, error) {
	h, err := s.store.GetHighlight(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("highlight not found", err)
		}
		return nil, apperrors.NewStoreError("failed to load highlight", err)
	}
	return h, nil
}

func (s *HighlightService) getAnnotation(ctx context.Context, id string) (*domain.Annotation, error) {
	a, err := s.store.GetAnnotation(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("annotation not found", err)
		}
		return nil, apperrors.NewStoreError("failed to load annotation", err)
	}
	return a, nil
}
