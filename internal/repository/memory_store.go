package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"pdf-reader/internal/domain"
)

// MemoryStore keeps all four collections in maps. Records are copied on the way in and out
// so callers never share state with the store. Times come back in UTC.
type MemoryStore struct {
	mu          sync.RWMutex
	documents   map[string]*domain.Document
	bookmarks   map[string]*domain.Bookmark
	highlights  map[string]*domain.Highlight
	annotations map[string]*domain.Annotation
}

var _ domain.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:   make(map[string]*domain.Document),
		bookmarks:   make(map[string]*domain.Bookmark),
		highlights:  make(map[string]*domain.Highlight),
		annotations: make(map[string]*domain.Annotation),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// ==================== Documents ====================

func (s *MemoryStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) GetAllDocuments(_ context.Context) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, cloneDocument(doc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastRead.Equal(out[j].LastRead) {
			return out[i].LastRead.After(out[j].LastRead)
		}
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	return out, nil
}

func (s *MemoryStore) UpdateDocument(_ context.Context, id string, update domain.DocumentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.documents[id]; ok {
		update.Apply(doc)
		s.documents[id] = cloneDocument(doc)
	}
	return nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

// ==================== Bookmarks ====================

func (s *MemoryStore) SaveBookmark(_ context.Context, b *domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[b.ID] = cloneBookmark(b)
	return nil
}

func (s *MemoryStore) GetBookmark(_ context.Context, id string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBookmark(b), nil
}

func (s *MemoryStore) GetBookmarksByDocument(_ context.Context, documentID string) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Bookmark
	for _, b := range s.bookmarks {
		if b.DocumentID == documentID {
			out = append(out, cloneBookmark(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pageThenCreated(out[i].PageNumber, out[j].PageNumber, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateBookmark(_ context.Context, id string, update domain.BookmarkUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookmarks[id]; ok {
		update.Apply(b, time.Now().UTC())
		s.bookmarks[id] = cloneBookmark(b)
	}
	return nil
}

func (s *MemoryStore) DeleteBookmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, id)
	return nil
}

// ==================== Highlights ====================

func (s *MemoryStore) SaveHighlight(_ context.Context, h *domain.Highlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlights[h.ID] = cloneHighlight(h)
	return nil
}

func (s *MemoryStore) GetHighlight(_ context.Context, id string) (*domain.Highlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.highlights[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneHighlight(h), nil
}

func (s *MemoryStore) GetHighlightsByDocument(_ context.Context, documentID string) ([]*domain.Highlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Highlight
	for _, h := range s.highlights {
		if h.DocumentID == documentID {
			out = append(out, cloneHighlight(h))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pageThenCreated(out[i].PageNumber, out[j].PageNumber, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateHighlight(_ context.Context, id string, update domain.HighlightUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.highlights[id]; ok {
		update.Apply(h, time.Now().UTC())
		s.highlights[id] = cloneHighlight(h)
	}
	return nil
}

func (s *MemoryStore) DeleteHighlight(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.highlights, id)
	return nil
}

// ==================== Annotations ====================

func (s *MemoryStore) SaveAnnotation(_ context.Context, a *domain.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations[a.ID] = cloneAnnotation(a)
	return nil
}

func (s *MemoryStore) GetAnnotation(_ context.Context, id string) (*domain.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.annotations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAnnotation(a), nil
}

func (s *MemoryStore) GetAnnotationsByDocument(_ context.Context, documentID string) ([]*domain.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Annotation
	for _, a := range s.annotations {
		if a.DocumentID == documentID {
			out = append(out, cloneAnnotation(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pageThenCreated(out[i].PageNumber, out[j].PageNumber, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateAnnotation(_ context.Context, id string, update domain.AnnotationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.annotations[id]; ok {
		update.Apply(a, time.Now().UTC())
		s.annotations[id] = cloneAnnotation(a)
	}
	return nil
}

func (s *MemoryStore) DeleteAnnotation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.annotations, id)
	return nil
}

// ==================== Copies ====================

func pageThenCreated(pi, pj int, ci, cj time.Time) bool {
	if pi != pj {
		return pi < pj
	}
	return ci.Before(cj)
}

// Copies hold their times in UTC, which is what the sqlite store reads back.

func cloneDocument(d *domain.Document) *domain.Document {
	c := *d
	c.UploadDate = d.UploadDate.UTC()
	c.LastRead = d.LastRead.UTC()
	c.LastModified = d.LastModified.UTC()
	c.Payload = append([]byte(nil), d.Payload...)
	c.Pages = append([]domain.ExtractedPage(nil), d.Pages...)
	c.Images = append([]domain.ExtractedImage(nil), d.Images...)
	c.Collections = append([]string{}, d.Collections...)
	c.Tags = append([]string{}, d.Tags...)
	c.Metadata = utcMetadata(d.Metadata)
	c.Metadata.Keywords = append([]string(nil), d.Metadata.Keywords...)
	return &c
}

// utcMetadata returns m with its dates copied and converted to UTC.
func utcMetadata(m domain.PDFMetadata) domain.PDFMetadata {
	if m.CreationDate != nil {
		t := m.CreationDate.UTC()
		m.CreationDate = &t
	}
	if m.ModificationDate != nil {
		t := m.ModificationDate.UTC()
		m.ModificationDate = &t
	}
	return m
}

func cloneBookmark(b *domain.Bookmark) *domain.Bookmark {
	c := *b
	c.CreatedAt = b.CreatedAt.UTC()
	c.UpdatedAt = b.UpdatedAt.UTC()
	if b.Position != nil {
		p := *b.Position
		c.Position = &p
	}
	return &c
}

func cloneHighlight(h *domain.Highlight) *domain.Highlight {
	c := *h
	c.CreatedAt = h.CreatedAt.UTC()
	c.UpdatedAt = h.UpdatedAt.UTC()
	return &c
}

func cloneAnnotation(a *domain.Annotation) *domain.Annotation {
	c := *a
	c.CreatedAt = a.CreatedAt.UTC()
	c.UpdatedAt = a.UpdatedAt.UTC()
	if a.Position != nil {
		p := *a.Position
		c.Position = &p
	}
	c.Tags = append([]string(nil), a.Tags...)
	return &c
}
