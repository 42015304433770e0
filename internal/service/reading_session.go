package service

import (
	"context"
	"errors"
	"image"
	"sort"
	"sync"
	"time"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"

	"github.com/google/uuid"
)

// sessionStore is what a reading session needs from persistence.
type sessionStore interface {
	domain.DocumentStore
	domain.BookmarkStore
}

// ReadingSession tracks the reading position of one open document. Page turns are persisted
// asynchronously through the ProgressWriter; bookmark toggles are written synchronously.
type ReadingSession struct {
	documentID string
	pageCount  int
	pages      []domain.ExtractedPage
	payload    []byte

	store    sessionStore
	renderer domain.Renderer
	writer   *ProgressWriter
	logger   domain.Logger
	now      func() time.Time
	newID    func() string

	mu          sync.Mutex
	currentPage int
	bookmarks   map[int][]string // page -> bookmark ids
	openedAt    time.Time
	readingTime time.Duration // accumulated before this session
	closed      bool

	renderMu     sync.Mutex
	renderSeq    uint64
	renderCancel context.CancelFunc

	handleMu sync.Mutex
	handle   domain.DocumentHandle
}

// OpenReadingSession loads the document and its bookmarks and starts a session.
func OpenReadingSession(
	ctx context.Context,
	documentID string,
	store sessionStore,
	renderer domain.Renderer,
	writer *ProgressWriter,
	logger domain.Logger,
) (*ReadingSession, error) {
	doc, err := store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("document not found", err)
		}
		return nil, apperrors.NewStoreError("failed to load document", err)
	}

	marks, err := store.GetBookmarksByDocument(ctx, documentID)
	if err != nil {
		return nil, apperrors.NewStoreError("failed to load bookmarks", err)
	}

	s := &ReadingSession{
		documentID:  documentID,
		pageCount:   doc.PageCount(),
		pages:       doc.Pages,
		payload:     doc.Payload,
		store:       store,
		renderer:    renderer,
		writer:      writer,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		currentPage: doc.CurrentPage,
		bookmarks:   make(map[int][]string),
		readingTime: doc.TotalReadingTime,
	}
	s.openedAt = s.now()

	if s.pageCount == 0 {
		s.currentPage = 0
	} else if s.currentPage < 0 || s.currentPage >= s.pageCount {
		s.currentPage = min(max(s.currentPage, 0), s.pageCount-1)
	}
	for _, b := range marks {
		s.bookmarks[b.PageNumber] = append(s.bookmarks[b.PageNumber], b.ID)
	}

	logger.Debug("Reading session opened", "document_id", documentID, "page", s.currentPage, "pages", s.pageCount)
	return s, nil
}

// DocumentID returns the id of the open document.
func (s *ReadingSession) DocumentID() string {
	return s.documentID
}

// State returns a snapshot of the session.
func (s *ReadingSession) State() domain.ReadingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *ReadingSession) stateLocked() domain.ReadingState {
	pages := make([]int, 0, len(s.bookmarks))
	for p := range s.bookmarks {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	return domain.ReadingState{
		DocumentID:      s.documentID,
		CurrentPage:     s.currentPage,
		PageCount:       s.pageCount,
		ReadingProgress: domain.ReadingProgressFor(s.currentPage, s.pageCount),
		Bookmarked:      len(s.bookmarks[s.currentPage]) > 0,
		BookmarkedPages: pages,
		ReadingTime:     s.readingTime + s.now().Sub(s.openedAt),
	}
}

// Next advances one page. It is a no-op on the last page.
func (s *ReadingSession) Next() (domain.ReadingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ReadingState{}, domain.ErrSessionClosed
	}
	if s.currentPage+1 < s.pageCount {
		s.moveLocked(s.currentPage + 1)
	}
	return s.stateLocked(), nil
}

// Previous goes back one page. It is a no-op on the first page.
func (s *ReadingSession) Previous() (domain.ReadingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ReadingState{}, domain.ErrSessionClosed
	}
	if s.currentPage > 0 {
		s.moveLocked(s.currentPage - 1)
	}
	return s.stateLocked(), nil
}

// JumpTo moves to page k (0-indexed). k outside the document is rejected and the state is
// left unchanged.
func (s *ReadingSession) JumpTo(k int) (domain.ReadingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ReadingState{}, domain.ErrSessionClosed
	}
	if k < 0 || k >= s.pageCount {
		return s.stateLocked(), apperrors.NewPageIndexError(k, s.pageCount, domain.ErrPageOutOfRange)
	}
	if k != s.currentPage {
		s.moveLocked(k)
	}
	return s.stateLocked(), nil
}

// moveLocked sets the page and queues the new position. Caller holds s.mu.
func (s *ReadingSession) moveLocked(page int) {
	s.currentPage = page
	progress := domain.ReadingProgressFor(page, s.pageCount)
	now := s.now()

	update := domain.DocumentUpdate{CurrentPage: &page, ReadingProgress: &progress, LastRead: &now}
	if err := s.writer.Enqueue(s.documentID, update); err != nil {
		s.logger.Warn("Reading progress not queued", "document_id", s.documentID, "error", err)
	}
}

// ToggleBookmark removes every bookmark on the current page, or adds one if there is none.
// It returns whether the page is bookmarked afterwards. The in-memory set only changes for
// records the store accepted.
func (s *ReadingSession) ToggleBookmark(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, domain.ErrSessionClosed
	}

	page := s.currentPage
	if ids := s.bookmarks[page]; len(ids) > 0 {
		for i, id := range ids {
			if err := s.store.DeleteBookmark(ctx, id); err != nil {
				s.bookmarks[page] = ids[i:]
				return true, apperrors.NewStoreError("failed to delete bookmark", err)
			}
		}
		delete(s.bookmarks, page)
		s.logger.Debug("Bookmark removed", "document_id", s.documentID, "page", page)
		return false, nil
	}

	now := s.now()
	b := &domain.Bookmark{
		ID:         s.newID(),
		DocumentID: s.documentID,
		PageNumber: page,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveBookmark(ctx, b); err != nil {
		return false, apperrors.NewStoreError("failed to save bookmark", err)
	}
	s.bookmarks[page] = []string{b.ID}
	s.logger.Debug("Bookmark added", "document_id", s.documentID, "page", page)
	return true, nil
}

// PageContent returns the extracted text of the current page.
func (s *ReadingSession) PageContent() (domain.ExtractedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ExtractedPage{}, domain.ErrSessionClosed
	}
	if s.currentPage >= len(s.pages) {
		return domain.ExtractedPage{}, apperrors.NewPageIndexError(s.currentPage, len(s.pages), domain.ErrPageOutOfRange)
	}
	return s.pages[s.currentPage], nil
}

// RenderPage rasterizes page pageIndex (0-indexed). A newer call cancels the one in flight;
// the superseded call fails with domain.ErrRenderSuperseded and never returns its image.
func (s *ReadingSession) RenderPage(ctx context.Context, pageIndex int, scale float64) (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, domain.ErrSessionClosed
	}
	if pageIndex < 0 || pageIndex >= s.pageCount {
		return nil, apperrors.NewPageIndexError(pageIndex, s.pageCount, domain.ErrPageOutOfRange)
	}

	rctx, seq := s.beginRender(ctx)
	defer s.endRender(seq)

	img, err := s.render(rctx, pageIndex, scale)
	if s.superseded(seq) {
		return nil, apperrors.NewConflictError("render superseded", domain.ErrRenderSuperseded)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to render page", err)
	}
	return img, nil
}

func (s *ReadingSession) render(ctx context.Context, pageIndex int, scale float64) (image.Image, error) {
	handle, err := s.documentHandle(ctx)
	if err != nil {
		return nil, err
	}
	page, err := handle.Page(ctx, pageIndex+1)
	if err != nil {
		return nil, err
	}
	return page.RenderRaster(ctx, scale)
}

// beginRender cancels the render in flight and registers a new one.
func (s *ReadingSession) beginRender(ctx context.Context) (context.Context, uint64) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if s.renderCancel != nil {
		s.renderCancel()
	}
	s.renderSeq++
	rctx, cancel := context.WithCancel(ctx)
	s.renderCancel = cancel
	return rctx, s.renderSeq
}

func (s *ReadingSession) endRender(seq uint64) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if s.renderSeq == seq && s.renderCancel != nil {
		s.renderCancel()
		s.renderCancel = nil
	}
}

func (s *ReadingSession) superseded(seq uint64) bool {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.renderSeq != seq
}

// documentHandle loads the payload into the renderer on first use. A cancelled load is
// retried by the next render.
func (s *ReadingSession) documentHandle(ctx context.Context) (domain.DocumentHandle, error) {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()
	if s.handle != nil {
		return s.handle, nil
	}
	h, err := s.renderer.Load(ctx, s.payload)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		h.Close()
		return nil, domain.ErrSessionClosed
	}
	s.handle = h
	return h, nil
}

// Close records the reading time, waits for queued progress to be written and releases
// the renderer. Close is idempotent.
func (s *ReadingSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	total := s.readingTime + s.now().Sub(s.openedAt)
	s.mu.Unlock()

	if err := s.writer.Enqueue(s.documentID, domain.DocumentUpdate{TotalReadingTime: &total}); err != nil {
		s.logger.Warn("Reading time not queued", "document_id", s.documentID, "error", err)
	}

	s.renderMu.Lock()
	s.renderSeq++
	if s.renderCancel != nil {
		s.renderCancel()
		s.renderCancel = nil
	}
	s.renderMu.Unlock()

	s.handleMu.Lock()
	if s.handle != nil {
		if err := s.handle.Close(); err != nil {
			s.logger.Warn("Failed to close document handle", "document_id", s.documentID, "error", err)
		}
		s.handle = nil
	}
	s.handleMu.Unlock()

	err := s.writer.Flush(ctx)
	s.logger.Debug("Reading session closed", "document_id", s.documentID, "reading_time", total.String())
	return err
}
