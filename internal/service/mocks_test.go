package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"

	"pdf-reader/internal/domain"
	"pdf-reader/internal/repository"
)

// MockLogger discards output but counts warnings.
type MockLogger struct {
	warns atomic.Int32
}

func (m *MockLogger) Info(string, ...interface{})         {}
func (m *MockLogger) Error(string, error, ...interface{}) {}
func (m *MockLogger) Debug(string, ...interface{})        {}
func (m *MockLogger) Warn(string, ...interface{})         { m.warns.Add(1) }

var errDecode = errors.New("not a PDF")

// MockPage is a scripted page.
type MockPage struct {
	Items     []string
	TextErr   error
	Width     float64
	Height    float64
	RenderErr error
	// Block, when set, makes RenderRaster wait on it (or on ctx).
	Block   chan struct{}
	Started chan struct{}
}

// MockDocument is a scripted document handle.
type MockDocument struct {
	Pages  []*MockPage
	Meta   map[string]string
	closed atomic.Bool
}

// MockRenderer serves MockDocuments keyed by payload.
type MockRenderer struct {
	mu    sync.Mutex
	docs  map[string]*MockDocument
	loads int
}

func NewMockRenderer() *MockRenderer {
	return &MockRenderer{docs: make(map[string]*MockDocument)}
}

func (r *MockRenderer) Add(payload string, doc *MockDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[payload] = doc
}

func (r *MockRenderer) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

func (r *MockRenderer) Load(ctx context.Context, payload []byte) (domain.DocumentHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	doc, ok := r.docs[string(payload)]
	if !ok {
		return nil, errDecode
	}
	return doc, nil
}

func (d *MockDocument) PageCount() int { return len(d.Pages) }

func (d *MockDocument) Page(_ context.Context, n int) (domain.PageHandle, error) {
	if n < 1 || n > len(d.Pages) {
		return nil, domain.ErrPageOutOfRange
	}
	return &mockPageHandle{page: d.Pages[n-1], number: n}, nil
}

func (d *MockDocument) Info() map[string]string {
	if d.Meta == nil {
		return map[string]string{}
	}
	return d.Meta
}

func (d *MockDocument) Close() error {
	d.closed.Store(true)
	return nil
}

type mockPageHandle struct {
	page   *MockPage
	number int
}

func (p *mockPageHandle) Number() int { return p.number }

func (p *mockPageHandle) Size() domain.PageSize {
	return domain.PageSize{Width: p.page.Width, Height: p.page.Height}
}

func (p *mockPageHandle) RenderRaster(ctx context.Context, scale float64) (image.Image, error) {
	if p.page.Started != nil {
		close(p.page.Started)
	}
	if p.page.Block != nil {
		select {
		case <-p.page.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.page.RenderErr != nil {
		return nil, p.page.RenderErr
	}
	// Round up like an engine that renders whole pixels at a DPI.
	w := int(math.Ceil(p.page.Width*scale)) + 1
	h := int(math.Ceil(p.page.Height * scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(p.number), A: 255})
	}
	return img, nil
}

func (p *mockPageHandle) TextItems(context.Context) ([]string, error) {
	if p.page.TextErr != nil {
		return nil, p.page.TextErr
	}
	return p.page.Items, nil
}

// textPages builds n pages with two text items each.
func textPages(n int) []*MockPage {
	pages := make([]*MockPage, n)
	for i := range pages {
		pages[i] = &MockPage{Items: []string{"Page", "  text  "}, Width: 612, Height: 792}
	}
	return pages
}

// FailingStore wraps a memory store and fails selected operations.
type FailingStore struct {
	*repository.MemoryStore
	mu            sync.Mutex
	failSave      error
	failUpdate    error
	failBookmark  error
	failDelete    error
	updates       int
	savedBookmark int
}

func NewFailingStore() *FailingStore {
	return &FailingStore{MemoryStore: repository.NewMemoryStore()}
}

func (s *FailingStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	err := s.failSave
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.SaveDocument(ctx, doc)
}

func (s *FailingStore) UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) error {
	s.mu.Lock()
	s.updates++
	err := s.failUpdate
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.UpdateDocument(ctx, id, update)
}

func (s *FailingStore) SaveBookmark(ctx context.Context, b *domain.Bookmark) error {
	s.mu.Lock()
	err := s.failBookmark
	if err == nil {
		s.savedBookmark++
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.SaveBookmark(ctx, b)
}

func (s *FailingStore) DeleteBookmark(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.failDelete
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.DeleteBookmark(ctx, id)
}

func (s *FailingStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func (s *FailingStore) setFailUpdate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate = err
}
