package service

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"

	"github.com/gen2brain/go-fitz"
)

// pointsPerInch is the PDF user-space unit; a scale of 1 renders at 72 DPI.
const pointsPerInch = 72.0

// FitzRenderer binds domain.Renderer to MuPDF through go-fitz.
type FitzRenderer struct {
	logger domain.Logger
}

var _ domain.Renderer = (*FitzRenderer)(nil)

// NewFitzRenderer creates a new go-fitz backed renderer
func NewFitzRenderer(logger domain.Logger) *FitzRenderer {
	return &FitzRenderer{logger: logger}
}

// Load opens payload in the engine. Anything MuPDF cannot open is a decode error.
func (r *FitzRenderer) Load(ctx context.Context, payload []byte) (domain.DocumentHandle, error) {
	if len(payload) == 0 {
		return nil, apperrors.NewDecodeError("failed to open PDF", domain.ErrInvalidFile)
	}

	doc, err := runEngine(ctx, func() (*fitz.Document, error) {
		return fitz.NewFromMemory(payload)
	}, func(d *fitz.Document) { d.Close() })
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, apperrors.NewDecodeError("failed to open PDF", err)
	}

	h := &fitzDocument{doc: doc, pageCount: doc.NumPage(), info: cleanMetadata(doc.Metadata())}
	r.logger.Debug("PDF opened", "pages", h.pageCount, "format", h.info["format"])
	return h, nil
}

// runEngine runs a blocking engine call and returns early when ctx is done. A result that
// arrives after the caller gave up is passed to discard.
func runEngine[T any](ctx context.Context, call func() (T, error), discard func(T)) (T, error) {
	type result struct {
		val T
		err error
	}

	resultCh := make(chan result, 1)
	go func() {
		v, err := call()
		resultCh <- result{val: v, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.val, res.err
	case <-ctx.Done():
		go func() {
			res := <-resultCh
			if res.err == nil && discard != nil {
				discard(res.val)
			}
		}()
		var zero T
		return zero, ctx.Err()
	}
}

// cleanMetadata cuts each value at its first NUL. go-fitz returns fixed-size buffers.
func cleanMetadata(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if i := strings.IndexByte(v, 0); i >= 0 {
			v = v[:i]
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// fitzDocument is an open go-fitz document. go-fitz serializes engine calls on a document
// but not Close, so Close waits for every call still running, abandoned ones included.
type fitzDocument struct {
	doc       *fitz.Document
	pageCount int
	info      map[string]string

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

func (d *fitzDocument) PageCount() int {
	return d.pageCount
}

func (d *fitzDocument) Info() map[string]string {
	out := make(map[string]string, len(d.info))
	for k, v := range d.info {
		out[k] = v
	}
	return out
}

// Close rejects new engine calls, waits for running ones and releases the document.
func (d *fitzDocument) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		d.inflight.Wait()
		d.closeErr = d.doc.Close()
	})
	return d.closeErr
}

// engineCall runs call on the document's engine goroutine. The document stays open until
// call returns even when ctx is done first.
func engineCall[T any](ctx context.Context, d *fitzDocument, call func(*fitz.Document) (T, error)) (T, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		var zero T
		return zero, domain.ErrDocumentClosed
	}
	d.inflight.Add(1)
	d.mu.Unlock()

	return runEngine(ctx, func() (T, error) {
		defer d.inflight.Done()
		return call(d.doc)
	}, nil)
}

// Page returns page n, counted from 1.
func (d *fitzDocument) Page(ctx context.Context, n int) (domain.PageHandle, error) {
	if n < 1 || n > d.pageCount {
		return nil, apperrors.NewPageIndexError(n, d.pageCount, domain.ErrPageOutOfRange)
	}

	bounds, err := engineCall(ctx, d, func(doc *fitz.Document) (image.Rectangle, error) {
		return doc.Bound(n - 1)
	})
	if err != nil {
		return nil, err
	}

	return &fitzPage{
		doc:    d,
		number: n,
		size:   domain.PageSize{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())},
	}, nil
}

type fitzPage struct {
	doc    *fitzDocument
	number int
	size   domain.PageSize
}

func (p *fitzPage) Number() int {
	return p.number
}

func (p *fitzPage) Size() domain.PageSize {
	return p.size
}

// RenderRaster rasterizes the page at scale times its native size.
func (p *fitzPage) RenderRaster(ctx context.Context, scale float64) (image.Image, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("invalid render scale %v", scale)
	}
	img, err := engineCall(ctx, p.doc, func(doc *fitz.Document) (*image.RGBA, error) {
		return doc.ImageDPI(p.number-1, pointsPerInch*scale)
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// TextItems returns the text lines of the page in the order MuPDF lays them out.
func (p *fitzPage) TextItems(ctx context.Context) ([]string, error) {
	text, err := engineCall(ctx, p.doc, func(doc *fitz.Document) (string, error) {
		return doc.Text(p.number - 1)
	})
	if err != nil {
		return nil, err
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			items = append(items, line)
		}
	}
	return items, nil
}
