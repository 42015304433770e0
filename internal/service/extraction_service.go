package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"
	"unicode/utf8"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

const (
	defaultExtractWorkers   = 4
	defaultThumbnailQuality = 80
	defaultFileVersion      = "PDF 1.0"
)

// ExtractionService derives page text, metadata and a thumbnail from an open document.
type ExtractionService struct {
	logger  domain.Logger
	workers int
	quality int
}

// NewExtractionService creates an extraction service. workers bounds concurrent page
// extraction; quality is the JPEG quality of thumbnails (1-100).
func NewExtractionService(logger domain.Logger, workers, quality int) *ExtractionService {
	if workers <= 0 {
		workers = defaultExtractWorkers
	}
	if quality <= 0 || quality > 100 {
		quality = defaultThumbnailQuality
	}
	return &ExtractionService{logger: logger, workers: workers, quality: quality}
}

// Extract runs page extraction, metadata extraction and thumbnailing concurrently.
// Only a page failure fails the call.
func (s *ExtractionService) Extract(ctx context.Context, handle domain.DocumentHandle, thumbnailWidth int) (*domain.Extraction, error) {
	var out domain.Extraction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pages, err := s.ExtractAllPages(gctx, handle)
		if err != nil {
			return err
		}
		out.Pages = pages
		return nil
	})
	g.Go(func() error {
		out.Metadata = s.ExtractMetadata(handle)
		return nil
	})
	g.Go(func() error {
		out.Thumbnail = s.GenerateThumbnail(gctx, handle, thumbnailWidth)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractAllPages returns one entry per page in page order. Any page failure aborts the
// whole extraction; no partial page list is returned.
func (s *ExtractionService) ExtractAllPages(ctx context.Context, handle domain.DocumentHandle) ([]domain.ExtractedPage, error) {
	count := handle.PageCount()
	pages := make([]domain.ExtractedPage, count)
	if count == 0 {
		return pages, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for n := 1; n <= count; n++ {
		g.Go(func() error {
			page, err := s.extractPage(gctx, handle, n)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("Failed to extract text from page", "page", n, "total", count, "error", err)
				return apperrors.NewExtractionError(n, err)
			}
			pages[n-1] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("Extracted pages", "pages", count)
	return pages, nil
}

func (s *ExtractionService) extractPage(ctx context.Context, handle domain.DocumentHandle, n int) (domain.ExtractedPage, error) {
	page, err := handle.Page(ctx, n)
	if err != nil {
		return domain.ExtractedPage{}, err
	}
	items, err := page.TextItems(ctx)
	if err != nil {
		return domain.ExtractedPage{}, err
	}
	return BuildExtractedPage(n, items), nil
}

// BuildExtractedPage normalizes the text items of page n.
func BuildExtractedPage(n int, items []string) domain.ExtractedPage {
	text := normalizeText(items)
	return domain.ExtractedPage{
		PageNumber:     n,
		RawText:        text,
		Markdown:       reflowParagraphs(text),
		WordCount:      len(strings.Fields(text)),
		CharacterCount: utf8.RuneCountInString(text),
	}
}

// normalizeText joins items with single spaces, collapses whitespace runs and trims.
func normalizeText(items []string) string {
	return strings.Join(strings.Fields(strings.Join(items, " ")), " ")
}

// reflowParagraphs splits on blank lines, trims each paragraph, drops empty ones and
// rejoins with blank lines.
func reflowParagraphs(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")

	paragraphs := make([]string, 0, len(parts))
	for _, para := range parts {
		para = strings.TrimSpace(para)
		if para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// ExtractMetadata maps the engine's info dictionary onto PDFMetadata. Empty values are absent.
func (s *ExtractionService) ExtractMetadata(handle domain.DocumentHandle) domain.PDFMetadata {
	info := handle.Info()

	meta := domain.PDFMetadata{
		Title:       optionalString(info["title"]),
		Author:      optionalString(info["author"]),
		Subject:     optionalString(info["subject"]),
		Creator:     optionalString(info["creator"]),
		Producer:    optionalString(info["producer"]),
		Keywords:    splitKeywords(info["keywords"]),
		PageCount:   handle.PageCount(),
		FileVersion: fileVersion(info["format"]),
	}

	if t, ok := ParsePDFDate(info["creationDate"]); ok {
		meta.CreationDate = &t
	}
	if t, ok := ParsePDFDate(info["modDate"]); ok {
		meta.ModificationDate = &t
	}
	return meta
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func splitKeywords(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, k := range strings.Split(v, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// fileVersion turns the engine's format label ("PDF 1.7") into the stored version string.
func fileVersion(format string) string {
	format = strings.TrimSpace(format)
	if format == "" {
		return defaultFileVersion
	}
	if strings.HasPrefix(format, "PDF") {
		return format
	}
	return "PDF " + format
}

// ParsePDFDate parses a PDF date string of the form D:YYYYMMDDHHmmSSOHH'mm'. Every part
// after the year is optional. Malformed input reports false.
func ParsePDFDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "D:")
	if len(s) < 4 {
		return time.Time{}, false
	}

	fields := []int{0, 1, 1, 0, 0, 0} // year, month, day, hour, minute, second
	widths := []int{4, 2, 2, 2, 2, 2}
	pos := 0
	for i, w := range widths {
		if pos >= len(s) || !isDigit(s[pos]) {
			if i == 0 {
				return time.Time{}, false
			}
			break
		}
		if pos+w > len(s) {
			return time.Time{}, false
		}
		v, ok := atoiDigits(s[pos : pos+w])
		if !ok {
			return time.Time{}, false
		}
		fields[i] = v
		pos += w
	}

	loc := time.UTC
	if pos < len(s) {
		switch s[pos] {
		case 'Z':
		case '+', '-':
			tz := strings.ReplaceAll(s[pos+1:], "'", "")
			if len(tz) < 2 {
				return time.Time{}, false
			}
			hh, ok := atoiDigits(tz[:2])
			if !ok {
				return time.Time{}, false
			}
			mm := 0
			if len(tz) >= 4 {
				if mm, ok = atoiDigits(tz[2:4]); !ok {
					return time.Time{}, false
				}
			}
			offset := hh*3600 + mm*60
			if s[pos] == '-' {
				offset = -offset
			}
			loc = time.FixedZone("", offset)
		default:
			return time.Time{}, false
		}
	}

	month, day, hour, minute, second := fields[1], fields[2], fields[3], fields[4], fields[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(fields[0], time.Month(month), day, hour, minute, second, 0, loc), true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func atoiDigits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// GenerateThumbnail renders page 1 at targetWidth pixels wide and returns it as a JPEG data
// URL. Every failure is logged and replaced with a placeholder.
func (s *ExtractionService) GenerateThumbnail(ctx context.Context, handle domain.DocumentHandle, targetWidth int) string {
	if targetWidth <= 0 {
		targetWidth = 200
	}

	thumb, err := s.renderThumbnail(ctx, handle, targetWidth)
	if err != nil {
		s.logger.Warn("Thumbnail generation failed; using placeholder",
			"error", apperrors.NewThumbnailError("failed to generate thumbnail", err))
		return PlaceholderThumbnail(targetWidth)
	}
	return thumb
}

func (s *ExtractionService) renderThumbnail(ctx context.Context, handle domain.DocumentHandle, targetWidth int) (string, error) {
	if handle.PageCount() < 1 {
		return "", fmt.Errorf("document has no pages")
	}
	page, err := handle.Page(ctx, 1)
	if err != nil {
		return "", err
	}
	size := page.Size()
	if size.Width <= 0 {
		return "", fmt.Errorf("page 1 has no width")
	}

	img, err := page.RenderRaster(ctx, float64(targetWidth)/size.Width)
	if err != nil {
		return "", err
	}
	img = resizeToWidth(img, targetWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// resizeToWidth scales img to exactly width pixels wide, keeping the aspect ratio. The
// engine rounds DPI-based rasters, so the result can be off by a pixel or two.
func resizeToWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() == width || b.Dx() == 0 {
		return img
	}
	height := int(float64(b.Dy())*float64(width)/float64(b.Dx()) + 0.5)
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// PlaceholderThumbnail is the fixed SVG used when a real thumbnail cannot be produced.
func PlaceholderThumbnail(width int) string {
	height := width * 13 / 10
	svg := fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+
		`<rect width="%d" height="%d" fill="#eee"/>`+
		`<text x="50%%" y="50%%" font-family="Arial" font-size="18" fill="#999" text-anchor="middle">PDF</text>`+
		`</svg>`, width, height, width, height)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
