package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pdf-reader/pkg/errors"
)

func TestBuildExtractedPage(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		wantText  string
		wantWords int
		wantChars int
	}{
		{"Joins and collapses", []string{"Hello", "  wide\tworld ", "\n again"}, "Hello wide world again", 4, 22},
		{"Empty page", nil, "", 0, 0},
		{"Whitespace only", []string{"   ", "\n\n"}, "", 0, 0},
		{"Counts runes", []string{"café", "naïve"}, "café naïve", 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := BuildExtractedPage(3, tt.items)
			assert.Equal(t, 3, page.PageNumber)
			assert.Equal(t, tt.wantText, page.RawText)
			assert.Equal(t, tt.wantText, page.Markdown)
			assert.Equal(t, tt.wantWords, page.WordCount)
			assert.Equal(t, tt.wantChars, page.CharacterCount)
		})
	}
}

func TestReflowParagraphs(t *testing.T) {
	assert.Equal(t, "first\n\nsecond", reflowParagraphs("  first \n\n\n\n second  \n\n"))
	assert.Equal(t, "", reflowParagraphs("\n\n  \n\n"))
	assert.Equal(t, "one line", reflowParagraphs("one line"))
}

func TestExtractAllPages_PageOrder(t *testing.T) {
	pages := make([]*MockPage, 25)
	for i := range pages {
		pages[i] = &MockPage{Items: []string{fmt.Sprintf("page %d", i+1)}, Width: 100, Height: 100}
	}
	svc := NewExtractionService(&MockLogger{}, 4, 80)

	out, err := svc.ExtractAllPages(context.Background(), &MockDocument{Pages: pages})
	require.NoError(t, err)
	require.Len(t, out, 25)
	for i, p := range out {
		assert.Equal(t, i+1, p.PageNumber)
		assert.Equal(t, fmt.Sprintf("page %d", i+1), p.RawText)
	}
}

func TestExtractAllPages_FailureAbortsWholeExtraction(t *testing.T) {
	pages := textPages(5)
	pages[3].TextErr = errors.New("glyph table broken")
	svc := NewExtractionService(&MockLogger{}, 2, 80)

	out, err := svc.ExtractAllPages(context.Background(), &MockDocument{Pages: pages})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExtraction))
}

func TestExtractAllPages_EmptyDocument(t *testing.T) {
	svc := NewExtractionService(&MockLogger{}, 2, 80)
	out, err := svc.ExtractAllPages(context.Background(), &MockDocument{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExtractMetadata(t *testing.T) {
	svc := NewExtractionService(&MockLogger{}, 1, 80)
	doc := &MockDocument{
		Pages: textPages(2),
		Meta: map[string]string{
			"format":       "PDF 1.7",
			"title":        "Atlas",
			"author":       "  ",
			"keywords":     "maps, birds ,, travel",
			"producer":     "TeX",
			"creationDate": "D:20230415103000+02'00'",
			"modDate":      "garbage",
		},
	}

	meta := svc.ExtractMetadata(doc)
	require.NotNil(t, meta.Title)
	assert.Equal(t, "Atlas", *meta.Title)
	assert.Nil(t, meta.Author)
	assert.Nil(t, meta.Subject)
	assert.Equal(t, "TeX", *meta.Producer)
	assert.Equal(t, []string{"maps", "birds", "travel"}, meta.Keywords)
	assert.Equal(t, 2, meta.PageCount)
	assert.Equal(t, "PDF 1.7", meta.FileVersion)
	require.NotNil(t, meta.CreationDate)
	assert.True(t, meta.CreationDate.Equal(time.Date(2023, 4, 15, 8, 30, 0, 0, time.UTC)))
	assert.Nil(t, meta.ModificationDate)
}

func TestExtractMetadata_DefaultVersion(t *testing.T) {
	svc := NewExtractionService(&MockLogger{}, 1, 80)
	meta := svc.ExtractMetadata(&MockDocument{})
	assert.Equal(t, "PDF 1.0", meta.FileVersion)
	assert.Nil(t, meta.Keywords)
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"D:20240102030405Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"D:2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"20240102", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"D:20240102030405-05'30'", time.Date(2024, 1, 2, 8, 34, 5, 0, time.UTC), true},
		{"D:202401020304", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), true},
		{"D:20241302", time.Time{}, false},
		{"D:20240", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePDFDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateThumbnail_ResizesToTargetWidth(t *testing.T) {
	svc := NewExtractionService(&MockLogger{}, 1, 80)
	doc := &MockDocument{Pages: textPages(3)}

	thumb := svc.GenerateThumbnail(context.Background(), doc, 200)
	require.True(t, strings.HasPrefix(thumb, "data:image/jpeg;base64,"), thumb[:30])

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(thumb, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestGenerateThumbnail_FailureUsesPlaceholder(t *testing.T) {
	logger := &MockLogger{}
	svc := NewExtractionService(logger, 1, 80)

	pages := textPages(1)
	pages[0].RenderErr = errors.New("raster failed")
	thumb := svc.GenerateThumbnail(context.Background(), &MockDocument{Pages: pages}, 200)
	assert.Equal(t, PlaceholderThumbnail(200), thumb)
	assert.Equal(t, int32(1), logger.warns.Load())

	// no pages at all
	assert.Equal(t, PlaceholderThumbnail(200), svc.GenerateThumbnail(context.Background(), &MockDocument{}, 200))
}

func TestPlaceholderThumbnail_Deterministic(t *testing.T) {
	a := PlaceholderThumbnail(200)
	assert.Equal(t, a, PlaceholderThumbnail(200))
	assert.True(t, strings.HasPrefix(a, "data:image/svg+xml;base64,"))

	svg, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(a, "data:image/svg+xml;base64,"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), `width="200" height="260"`)
}

func TestExtract_ThumbnailFailureDoesNotFail(t *testing.T) {
	svc := NewExtractionService(&MockLogger{}, 2, 80)
	pages := textPages(2)
	pages[0].RenderErr = errors.New("raster failed")

	ex, err := svc.Extract(context.Background(), &MockDocument{Pages: pages, Meta: map[string]string{"format": "PDF 1.4"}}, 120)
	require.NoError(t, err)
	assert.Len(t, ex.Pages, 2)
	assert.Equal(t, "PDF 1.4", ex.Metadata.FileVersion)
	assert.Equal(t, PlaceholderThumbnail(120), ex.Thumbnail)
}
