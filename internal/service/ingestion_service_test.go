package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"
)

type stubValidator struct{ err error }

func (v stubValidator) Validate(context.Context, []byte) error { return v.err }

func newTestIngestion(store domain.DocumentStore, renderer domain.Renderer, opts IngestionOptions) *IngestionService {
	svc := NewIngestionService(store, renderer, NewExtractionService(&MockLogger{}, 2, 80), &MockLogger{}, opts)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func pdfUpload(payload string) *domain.Upload {
	return &domain.Upload{
		FileName: "a.pdf",
		MimeType: domain.PDFMimeType,
		Size:     int64(len(payload)),
		Payload:  []byte(payload),
	}
}

func TestIngest_ThreePageDocument(t *testing.T) {
	store := NewFailingStore()
	renderer := NewMockRenderer()
	mock := &MockDocument{Pages: textPages(3), Meta: map[string]string{"format": "PDF 1.5"}}
	renderer.Add("three", mock)
	svc := newTestIngestion(store, renderer, IngestionOptions{})

	res, err := svc.Ingest(context.Background(), pdfUpload("three"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.PageCount)
	assert.NotEmpty(t, res.DocumentID)
	assert.True(t, mock.closed.Load(), "handle should be released")

	doc, err := store.GetDocument(context.Background(), res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", doc.FileName)
	assert.Equal(t, 0, doc.CurrentPage)
	assert.Equal(t, 0, doc.ReadingProgress)
	assert.Equal(t, 3, doc.Metadata.PageCount)
	assert.Equal(t, "PDF 1.5", doc.Metadata.FileVersion)
	assert.Equal(t, []byte("three"), doc.Payload)
	assert.Equal(t, doc.UploadDate, doc.LastRead)
	require.Len(t, doc.Pages, 3)
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.PageNumber)
		assert.Equal(t, "Page text", p.RawText)
	}
	assert.True(t, strings.HasPrefix(doc.Thumbnail, "data:image/"))
}

func TestIngest_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		upload   *domain.Upload
		wantErr  error
		wantCode int
	}{
		{
			name:     "Text file",
			upload:   &domain.Upload{FileName: "notes.txt", MimeType: "text/plain", Size: 10, Payload: []byte("three")},
			wantErr:  domain.ErrUnsupportedType,
			wantCode: http.StatusUnsupportedMediaType,
		},
		{
			name:     "Declared size over limit",
			upload:   &domain.Upload{FileName: "big.pdf", MimeType: domain.PDFMimeType, Size: 60 * 1024 * 1024, Payload: []byte("three")},
			wantErr:  domain.ErrFileTooLarge,
			wantCode: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "No upload",
			upload:   nil,
			wantErr:  domain.ErrInvalidFile,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewFailingStore()
			renderer := NewMockRenderer()
			renderer.Add("three", &MockDocument{Pages: textPages(3)})
			svc := newTestIngestion(store, renderer, IngestionOptions{})

			res, err := svc.Ingest(context.Background(), tt.upload)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, apperrors.GetStatusCode(err))
			assert.Equal(t, 0, renderer.Loads(), "rejected uploads are never decoded")

			docs, err := store.GetAllDocuments(context.Background())
			require.NoError(t, err)
			assert.Empty(t, docs)
		})
	}
}

func TestIngest_ActualSizeOverLimit(t *testing.T) {
	svc := newTestIngestion(NewFailingStore(), NewMockRenderer(), IngestionOptions{MaxFileSize: 4})

	_, err := svc.Ingest(context.Background(), &domain.Upload{FileName: "a.pdf", MimeType: domain.PDFMimeType, Size: 1, Payload: []byte("three")})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestIngest_FailuresLeaveNoRecord(t *testing.T) {
	broken := textPages(3)
	broken[1].TextErr = errors.New("bad content stream")

	tests := []struct {
		name      string
		payload   string
		validator StructureValidator
		wantType  apperrors.ErrorType
	}{
		{"Undecodable payload", "garbage", nil, apperrors.ErrorTypeDecode},
		{"Structural check fails", "three", stubValidator{err: errors.New("xref broken")}, apperrors.ErrorTypeDecode},
		{"Page extraction fails", "broken", nil, apperrors.ErrorTypeExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewFailingStore()
			renderer := NewMockRenderer()
			renderer.Add("three", &MockDocument{Pages: textPages(3)})
			renderer.Add("broken", &MockDocument{Pages: broken})
			svc := newTestIngestion(store, renderer, IngestionOptions{Validator: tt.validator})

			_, err := svc.Ingest(context.Background(), pdfUpload(tt.payload))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)

			docs, err := store.GetAllDocuments(context.Background())
			require.NoError(t, err)
			assert.Empty(t, docs)
		})
	}
}

func TestIngest_StoreFailure(t *testing.T) {
	store := NewFailingStore()
	store.failSave = errors.New("disk full")
	renderer := NewMockRenderer()
	renderer.Add("three", &MockDocument{Pages: textPages(3)})
	svc := newTestIngestion(store, renderer, IngestionOptions{})

	_, err := svc.Ingest(context.Background(), pdfUpload("three"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStore))
}

func TestIngest_PassingValidator(t *testing.T) {
	renderer := NewMockRenderer()
	renderer.Add("three", &MockDocument{Pages: textPages(3)})
	svc := newTestIngestion(NewFailingStore(), renderer, IngestionOptions{Validator: stubValidator{}})

	res, err := svc.Ingest(context.Background(), pdfUpload("three"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.PageCount)
}

func TestReingest_KeepsStateAndClampsPage(t *testing.T) {
	ctx := context.Background()
	store := NewFailingStore()
	renderer := NewMockRenderer()
	renderer.Add("five", &MockDocument{Pages: textPages(5)})
	renderer.Add("two", &MockDocument{Pages: textPages(2)})
	svc := newTestIngestion(store, renderer, IngestionOptions{})

	res, err := svc.Ingest(ctx, pdfUpload("five"))
	require.NoError(t, err)

	page, progress, fav := 4, 100, true
	tags := []string{"keep"}
	require.NoError(t, store.UpdateDocument(ctx, res.DocumentID, domain.DocumentUpdate{
		CurrentPage: &page, ReadingProgress: &progress, IsFavorite: &fav, Tags: &tags,
	}))

	out, err := svc.Reingest(ctx, res.DocumentID, pdfUpload("two"))
	require.NoError(t, err)
	assert.Equal(t, res.DocumentID, out.DocumentID)
	assert.Equal(t, 2, out.PageCount)

	doc, err := store.GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.CurrentPage)
	assert.Equal(t, 100, doc.ReadingProgress)
	assert.Len(t, doc.Pages, 2)
	assert.True(t, doc.IsFavorite)
	assert.Equal(t, []string{"keep"}, doc.Tags)
	assert.Equal(t, []byte("two"), doc.Payload)
}

func TestReingest_MissingDocument(t *testing.T) {
	renderer := NewMockRenderer()
	renderer.Add("two", &MockDocument{Pages: textPages(2)})
	svc := newTestIngestion(NewFailingStore(), renderer, IngestionOptions{})

	_, err := svc.Reingest(context.Background(), "nope", pdfUpload("two"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestReingest_KeepsEditsMadeDuringExtraction(t *testing.T) {
	ctx := context.Background()
	store := NewFailingStore()
	renderer := NewMockRenderer()
	renderer.Add("one", &MockDocument{Pages: textPages(1)})
	slow := textPages(2)
	slow[0].Block = make(chan struct{})
	slow[0].Started = make(chan struct{})
	renderer.Add("slow", &MockDocument{Pages: slow})
	svc := newTestIngestion(store, renderer, IngestionOptions{})

	res, err := svc.Ingest(ctx, pdfUpload("one"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Reingest(ctx, res.DocumentID, pdfUpload("slow"))
		done <- err
	}()

	<-slow[0].Started
	fav := true
	tags := []string{"edited"}
	require.NoError(t, store.UpdateDocument(ctx, res.DocumentID, domain.DocumentUpdate{IsFavorite: &fav, Tags: &tags}))
	close(slow[0].Block)
	require.NoError(t, <-done)

	doc, err := store.GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.True(t, doc.IsFavorite)
	assert.Equal(t, []string{"edited"}, doc.Tags)
	assert.Len(t, doc.Pages, 2)
}

func TestReingest_DocumentDeletedDuringExtraction(t *testing.T) {
	ctx := context.Background()
	store := NewFailingStore()
	renderer := NewMockRenderer()
	renderer.Add("one", &MockDocument{Pages: textPages(1)})
	slow := textPages(1)
	slow[0].Block = make(chan struct{})
	slow[0].Started = make(chan struct{})
	renderer.Add("slow", &MockDocument{Pages: slow})
	svc := newTestIngestion(store, renderer, IngestionOptions{})

	res, err := svc.Ingest(ctx, pdfUpload("one"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Reingest(ctx, res.DocumentID, pdfUpload("slow"))
		done <- err
	}()

	<-slow[0].Started
	require.NoError(t, store.DeleteDocument(ctx, res.DocumentID))
	close(slow[0].Block)

	err = <-done
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound), "got %v", err)
	_, err = store.GetDocument(ctx, res.DocumentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
