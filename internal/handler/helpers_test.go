package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"pdf-reader/internal/domain"
	"pdf-reader/internal/repository"
	"pdf-reader/internal/service"
)

// MockHandlerLogger discards everything.
type MockHandlerLogger struct{}

func NewMockHandlerLogger() domain.Logger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})             {}
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})             {}

// fakeRenderer decodes payloads of the form "pdf:N" into N-page documents.
type fakeRenderer struct{}

func (fakeRenderer) Load(_ context.Context, payload []byte) (domain.DocumentHandle, error) {
	raw, ok := strings.CutPrefix(string(payload), "pdf:")
	if !ok {
		return nil, errors.New("not a PDF")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return fakeDocument{pages: n}, nil
}

type fakeDocument struct{ pages int }

func (d fakeDocument) PageCount() int { return d.pages }

func (d fakeDocument) Page(_ context.Context, n int) (domain.PageHandle, error) {
	if n < 1 || n > d.pages {
		return nil, domain.ErrPageOutOfRange
	}
	return fakePage{n: n}, nil
}

func (d fakeDocument) Info() map[string]string { return map[string]string{"format": "PDF 1.7"} }
func (d fakeDocument) Close() error            { return nil }

type fakePage struct{ n int }

func (p fakePage) Number() int           { return p.n }
func (p fakePage) Size() domain.PageSize { return domain.PageSize{Width: 100, Height: 150} }
func (p fakePage) TextItems(context.Context) ([]string, error) {
	return []string{"text", "of", fmt.Sprintf("page-%d", p.n)}, nil
}

func (p fakePage) RenderRaster(_ context.Context, scale float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, int(100*scale), int(150*scale))), nil
}

type testServer struct {
	handler  http.Handler
	store    domain.Store
	sessions *service.SessionManager
	writer   *service.ProgressWriter
}

func newTestServer(t *testing.T, maxFileSize int64) *testServer {
	t.Helper()
	logger := NewMockHandlerLogger()
	store := repository.NewMemoryStore()
	renderer := fakeRenderer{}
	extraction := service.NewExtractionService(logger, 2, 80)
	ingestion := service.NewIngestionService(store, renderer, extraction, logger, service.IngestionOptions{MaxFileSize: maxFileSize})
	writer := service.NewProgressWriter(store, logger)
	sessions := service.NewSessionManager(store, renderer, writer, logger)
	t.Cleanup(func() {
		_ = sessions.CloseAll(context.Background())
		_ = writer.Close(context.Background())
	})

	h := NewRouter(Handlers{
		Documents:   NewDocumentHandler(service.NewDocumentService(store, logger), ingestion, sessions, maxFileSize, logger),
		Sessions:    NewSessionHandler(sessions, logger),
		Highlights:  NewHighlightHandler(service.NewHighlightService(store, logger), logger),
		Preferences: NewPreferenceHandler(service.NewSettingsService(logger), logger),
	}, []string{"http://localhost:5173"}, logger)

	return &testServer{handler: h, store: store, sessions: sessions, writer: writer}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:40000"
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) doJSON(t *testing.T, method, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, body, "application/json")
}

// upload posts payload as a multipart file with the given part content type.
func (s *testServer) upload(t *testing.T, path, fileName, contentType string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return s.do(t, http.MethodPost, path, &buf, mw.FormDataContentType())
}

// ingest uploads an n-page document and returns its id.
func (s *testServer) ingest(t *testing.T, pages int) string {
	t.Helper()
	rr := s.upload(t, "/api/v1/documents", "book.pdf", "application/pdf", []byte(fmt.Sprintf("pdf:%d", pages)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var res domain.IngestResult
	decodeBody(t, rr, &res)
	return res.DocumentID
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}
