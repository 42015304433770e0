package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRouter_Health(t *testing.T) {
	s := newTestServer(t, 0)

	rr := s.do(t, http.MethodGet, "/health", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents/abc", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/documents/abc", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS grant for unknown origin, got %q", got)
	}
}

func TestNewRouter_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, 0)

	rr := s.do(t, http.MethodPut, "/api/v1/documents", nil, "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}
