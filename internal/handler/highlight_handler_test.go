package handler

import (
	"net/http"
	"testing"

	"pdf-reader/internal/domain"
)

func TestHighlightEndpoints(t *testing.T) {
	s := newTestServer(t, 0)
	id := s.ingest(t, 3)
	base := "/api/v1/documents/" + id

	rr := s.doJSON(t, http.MethodPost, base+"/highlights", map[string]interface{}{
		"page_number":   1,
		"selected_text": "a passage",
		"color":         "#ffeb3b",
		"category":      "important",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var h domain.Highlight
	decodeBody(t, rr, &h)
	if h.ID == "" || h.DocumentID != id || h.Text != "a passage" {
		t.Fatalf("unexpected highlight %+v", h)
	}

	rr = s.doJSON(t, http.MethodPost, base+"/highlights", map[string]interface{}{"page_number": 1})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("create without text: expected 400, got %d", rr.Code)
	}

	rr = s.doJSON(t, http.MethodPatch, "/api/v1/highlights/"+h.ID, map[string]string{"color": "#000000"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rr.Code)
	}

	var list []domain.Highlight
	decodeBody(t, s.do(t, http.MethodGet, base+"/highlights", nil, ""), &list)
	if len(list) != 1 || list[0].Color != "#000000" {
		t.Fatalf("unexpected list %+v", list)
	}

	rr = s.doJSON(t, http.MethodPost, base+"/annotations", map[string]interface{}{
		"page_number":  1,
		"content":      "remember this",
		"highlight_id": h.ID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create annotation: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var a domain.Annotation
	decodeBody(t, rr, &a)

	rr = s.doJSON(t, http.MethodPatch, "/api/v1/annotations/"+a.ID, map[string]interface{}{"tags": []string{"exam"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("update annotation: expected 200, got %d", rr.Code)
	}

	if rr := s.do(t, http.MethodDelete, "/api/v1/annotations/"+a.ID, nil, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete annotation: expected 204, got %d", rr.Code)
	}
	if rr := s.do(t, http.MethodDelete, "/api/v1/highlights/"+h.ID, nil, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete highlight: expected 204, got %d", rr.Code)
	}

	decodeBody(t, s.do(t, http.MethodGet, base+"/highlights", nil, ""), &list)
	if len(list) != 0 {
		t.Fatalf("expected no highlights, got %d", len(list))
	}
}

func TestHighlightEndpoints_UnknownDocument(t *testing.T) {
	s := newTestServer(t, 0)
	rr := s.doJSON(t, http.MethodPost, "/api/v1/documents/missing/highlights", map[string]interface{}{"text": "x"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = s.doJSON(t, http.MethodPatch, "/api/v1/highlights/missing", map[string]string{"color": "red"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
