package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractIDFromPath(t *testing.T) {
	id, err := extractIDFromPath("/api/flash-sales/42", "/api/flash-sales/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}

	id, err = extractIDFromPath("/api/flash-sales/42/status", "/api/flash-sales/")
	if err != nil {
		t.Fatalf("expected no error for trailing segment, got %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}

	if _, err := extractIDFromPath("/wrong/path", "/api/flash-sales/"); err == nil {
		t.Fatalf("expected error for invalid path")
	}
	if _, err := extractIDFromPath("/api/flash-sales/abc", "/api/flash-sales/"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
	if _, err := extractIDFromPath("/api/flash-sales/0", "/api/flash-sales/"); err == nil {
		t.Fatalf("expected error for non-positive id")
	}
}

func TestExtractSegmentFromPath(t *testing.T) {
	seg, err := extractSegmentFromPath("/api/purchases/ORD-1001", "/api/purchases/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if seg != "ORD-1001" {
		t.Fatalf("unexpected segment: %s", seg)
	}

	if _, err := extractSegmentFromPath("/api/purchases/", "/api/purchases/"); err == nil {
		t.Fatalf("expected error for missing segment")
	}
}

func TestWriteJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSONResponse(rr, http.StatusOK, map[string]string{"ok": "true"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content-type: %s", ct)
	}
	if body := rr.Body.String(); body == "" {
		t.Fatalf("empty body")
	}
}
