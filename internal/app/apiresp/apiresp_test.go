package apiresp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, http.StatusNotFound, "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var env Envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.OK || env.Error == nil || env.Error.Code != "not_found" || env.Error.Message != "Not Found" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAttachment(w, "text/csv", "AB.csv", []byte("a,b"))

	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename=AB.csv" {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("unexpected content type %q", got)
	}
	if w.Body.String() != "a,b" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}
