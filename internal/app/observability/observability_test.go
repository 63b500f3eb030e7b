package observability

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"surveyadmin/internal/auth"
)

func TestNormalizedPath(t *testing.T) {
	got := normalizedPath("/api/v1/admin/surveys/123/responses/9")
	want := "/api/v1/admin/surveys/{id}/responses/{id}"
	if got != want {
		t.Fatalf("normalizedPath mismatch got=%s want=%s", got, want)
	}
	if normalizedPath("") != "/" {
		t.Fatalf("empty path should normalize to /")
	}
}

func TestMiddlewareAndExportMetrics(t *testing.T) {
	c := NewCollector(nil)
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/admin/surveys/7", nil))

	c.ObserveExport("csv", true, 2048, 15*time.Millisecond)
	c.ObserveExport("csv", false, 0, time.Millisecond)

	w := httptest.NewRecorder()
	c.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`surveyadmin_http_requests_total{method="GET",path="/api/v1/admin/surveys/{id}",status="418"} 1`,
		`surveyadmin_survey_exports_total{format="csv",outcome="success"} 1`,
		`surveyadmin_survey_exports_total{format="csv",outcome="error"} 1`,
		`surveyadmin_survey_export_size_bytes_count{format="csv"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestMiddlewareLogsUserResolvedDownstream(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})

	c := NewCollector(nil)
	// stands in for auth.RequireAuth, which hands a derived request to the next handler
	requireAuth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), &auth.User{ID: 42, Role: auth.RoleAdmin})))
		})
	}
	h := c.Middleware(requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

	var entry struct {
		UserID int64 `json:"user_id"`
		Status int   `json:"status"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", logs.String(), err)
	}
	if entry.UserID != 42 || entry.Status != http.StatusNoContent {
		t.Fatalf("unexpected log entry %+v", entry)
	}
}
