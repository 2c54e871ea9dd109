package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newProxyRouter(upstreamURL string) http.Handler {
	r := chi.NewRouter()
	NewHandler(upstreamURL, 5*time.Second).RegisterRoutes(r)
	return r
}

func TestForward_ReturnsUpstreamBodyVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected upstream GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("text"); got != "hello world" {
			t.Errorf("Expected decoded text %q, got %q", "hello world", got)
		}
		_, _ = w.Write([]byte(`{"response":"hey","extra":42}`))
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader(`{"text":"hello world"}`))
	newProxyRouter(upstream.URL).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"response":"hey","extra":42}` {
		t.Errorf("Expected verbatim upstream body, got %q", got)
	}
}

func TestForward_PercentEncodesPrompt(t *testing.T) {
	var rawQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader(`{"text":"a&b=c?"}`))
	newProxyRouter(upstream.URL).ServeHTTP(w, req)

	if strings.Contains(rawQuery, "a&b") {
		t.Errorf("Expected prompt to be percent-encoded, got query %q", rawQuery)
	}
}

func TestForward_UpstreamFailureYields500ErrorObject(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader(`{"text":"hi"}`))
	newProxyRouter(upstream.URL).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Expected JSON error body: %v", err)
	}
	if body["error"] == "" {
		t.Error("Expected error field in response")
	}
}

func TestForward_UnreachableUpstreamYields500(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	upstream.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader(`{"text":"hi"}`))
	newProxyRouter(upstream.URL).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestForward_RejectsInvalidBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader(`not json`))
	newProxyRouter("http://127.0.0.1:0").ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
