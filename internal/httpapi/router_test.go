package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestStatusRecorderWriteTracksAndTruncates(t *testing.T) {
	base := httptest.NewRecorder()
	recorder := &statusRecorder{
		ResponseWriter: base,
		statusCode:     http.StatusOK,
		maxLogBytes:    10,
	}

	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	written, err := recorder.Write(payload)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if written != len(payload) {
		t.Fatalf("written bytes = %d, want %d", written, len(payload))
	}
	if recorder.bytesWritten != len(payload) {
		t.Fatalf("bytesWritten = %d, want %d", recorder.bytesWritten, len(payload))
	}
	if recorder.logBody.Len() != 10 {
		t.Fatalf("log body length = %d, want 10", recorder.logBody.Len())
	}
	if !recorder.truncated {
		t.Fatalf("expected truncated flag to be true")
	}
}

func TestStatusRecorderHijackUnsupported(t *testing.T) {
	recorder := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	if _, _, err := recorder.Hijack(); err == nil {
		t.Fatalf("expected hijack error for a recorder without hijack support")
	}
}

func TestRouterPreflight(t *testing.T) {
	router := NewRouter(RouterConfig{Catalog: newTestCatalog(), AllowedOrigin: "http://localhost:3000"})

	rec := serve(t, router, http.MethodOptions, "/api/quizzes")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
		t.Fatalf("allow methods = %q", got)
	}
}

func TestRouterDefaultOriginIsWildcard(t *testing.T) {
	router := NewRouter(RouterConfig{Catalog: newTestCatalog()})

	rec := serve(t, router, http.MethodGet, "/api/quizzes")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
}

func TestRouterUnknownPathAndMethod(t *testing.T) {
	router := NewRouter(RouterConfig{Catalog: newTestCatalog()})

	if rec := serve(t, router, http.MethodGet, "/api/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec := serve(t, router, http.MethodPost, "/api/quizzes")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodGet {
		t.Fatalf("Allow = %q, want GET", got)
	}
}

func TestRouterServesImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "eiffel.jpeg"), []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	router := NewRouter(RouterConfig{Catalog: newTestCatalog(), ImagesDir: dir})

	rec := serve(t, router, http.MethodGet, "/images/eiffel.jpeg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "jpeg-bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	if rec := serve(t, router, http.MethodGet, "/images/missing.jpeg"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing image status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRouterPlayRouteMounted(t *testing.T) {
	var gotPath string
	play := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(RouterConfig{Catalog: newTestCatalog(), Play: play})

	rec := serve(t, router, http.MethodGet, "/api/play/landmarks")
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if gotPath != "/api/play/landmarks" {
		t.Fatalf("path = %q", gotPath)
	}
}
