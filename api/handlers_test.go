package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/gaia-fetch/internal/config"
	"github.com/stellarlinkco/gaia-fetch/internal/history"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("GAIA_FETCH_DISABLE_AUTH", "true")

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = dir

	hist, err := history.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = hist.Close() })

	s, err := NewServer(cfg, hist)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, dir
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body: got %q", rec.Body.String())
	}
}

func TestHandleGetSplit(t *testing.T) {
	s, dir := newTestServer(t)

	content := `[{"task_id":"t1","Question":"Q1","Level":1}]`
	if err := os.WriteFile(filepath.Join(dir, "validation.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/splits/validation")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != content {
		t.Fatalf("body: got %q", rec.Body.String())
	}
}

func TestHandleGetSplit_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/splits/validation")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleGetSplit_RejectsBadNames(t *testing.T) {
	s, _ := newTestServer(t)

	for _, name := range []string{"..%2fetc", "a.b", "metadata"} {
		rec := doRequest(t, s, http.MethodGet, "/api/splits/"+name)
		if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
			t.Fatalf("name %q: got %d want 400 or 404", name, rec.Code)
		}
	}
}

func TestHandleListSplits(t *testing.T) {
	s, dir := newTestServer(t)

	for _, name := range []string{"test.json", "validation.json", "metadata.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/splits")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}

	var out []splitInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("splits: got %d want %d (metadata excluded)", len(out), 2)
	}
	if out[0].Name != "test" || out[1].Name != "validation" {
		t.Fatalf("splits: got %+v", out)
	}
}

func TestHandleGetMetadata(t *testing.T) {
	s, dir := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/metadata")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusNotFound)
	}

	md := `{"dataset":"gaia-benchmark/GAIA","config":"2023","download_method":"direct"}`
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(md), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/metadata")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != md {
		t.Fatalf("body: got %q", rec.Body.String())
	}
}

func TestHandleGetHistory(t *testing.T) {
	s, _ := newTestServer(t)

	entry := &history.Entry{
		Dataset: "gaia-benchmark/GAIA",
		Config:  "2023",
		Method:  "direct",
		Splits:  "validation,test",
		Records: 466,
	}
	if err := s.history.Save(context.Background(), entry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"records":466`) {
		t.Fatalf("body: got %q", rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/history?limit=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("GAIA_FETCH_API_KEY", "secret")
	t.Setenv("GAIA_FETCH_DISABLE_AUTH", "")

	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	s, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-API-Key", "secret")
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", out.Code, http.StatusOK)
	}
}

func TestNewServer_RequiresAuthConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("GAIA_FETCH_API_KEY", "")
	t.Setenv("GAIA_FETCH_DISABLE_AUTH", "")

	cfg := config.Default()
	if _, err := NewServer(cfg, nil); err == nil {
		t.Fatalf("NewServer: expected auth configuration error")
	}
}
