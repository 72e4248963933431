package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stellarlinkco/gaia-fetch/internal/gaia"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestFetch_MissingCredential(t *testing.T) {
	t.Setenv(gaia.DefaultTokenEnv, "")
	t.Setenv(gaia.FallbackTokenEnv, "")

	cfgPath := writeTestConfig(t, "{}")

	root := newRootCmd()
	root.SetArgs([]string{"fetch", "--config", cfgPath})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	var credErr *gaia.MissingCredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("error: got %v want *MissingCredentialError", err)
	}
}

func TestFetch_UnknownStrategy(t *testing.T) {
	t.Setenv(gaia.DefaultTokenEnv, "tok")

	cfgPath := writeTestConfig(t, "{}")

	root := newRootCmd()
	root.SetArgs([]string{"fetch", "--config", cfgPath, "--strategy", "carrier-pigeon"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	if err == nil || !bytes.Contains([]byte(err.Error()), []byte("unknown strategy")) {
		t.Fatalf("error: got %v", err)
	}
}

func TestFetch_DirectEndToEnd(t *testing.T) {
	t.Setenv(gaia.DefaultTokenEnv, "tok")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/validation.jsonl":
			fmt.Fprintln(w, `{"task_id":"t1","Question":"Q1","Level":"2","Final answer":"42"}`)
			fmt.Fprintln(w, `{"task_id":"t2","Question":"Q2"}`)
		default:
			http.Error(w, "Entry not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	outDir := filepath.Join(t.TempDir(), "output")
	cfgPath := writeTestConfig(t, fmt.Sprintf(`
dataset:
  base_url: %q
output:
  dir: %q
storage:
  type: memory
`, srv.URL, outDir))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"fetch", "--config", cfgPath})
	root.SetOut(&out)
	root.SetErr(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(outDir, "validation.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var recs []map[string]any
	if err := json.Unmarshal(b, &recs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d want %d", len(recs), 2)
	}
	if recs[0]["Level"] != float64(2) || recs[0]["Final answer"] != "42" {
		t.Fatalf("record: got %v", recs[0])
	}

	// The default test split 404s; the run must still succeed.
	if _, err := os.Stat(filepath.Join(outDir, "test.json")); !os.IsNotExist(err) {
		t.Fatalf("test.json: expected absent, stat err %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "metadata.json")); err != nil {
		t.Fatalf("metadata.json: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("Download complete!")) {
		t.Fatalf("output: missing completion message: %q", out.String())
	}
}
