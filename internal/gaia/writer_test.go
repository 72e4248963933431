package gaia

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func strPtrRecord(taskID, question string) Record {
	return Record{TaskID: taskID, Question: question}
}

func TestWriter_WriteSplit(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	records := []Record{
		{TaskID: "t1", Question: "Q1", Level: 2, FinalAnswer: "42"},
		{TaskID: "t2", Question: "Q2"},
	}

	path, err := w.WriteSplit("validation", records)
	if err != nil {
		t.Fatalf("WriteSplit: %v", err)
	}
	if path != filepath.Join(dir, "validation.json") {
		t.Fatalf("path: got %q", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	want := `[
  {
    "task_id": "t1",
    "Question": "Q1",
    "Level": 2,
    "Final answer": "42"
  },
  {
    "task_id": "t2",
    "Question": "Q2",
    "Level": 0
  }
]
`
	if string(b) != want {
		t.Fatalf("content:\ngot:\n%s\nwant:\n%s", b, want)
	}
}

func TestWriter_NonASCIIPreserved(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	records := []Record{
		{TaskID: "t1", Question: "Où est la Tour Eiffel? éèê 東京"},
	}
	path, err := w.WriteSplit("validation", records)
	if err != nil {
		t.Fatalf("WriteSplit: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "Où est la Tour Eiffel") || !strings.Contains(string(b), "東京") {
		t.Fatalf("content: non-ASCII escaped:\n%s", b)
	}
	if strings.Contains(string(b), `\u`) {
		t.Fatalf("content: found unicode escapes:\n%s", b)
	}
}

func TestWriter_OverwriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	records := []Record{strPtrRecord("t1", "Q1")}

	path, err := w.WriteSplit("test", records)
	if err != nil {
		t.Fatalf("WriteSplit: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if _, err := w.WriteSplit("test", records); err != nil {
		t.Fatalf("WriteSplit again: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("content changed between identical runs")
	}
}

func TestWriter_NilRecordsWriteEmptyArray(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.WriteSplit("empty", nil)
	if err != nil {
		t.Fatalf("WriteSplit: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(b)) != "[]" {
		t.Fatalf("content: got %q want empty array", b)
	}
}

func TestWriter_WriteMetadata(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.WriteMetadata(&Metadata{
		Dataset: "gaia-benchmark/GAIA",
		Config:  "2023",
		Method:  "direct",
	})
	if err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
	if filepath.Base(path) != MetadataFile {
		t.Fatalf("path: got %q", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := string(b)
	if !strings.Contains(got, `"download_method": "direct"`) {
		t.Fatalf("metadata: missing method in %s", got)
	}
	if strings.Contains(got, "splits") || strings.Contains(got, "total_items") {
		t.Fatalf("metadata: optional fields present when empty: %s", got)
	}
}

func TestWriter_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	w := NewWriter(dir)

	if _, err := w.WriteSplit("validation", nil); err != nil {
		t.Fatalf("WriteSplit: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("Stat: %v", err)
	}
}

func TestWriter_EmptyDirRejected(t *testing.T) {
	w := NewWriter("  ")
	if _, err := w.WriteSplit("validation", nil); err == nil {
		t.Fatalf("WriteSplit: expected error")
	}
}
