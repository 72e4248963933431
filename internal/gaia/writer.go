package gaia

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MetadataFile is the name of the run descriptor in the output directory.
const MetadataFile = "metadata.json"

// Metadata describes one fetch run. Splits and TotalItems are present only
// when the source could enumerate the dataset's splits.
type Metadata struct {
	Dataset    string   `json:"dataset"`
	Config     string   `json:"config"`
	Method     string   `json:"download_method"`
	Splits     []string `json:"splits,omitempty"`
	TotalItems int      `json:"total_items,omitempty"`
}

// Writer persists normalized splits as pretty-printed JSON files in a
// single output directory. Existing files are overwritten.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: strings.TrimSpace(dir)}
}

// WriteSplit writes the records of one split to <split>.json and returns
// the file path. A nil record slice still produces an empty JSON array.
func (w *Writer) WriteSplit(split string, records []Record) (string, error) {
	split = strings.TrimSpace(split)
	if split == "" {
		return "", errors.New("gaia: empty split name")
	}
	if records == nil {
		records = []Record{}
	}
	return w.writeJSON(split+".json", records)
}

// WriteMetadata writes the run descriptor.
func (w *Writer) WriteMetadata(md *Metadata) (string, error) {
	if md == nil {
		return "", errors.New("gaia: nil metadata")
	}
	return w.writeJSON(MetadataFile, md)
}

func (w *Writer) writeJSON(name string, v any) (string, error) {
	if w == nil || strings.TrimSpace(w.Dir) == "" {
		return "", errors.New("gaia: empty output dir")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("gaia: create output dir: %w", err)
	}

	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("gaia: create %q: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("gaia: write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("gaia: close %q: %w", path, err)
	}
	return path, nil
}
