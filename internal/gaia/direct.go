package gaia

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the resolved-file root of the GAIA dataset.
	DefaultBaseURL = "https://huggingface.co/datasets/gaia-benchmark/GAIA/resolve/main/2023"

	// LayoutFlat names splits as <split>.jsonl, LayoutNested as
	// <split>/metadata.jsonl. Both layouts exist upstream.
	LayoutFlat   = "flat"
	LayoutNested = "nested"

	maxErrorBody = 4096
)

// DirectSource fetches split files over raw HTTP and parses the
// newline-delimited JSON body line by line. Malformed lines are logged and
// skipped without failing the split.
type DirectSource struct {
	baseURL    string
	token      string
	layout     string
	httpClient *http.Client
	log        io.Writer
}

// DirectOption configures a DirectSource.
type DirectOption func(*DirectSource)

// WithDirectBaseURL overrides the dataset file root.
func WithDirectBaseURL(baseURL string) DirectOption {
	return func(s *DirectSource) {
		if s == nil {
			return
		}
		baseURL = strings.TrimSpace(baseURL)
		if baseURL == "" {
			return
		}
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithDirectLayout selects the split file layout (LayoutFlat or LayoutNested).
func WithDirectLayout(layout string) DirectOption {
	return func(s *DirectSource) {
		if s == nil {
			return
		}
		layout = strings.ToLower(strings.TrimSpace(layout))
		if layout == LayoutFlat || layout == LayoutNested {
			s.layout = layout
		}
	}
}

// WithDirectTimeout sets the HTTP client timeout.
func WithDirectTimeout(timeout time.Duration) DirectOption {
	return func(s *DirectSource) {
		if s == nil {
			return
		}
		if s.httpClient == nil {
			s.httpClient = &http.Client{}
		}
		s.httpClient.Timeout = timeout
	}
}

// WithDirectHTTPClient replaces the HTTP client.
func WithDirectHTTPClient(client *http.Client) DirectOption {
	return func(s *DirectSource) {
		if s == nil || client == nil {
			return
		}
		s.httpClient = client
	}
}

// WithDirectLog sets the writer for per-line parse warnings.
func WithDirectLog(w io.Writer) DirectOption {
	return func(s *DirectSource) {
		if s == nil || w == nil {
			return
		}
		s.log = w
	}
}

// NewDirectSource constructs the direct-transfer strategy with the given
// bearer token.
func NewDirectSource(token string, opts ...DirectOption) *DirectSource {
	s := &DirectSource{
		baseURL:    DefaultBaseURL,
		token:      strings.TrimSpace(token),
		layout:     LayoutFlat,
		httpClient: &http.Client{},
		log:        io.Discard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *DirectSource) Name() string { return "direct" }

func (s *DirectSource) splitPath(split string) string {
	if s.layout == LayoutNested {
		return split + "/metadata.jsonl"
	}
	return split + ".jsonl"
}

// FetchSplit downloads one split file and decodes its lines. A non-2xx
// status returns *HTTPError; callers treat 404 as "split not found".
func (s *DirectSource) FetchSplit(ctx context.Context, split string) (*SplitData, error) {
	if s == nil {
		return nil, errors.New("gaia: nil direct source")
	}
	if ctx == nil {
		return nil, errors.New("gaia: nil context")
	}
	if s.httpClient == nil {
		return nil, errors.New("gaia: nil http client")
	}
	split = strings.TrimSpace(split)
	if split == "" {
		return nil, errors.New("gaia: empty split name")
	}

	url := s.baseURL + "/" + s.splitPath(split)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gaia: build request for %q: %w", split, err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gaia: fetch split %q: %w", split, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	return s.decodeLines(ctx, split, resp.Body)
}

func (s *DirectSource) decodeLines(ctx context.Context, split string, r io.Reader) (*SplitData, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	out := &SplitData{Split: split}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return out, err
		}

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			out.SkippedLines++
			fmt.Fprintf(s.log, "warning: %s line %d: %v (content: %s)\n",
				split, lineNo, err, truncatePreview(string(line), 100))
			continue
		}
		out.Records = append(out.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("gaia: read split %q: %w", split, err)
	}
	return out, nil
}
