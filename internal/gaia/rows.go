package gaia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultRowsBaseURL is the Hugging Face datasets-server endpoint
	// serving structured rows.
	DefaultRowsBaseURL = "https://datasets-server.huggingface.co"

	rowsPageSize = 100
)

// RowsSource fetches ready-to-use records through the datasets-server rows
// API. Any failure is fatal to the run: the whole dataset either loads or
// it does not.
type RowsSource struct {
	baseURL    string
	dataset    string
	config     string
	token      string
	httpClient *http.Client
}

// RowsOption configures a RowsSource.
type RowsOption func(*RowsSource)

// WithRowsBaseURL overrides the datasets-server endpoint.
func WithRowsBaseURL(baseURL string) RowsOption {
	return func(s *RowsSource) {
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

// WithRowsTimeout sets the HTTP client timeout.
func WithRowsTimeout(timeout time.Duration) RowsOption {
	return func(s *RowsSource) {
		if s == nil {
			return
		}
		if s.httpClient == nil {
			s.httpClient = &http.Client{}
		}
		s.httpClient.Timeout = timeout
	}
}

// WithRowsHTTPClient replaces the HTTP client.
func WithRowsHTTPClient(client *http.Client) RowsOption {
	return func(s *RowsSource) {
		if s == nil || client == nil {
			return
		}
		s.httpClient = client
	}
}

// NewRowsSource constructs the structured-source strategy for one dataset
// and configuration tag.
func NewRowsSource(dataset, config, token string, opts ...RowsOption) *RowsSource {
	s := &RowsSource{
		baseURL:    DefaultRowsBaseURL,
		dataset:    strings.TrimSpace(dataset),
		config:     strings.TrimSpace(config),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RowsSource) Name() string { return "rows" }

type rowsPage struct {
	Rows []struct {
		RowIdx int       `json:"row_idx"`
		Row    RawRecord `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

type splitsPage struct {
	Splits []struct {
		Dataset string `json:"dataset"`
		Config  string `json:"config"`
		Split   string `json:"split"`
	} `json:"splits"`
}

// FetchSplit pages through the rows endpoint until the split is exhausted.
func (s *RowsSource) FetchSplit(ctx context.Context, split string) (*SplitData, error) {
	if s == nil {
		return nil, errors.New("gaia: nil rows source")
	}
	if ctx == nil {
		return nil, errors.New("gaia: nil context")
	}
	split = strings.TrimSpace(split)
	if split == "" {
		return nil, &SourceLoadError{Dataset: s.dataset, Err: errors.New("empty split name")}
	}

	out := &SplitData{Split: split}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		q := url.Values{}
		q.Set("dataset", s.dataset)
		q.Set("config", s.config)
		q.Set("split", split)
		q.Set("offset", fmt.Sprint(offset))
		q.Set("length", fmt.Sprint(rowsPageSize))

		var page rowsPage
		if err := s.getJSON(ctx, s.baseURL+"/rows?"+q.Encode(), &page); err != nil {
			return nil, &SourceLoadError{Dataset: s.dataset, Err: err}
		}

		for _, r := range page.Rows {
			out.Records = append(out.Records, r.Row)
		}

		offset += len(page.Rows)
		if len(page.Rows) == 0 || offset >= page.NumRowsTotal {
			return out, nil
		}
	}
}

// ListSplits enumerates the splits available for the configured dataset.
func (s *RowsSource) ListSplits(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, errors.New("gaia: nil rows source")
	}
	if ctx == nil {
		return nil, errors.New("gaia: nil context")
	}

	q := url.Values{}
	q.Set("dataset", s.dataset)

	var page splitsPage
	if err := s.getJSON(ctx, s.baseURL+"/splits?"+q.Encode(), &page); err != nil {
		return nil, &SourceLoadError{Dataset: s.dataset, Err: err}
	}

	var names []string
	for _, sp := range page.Splits {
		if s.config != "" && sp.Config != s.config {
			continue
		}
		names = append(names, sp.Split)
	}
	return names, nil
}

func (s *RowsSource) getJSON(ctx context.Context, rawURL string, dst any) error {
	if s.httpClient == nil {
		return errors.New("nil http client")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
