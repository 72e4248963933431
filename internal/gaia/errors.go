package gaia

import (
	"fmt"
	"net/http"
	"strings"
)

// MissingCredentialError means neither token environment variable was set.
type MissingCredentialError struct {
	Primary  string
	Fallback string
}

func (e *MissingCredentialError) Error() string {
	if e == nil {
		return "gaia: missing credential"
	}
	return fmt.Sprintf("gaia: no access token found: set %s or %s", e.Primary, e.Fallback)
}

// SourceLoadError wraps any failure from the structured rows source. It is
// fatal to the whole run.
type SourceLoadError struct {
	Dataset string
	Err     error
}

func (e *SourceLoadError) Error() string {
	if e == nil {
		return "gaia: source load error <nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("gaia: load dataset %q failed", e.Dataset)
	}
	return fmt.Sprintf("gaia: load dataset %q: %v", e.Dataset, e.Err)
}

func (e *SourceLoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPError represents a non-2xx response from the dataset host.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "gaia: http error <nil>"
	}
	body := truncatePreview(strings.TrimSpace(e.Body), 200)
	if body == "" {
		return fmt.Sprintf("gaia: http %d", e.Status)
	}
	return fmt.Sprintf("gaia: http %d: %s", e.Status, body)
}

// NotFound reports whether the error is the 404 "split not found" case.
func (e *HTTPError) NotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

// LevelError means a raw Level value could not be coerced to an integer.
type LevelError struct {
	Value any
}

func (e *LevelError) Error() string {
	if e == nil {
		return "gaia: invalid level <nil>"
	}
	return fmt.Sprintf("gaia: level %v (%T) is not an integer", e.Value, e.Value)
}

func truncatePreview(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
