package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type splitInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Modified  string `json:"modified"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetMetadata(c *gin.Context) {
	if s == nil || s.dataDir == "" {
		respondError(c, http.StatusInternalServerError, errors.New("output directory not configured"))
		return
	}

	path := filepath.Join(s.dataDir, "metadata.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(c, http.StatusNotFound, errors.New("no metadata: run a fetch first"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "application/json", b)
}

func (s *Server) handleListSplits(c *gin.Context) {
	if s == nil || s.dataDir == "" {
		respondError(c, http.StatusInternalServerError, errors.New("output directory not configured"))
		return
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, []splitInfo{})
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]splitInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") || name == "metadata.json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, splitInfo{
			Name:      strings.TrimSuffix(name, ".json"),
			SizeBytes: info.Size(),
			Modified:  info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetSplit(c *gin.Context) {
	if s == nil || s.dataDir == "" {
		respondError(c, http.StatusInternalServerError, errors.New("output directory not configured"))
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing split name"))
		return
	}
	if !validSplitName(name) {
		respondError(c, http.StatusBadRequest, errors.New("invalid split name"))
		return
	}

	path := filepath.Join(s.dataDir, name+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(c, http.StatusNotFound, errors.New("split not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "application/json", b)
}

func (s *Server) handleGetHistory(c *gin.Context) {
	if s == nil || s.history == nil {
		respondError(c, http.StatusInternalServerError, errors.New("history store not configured"))
		return
	}

	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	entries, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	type historyEntry struct {
		ID         int64  `json:"id"`
		Dataset    string `json:"dataset"`
		Config     string `json:"config"`
		Method     string `json:"method"`
		Splits     string `json:"splits"`
		Records    int64  `json:"records"`
		Skipped    int64  `json:"skipped"`
		DurationMS int64  `json:"duration_ms"`
		FetchedAt  string `json:"fetched_at"`
	}

	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			ID:         e.ID,
			Dataset:    e.Dataset,
			Config:     e.Config,
			Method:     e.Method,
			Splits:     e.Splits,
			Records:    e.Records,
			Skipped:    e.Skipped,
			DurationMS: e.DurationMS,
			FetchedAt:  e.FetchedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// validSplitName rejects anything that could escape the output directory.
func validSplitName(name string) bool {
	if name == "" || name == "metadata" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
