package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("GAIA_FETCH_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("GAIA_FETCH_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set GAIA_FETCH_API_KEY or set GAIA_FETCH_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)
	api.GET("/metadata", s.handleGetMetadata)
	api.GET("/splits", s.handleListSplits)
	api.GET("/splits/:name", s.handleGetSplit)
	api.GET("/history", s.handleGetHistory)

	return nil
}
