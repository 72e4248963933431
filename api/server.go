package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/gaia-fetch/internal/config"
	"github.com/stellarlinkco/gaia-fetch/internal/history"
)

// Server exposes the downloaded dataset and the run history read-only.
type Server struct {
	router  *gin.Engine
	config  *config.Config
	history *history.Store
	dataDir string
}

func NewServer(cfg *config.Config, hist *history.Store) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: nil config")
	}

	r := gin.New()
	s := &Server{
		router:  r,
		config:  cfg,
		history: hist,
		dataDir: strings.TrimSpace(cfg.Output.Dir),
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
