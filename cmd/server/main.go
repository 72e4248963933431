package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stellarlinkco/gaia-fetch/api"
	"github.com/stellarlinkco/gaia-fetch/internal/config"
	"github.com/stellarlinkco/gaia-fetch/internal/history"
)

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig      = config.Load
	historyNewStore = history.NewStore
	newServer       = api.NewServer
	runServer       = (*api.Server).Run
)

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)

	var addr string
	var configPath string
	fs.StringVar(&addr, "addr", ":8080", "listen address")
	fs.StringVar(&configPath, "config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	hist, err := openHistoryStore(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	defer func() { _ = hist.Close() }()

	srv, err := newServer(cfg, hist)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	if err := runServer(srv, addr); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	return 0
}

func openHistoryStore(cfg *config.Config) (*history.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("history: missing config")
	}

	storageType := strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	if storageType == "" {
		storageType = "sqlite"
	}

	switch storageType {
	case "sqlite":
		path := strings.TrimSpace(cfg.Storage.Path)
		if path == "" {
			path = history.DefaultDBPath
		}
		return historyNewStore(path)
	case "memory":
		return historyNewStore(":memory:")
	default:
		return nil, fmt.Errorf("history: unsupported type %q", storageType)
	}
}
