package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/gaia-fetch/internal/config"
	"github.com/stellarlinkco/gaia-fetch/internal/history"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "gaia-fetch",
		Short:         "Download and normalize the GAIA benchmark dataset",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newFetchCmd(st))
	root.AddCommand(newHistoryCmd(st))
	return root
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
		return history.NewStore(path)
	case "memory":
		return history.NewStore(":memory:")
	default:
		return nil, fmt.Errorf("history: unsupported type %q", storageType)
	}
}
