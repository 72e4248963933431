package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/gaia-fetch/internal/config"
	"github.com/stellarlinkco/gaia-fetch/internal/gaia"
	"github.com/stellarlinkco/gaia-fetch/internal/history"
)

type fetchOptions struct {
	strategy string
	splits   []string
	outDir   string
	layout   string
	baseURL  string
}

func newFetchCmd(st *cliState) *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch dataset splits and write normalized JSON files",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "retrieval strategy: direct|rows (overrides config)")
	cmd.Flags().StringSliceVar(&opts.splits, "split", nil, "split to fetch, repeatable (overrides config)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "output directory (overrides config)")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "direct split file layout: flat|nested (overrides config)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "dataset base URL (overrides config)")

	return cmd
}

func runFetch(cmd *cobra.Command, st *cliState, opts *fetchOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("fetch: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("fetch: nil options")
	}
	cfg := st.cfg

	strategy := strings.ToLower(strings.TrimSpace(opts.strategy))
	if strategy == "" {
		strategy = strings.ToLower(strings.TrimSpace(cfg.Fetch.Strategy))
	}
	splits := opts.splits
	if len(splits) == 0 {
		splits = cfg.Dataset.Splits
	}
	outDir := strings.TrimSpace(opts.outDir)
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	layout := strings.TrimSpace(opts.layout)
	if layout == "" {
		layout = cfg.Dataset.Layout
	}

	token, err := gaia.ResolveToken(cfg.Auth.TokenEnv, cfg.Auth.FallbackTokenEnv)
	if err != nil {
		return err
	}

	source, err := resolveSource(cfg, strategy, layout, strings.TrimSpace(opts.baseURL), token, cmd)
	if err != nil {
		return err
	}

	f := &gaia.Fetcher{
		Source:  source,
		Writer:  gaia.NewWriter(outDir),
		Dataset: cfg.Dataset.ID,
		Config:  cfg.Dataset.Config,
		Strict:  strategy == "rows",
		Log:     cmd.OutOrStdout(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Downloading %s (%s)...\n", cfg.Dataset.ID, strategy)
	sum, err := f.Run(ctx, splits)
	if err != nil {
		return err
	}

	recordRun(cmd, cfg, sum)
	return nil
}

func resolveSource(cfg *config.Config, strategy, layout, baseURL, token string, cmd *cobra.Command) (gaia.Source, error) {
	timeout := cfg.Fetch.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	switch strategy {
	case "direct":
		if baseURL == "" {
			baseURL = cfg.Dataset.BaseURL
		}
		return gaia.NewDirectSource(token,
			gaia.WithDirectBaseURL(baseURL),
			gaia.WithDirectLayout(layout),
			gaia.WithDirectTimeout(timeout),
			gaia.WithDirectLog(cmd.ErrOrStderr()),
		), nil
	case "rows":
		rowsURL := cfg.Dataset.RowsURL
		if baseURL != "" {
			rowsURL = baseURL
		}
		return gaia.NewRowsSource(cfg.Dataset.ID, cfg.Dataset.Config, token,
			gaia.WithRowsBaseURL(rowsURL),
			gaia.WithRowsTimeout(timeout),
		), nil
	default:
		return nil, fmt.Errorf("fetch: unknown strategy %q (expected direct|rows)", strategy)
	}
}

// recordRun saves the run to the history store. History is best effort:
// a storage failure must not turn a completed fetch into a non-zero exit.
func recordRun(cmd *cobra.Command, cfg *config.Config, sum *gaia.Summary) {
	if sum == nil {
		return
	}

	hs, err := openHistoryStore(cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: history unavailable: %v\n", err)
		return
	}
	defer hs.Close()

	var written []string
	var skipped int64
	for _, ss := range sum.Splits {
		if ss.Written {
			written = append(written, ss.Split)
		}
		skipped += int64(ss.SkippedLines)
	}

	entry := &history.Entry{
		Dataset:    sum.Dataset,
		Config:     sum.Config,
		Method:     sum.Method,
		Splits:     strings.Join(written, ","),
		Records:    int64(sum.TotalRecords),
		Skipped:    skipped,
		DurationMS: sum.Duration.Milliseconds(),
		FetchedAt:  time.Now().UTC(),
	}
	if err := hs.Save(cmd.Context(), entry); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: record history: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run recorded: id=%d method=%s splits=%s records=%d duration_ms=%d\n",
		entry.ID,
		entry.Method,
		entry.Splits,
		entry.Records,
		entry.DurationMS,
	)
}
