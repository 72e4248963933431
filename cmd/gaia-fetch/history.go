package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/gaia-fetch/internal/config"
)

type historyOptions struct {
	limit int
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past fetch runs",
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
			return runHistory(cmd, st, &opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max runs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, st *cliState, opts *historyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("history: nil options")
	}

	hs, err := openHistoryStore(st.cfg)
	if err != nil {
		return err
	}
	defer hs.Close()

	entries, err := hs.List(cmd.Context(), opts.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No fetch runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATASET\tCONFIG\tMETHOD\tSPLITS\tRECORDS\tSKIPPED\tDURATION\tDATE")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.ID,
			e.Dataset,
			e.Config,
			e.Method,
			e.Splits,
			e.Records,
			e.Skipped,
			(time.Duration(e.DurationMS) * time.Millisecond).String(),
			e.FetchedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
