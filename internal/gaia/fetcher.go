package gaia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Fetcher runs the fetch → normalize → write loop over the requested
// splits. Per-split failures (404, other HTTP errors, and, outside strict
// mode, level coercion) skip the split; everything else aborts the run.
type Fetcher struct {
	Source Source
	Writer *Writer

	Dataset string
	Config  string

	// Strict makes a Level coercion failure abort the whole run instead
	// of skipping the split. Set for the rows strategy.
	Strict bool

	Log io.Writer
}

// Summary reports what one run did.
type Summary struct {
	Dataset      string
	Config       string
	Method       string
	OutputDir    string
	Splits       []SplitSummary
	TotalRecords int
	Duration     time.Duration
}

// SplitSummary is the per-split outcome. Reason is set when the split was
// skipped instead of written.
type SplitSummary struct {
	Split        string
	Records      int
	SkippedLines int
	Written      bool
	Reason       string
}

// Run processes the splits in order and finishes with the metadata file.
// It returns a non-nil error only on fatal failures; skipped splits still
// complete the run.
func (f *Fetcher) Run(ctx context.Context, splits []string) (*Summary, error) {
	if f == nil {
		return nil, errors.New("gaia: nil fetcher")
	}
	if ctx == nil {
		return nil, errors.New("gaia: nil context")
	}
	if f.Source == nil {
		return nil, errors.New("gaia: nil source")
	}
	if f.Writer == nil {
		return nil, errors.New("gaia: nil writer")
	}
	if len(splits) == 0 {
		return nil, errors.New("gaia: no splits requested")
	}

	logw := f.Log
	if logw == nil {
		logw = io.Discard
	}

	start := time.Now()
	sum := &Summary{
		Dataset:   f.Dataset,
		Config:    f.Config,
		Method:    f.Source.Name(),
		OutputDir: f.Writer.Dir,
	}

	for _, split := range splits {
		split = strings.TrimSpace(split)
		if split == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		fmt.Fprintf(logw, "Fetching %s split...\n", split)

		sd, err := f.Source.FetchSplit(ctx, split)
		if err != nil {
			ss, fatal := classifyFetchError(ctx, split, err, logw)
			if fatal {
				return sum, err
			}
			sum.Splits = append(sum.Splits, ss)
			continue
		}

		recs, err := NormalizeAll(ctx, sd.Records)
		if err != nil {
			var levelErr *LevelError
			if !f.Strict && errors.As(err, &levelErr) {
				fmt.Fprintf(logw, "error: processing %s: %v\n", split, err)
				sum.Splits = append(sum.Splits, SplitSummary{Split: split, Reason: err.Error()})
				continue
			}
			return sum, err
		}

		path, err := f.Writer.WriteSplit(split, recs)
		if err != nil {
			return sum, err
		}

		sum.Splits = append(sum.Splits, SplitSummary{
			Split:        split,
			Records:      len(recs),
			SkippedLines: sd.SkippedLines,
			Written:      true,
		})
		sum.TotalRecords += len(recs)
		fmt.Fprintf(logw, "Saved %d records to %s\n", len(recs), path)
	}

	md := &Metadata{
		Dataset: f.Dataset,
		Config:  f.Config,
		Method:  sum.Method,
	}
	if lister, ok := f.Source.(SplitLister); ok {
		names, err := lister.ListSplits(ctx)
		if err != nil {
			fmt.Fprintf(logw, "warning: list splits: %v\n", err)
		} else {
			md.Splits = names
			md.TotalItems = sum.TotalRecords
		}
	}
	if _, err := f.Writer.WriteMetadata(md); err != nil {
		return sum, err
	}

	sum.Duration = time.Since(start)
	fmt.Fprintf(logw, "\nDownload complete!\nData saved to: %s\n", f.Writer.Dir)
	return sum, nil
}

// classifyFetchError decides whether a fetch failure skips the split or
// aborts the run. Structured-source failures and cancellations are fatal;
// HTTP errors from the direct path, 404 included, only skip the split.
func classifyFetchError(ctx context.Context, split string, err error, logw io.Writer) (SplitSummary, bool) {
	var srcErr *SourceLoadError
	if errors.As(err, &srcErr) {
		return SplitSummary{}, true
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return SplitSummary{}, true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.NotFound() {
		fmt.Fprintf(logw, "warning: split %q not found\n", split)
		return SplitSummary{Split: split, Reason: "not found"}, false
	}

	fmt.Fprintf(logw, "error: fetching %s: %v\n", split, err)
	return SplitSummary{Split: split, Reason: err.Error()}, false
}
