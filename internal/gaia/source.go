package gaia

import "context"

// Source fetches one split worth of raw records. Both retrieval strategies
// implement it so the normalization and write paths cannot drift.
type Source interface {
	Name() string
	FetchSplit(ctx context.Context, split string) (*SplitData, error)
}

// SplitLister is implemented by sources able to enumerate the dataset's
// splits, used to enrich the metadata descriptor.
type SplitLister interface {
	ListSplits(ctx context.Context) ([]string, error)
}

// SplitData holds the raw records of one fetched split.
type SplitData struct {
	Split        string
	Records      []RawRecord
	SkippedLines int
}
