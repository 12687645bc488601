package types

import (
	"context"
	"fmt"

	"scout-engine/internal/domain"
)

// RawRow is one table row as parsed by a source adapter, before date
// resolution. DateText is still free-form; the aggregator resolves it.
type RawRow struct {
	Company  string
	Title    string
	Location string
	Link     string
	DateText string
	Salary   string
	JobType  domain.JobType
}

// Fetcher produces raw rows from one external document. New sources
// plug in here; the aggregator never knows concrete source identities.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRow, error)
}

// FetchResult is one adapter's contribution to a fetch cycle. Rows and
// Err are mutually exclusive.
type FetchResult struct {
	Source string
	Rows   []RawRow
	Err    error
}

// SourceFetchError wraps an upstream retrieval failure for one source.
// It degrades the aggregate (that source contributes zero rows) but
// never fails the cycle.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }
