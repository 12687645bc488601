package scrape

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"scout-engine/internal/scrape/types"
)

// FetchAll runs every fetcher concurrently and joins whatever came
// back. One adapter failing or timing out never cancels its siblings;
// the failed source just contributes zero rows to the aggregate.
// Results come back in fetcher registration order so downstream
// first-seen rules are deterministic.
func FetchAll(ctx context.Context, fetchers []types.Fetcher, timeout time.Duration) []types.FetchResult {
	results := make([]types.FetchResult, len(fetchers))

	var g errgroup.Group
	for i, f := range fetchers {
		i, f := i, f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			rows, err := f.Fetch(fctx)
			if err != nil {
				log.Printf("[%s] fetch error: %v", f.Name(), err)
				results[i] = types.FetchResult{Source: f.Name(), Err: err}
				return nil // best-effort: don't cancel siblings
			}
			log.Printf("[%s] rows=%d", f.Name(), len(rows))
			results[i] = types.FetchResult{Source: f.Name(), Rows: rows}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
