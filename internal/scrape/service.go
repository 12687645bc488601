package scrape

import (
	"context"
	"sync"
	"time"

	"scout-engine/internal/scrape/types"
)

// Service owns the fetch cycle. It computes one snapshot per cycle and
// shares it between the HTTP feed and the alert processor, instead of
// letting each consumer re-aggregate divergently.
type Service struct {
	fetchers []types.Fetcher
	timeout  time.Duration
	maxAge   time.Duration
	now      func() time.Time

	mu        sync.Mutex
	snap      Snapshot
	fetchedAt time.Time
}

func NewService(fetchers []types.Fetcher, timeout, maxAge time.Duration) *Service {
	return &Service{
		fetchers: fetchers,
		timeout:  timeout,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Snapshot returns the current aggregate, refreshing it when stale.
// Errors are possible only through the context; individual source
// failures degrade the snapshot instead of failing it.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetchedAt.IsZero() && s.now().Sub(s.fetchedAt) < s.maxAge {
		return s.snap, nil
	}
	return s.refreshLocked(ctx)
}

// Refresh forces a new fetch cycle regardless of cache age.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Service) refreshLocked(ctx context.Context) (Snapshot, error) {
	now := s.now()

	results := FetchAll(ctx, s.fetchers, s.timeout)
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	listings, meta := Aggregate(results, now)
	listings = DedupAndSort(listings)
	meta.Total = len(listings)

	s.snap = Snapshot{Listings: listings, Metadata: meta}
	s.fetchedAt = now
	return s.snap, nil
}
