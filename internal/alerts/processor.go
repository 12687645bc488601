package alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"scout-engine/internal/dates"
	"scout-engine/internal/domain"
	"scout-engine/internal/match"
	"scout-engine/internal/scrape"
)

// ErrCycleRunning means a cycle was requested while one is in flight.
// Cycles are exclusive; the caller should just wait for the next tick.
var ErrCycleRunning = errors.New("alert cycle already running")

// SubscriptionStore is the persistence collaborator. The processor is
// the only component that advances watermarks.
type SubscriptionStore interface {
	List(ctx context.Context) ([]domain.Subscription, error)
	UpdateWatermark(ctx context.Context, id int64, now time.Time) error
}

// ListingSource provides the aggregated snapshot shared with the feed.
type ListingSource interface {
	Snapshot(ctx context.Context) (scrape.Snapshot, error)
}

// Notifier dispatches one rendered message.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Renderer bundles a subscription's qualifying listings into a single
// message. One message per subscription per cycle, never one per
// listing.
type Renderer func(listings []domain.Listing) (subject, htmlBody string, err error)

// Result is one subscription's outcome within a cycle.
type Result struct {
	Email    string `json:"email"`
	Success  bool   `json:"success"`
	Matched  int    `json:"matchedListings"`
	Notified bool   `json:"notified"`
	Error    string `json:"error,omitempty"`
}

// CycleReport is what a cycle hands back to its trigger: a row per
// subscription, never an opaque pass/fail.
type CycleReport struct {
	StartedAt time.Time `json:"startedAt"`
	Processed []Result  `json:"processed"`
}

// Processor runs the alert cycle: load subscriptions, take one shared
// listings snapshot, and for each subscription filter by watermark and
// criteria, dispatch, then advance the watermark. Failures are
// isolated per subscription; only failing to load the subscription
// list kills a cycle.
type Processor struct {
	Store    SubscriptionStore
	Source   ListingSource
	Notifier Notifier
	Render   Renderer

	// SendTimeout bounds each dispatch; a timeout counts as a send
	// failure and leaves the watermark untouched.
	SendTimeout time.Duration
	Parallelism int
	Now         func() time.Time

	running atomic.Bool
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Processor) sendTimeout() time.Duration {
	if p.SendTimeout > 0 {
		return p.SendTimeout
	}
	return 20 * time.Second
}

func (p *Processor) parallelism() int {
	if p.Parallelism > 0 {
		return p.Parallelism
	}
	return 4
}

// RunCycle executes one alert cycle. Concurrent calls are rejected
// with ErrCycleRunning so no subscription is ever processed by two
// overlapping cycles.
func (p *Processor) RunCycle(ctx context.Context) (CycleReport, error) {
	if !p.running.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleRunning
	}
	defer p.running.Store(false)

	now := p.now()
	report := CycleReport{StartedAt: now}

	subs, err := p.Store.List(ctx)
	if err != nil {
		// the only cycle-fatal failure
		return report, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		report.Processed = []Result{}
		return report, nil
	}

	// One snapshot for the whole cycle: every subscription sees the
	// same listing set.
	snap, snapErr := p.Source.Snapshot(ctx)

	results := make([]Result, len(subs))
	var g errgroup.Group
	g.SetLimit(p.parallelism())
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			results[i] = p.processOne(ctx, sub, snap, snapErr, now)
			return nil
		})
	}
	_ = g.Wait()

	report.Processed = results
	return report, nil
}

func (p *Processor) processOne(ctx context.Context, sub domain.Subscription, snap scrape.Snapshot, snapErr error, now time.Time) Result {
	res := Result{Email: sub.Email}

	if snapErr != nil {
		res.Error = fmt.Sprintf("fetch listings: %v", snapErr)
		return res
	}

	// Strictly newer than the watermark, day-granular.
	cutoff := dates.Day(sub.LastNotified)
	var matched []domain.Listing
	for _, l := range snap.Listings {
		if !l.DatePosted.After(cutoff) {
			continue
		}
		if match.Matches(l, sub.Criteria) {
			matched = append(matched, l)
		}
	}
	res.Matched = len(matched)

	if len(matched) == 0 {
		res.Success = true
		return res
	}

	subject, body, err := p.Render(matched)
	if err != nil {
		res.Error = fmt.Sprintf("render: %v", err)
		return res
	}

	sctx, cancel := context.WithTimeout(ctx, p.sendTimeout())
	defer cancel()
	if err := p.Notifier.Send(sctx, sub.Email, subject, body); err != nil {
		// Watermark untouched: the same listings go out next cycle.
		res.Error = fmt.Sprintf("dispatch: %v", err)
		return res
	}
	res.Notified = true

	if err := p.Store.UpdateWatermark(ctx, sub.ID, now); err != nil {
		// Mail went out but the watermark did not move. Surface it so
		// the operator knows this subscriber may see one duplicate
		// next cycle.
		log.Printf("[alerts] watermark advance failed id=%d email=%s err=%v", sub.ID, sub.Email, err)
		res.Error = fmt.Sprintf("watermark: %v", err)
		return res
	}

	res.Success = true
	return res
}
