package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-engine/internal/domain"
	"scout-engine/internal/notify"
	"scout-engine/internal/scrape"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeStore struct {
	mu         sync.Mutex
	subs       []domain.Subscription
	listErr    error
	updateErr  error
	watermarks map[int64]time.Time
}

func (f *fakeStore) List(ctx context.Context) ([]domain.Subscription, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Subscription, len(f.subs))
	copy(out, f.subs)
	for i := range out {
		if wm, ok := f.watermarks[out[i].ID]; ok {
			out[i].LastNotified = wm
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateWatermark(ctx context.Context, id int64, now time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watermarks == nil {
		f.watermarks = make(map[int64]time.Time)
	}
	f.watermarks[id] = now
	return nil
}

type fakeSource struct {
	snap scrape.Snapshot
	err  error
}

func (f *fakeSource) Snapshot(ctx context.Context) (scrape.Snapshot, error) {
	return f.snap, f.err
}

type sentMail struct {
	to, subject, body string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]error
}

func (f *fakeNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err, ok := f.failTo[to]; ok {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func newProcessor(store *fakeStore, source *fakeSource, notifier *fakeNotifier, now time.Time) *Processor {
	return &Processor{
		Store:    store,
		Source:   source,
		Notifier: notifier,
		Render:   notify.RenderAlert,
		Now:      func() time.Time { return now },
	}
}

func acmeListings() []domain.Listing {
	return []domain.Listing{
		{Company: "Acme", Title: "SWE Intern", Location: "NYC", Link: "http://a", DatePosted: day(2024, time.March, 5)},
		{Company: "Globex", Title: "Data Intern", Location: "SF", Link: "http://b", DatePosted: day(2024, time.March, 4)},
		{Company: "Acme", Title: "Old Role", Location: "NYC", Link: "http://c", DatePosted: day(2024, time.February, 1)},
	}
}

func TestRunCycleNotifiesAndAdvancesWatermark(t *testing.T) {
	now := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{subs: []domain.Subscription{{
		ID:           1,
		Email:        "dev@example.com",
		Criteria:     []domain.Criterion{{Type: domain.CriterionCompany, Value: "Acme"}},
		LastNotified: day(2024, time.March, 1),
	}}}
	source := &fakeSource{snap: scrape.Snapshot{Listings: acmeListings()}}
	notifier := &fakeNotifier{}

	p := newProcessor(store, source, notifier, now)

	report, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Processed, 1)

	res := report.Processed[0]
	assert.True(t, res.Success)
	assert.True(t, res.Notified)
	assert.Equal(t, 1, res.Matched) // only the fresh Acme listing
	assert.Empty(t, res.Error)

	// Exactly one bundled message.
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "dev@example.com", notifier.sent[0].to)
	assert.Contains(t, notifier.sent[0].body, "SWE Intern")
	assert.NotContains(t, notifier.sent[0].body, "Old Role")

	assert.Equal(t, now, store.watermarks[1])
}

func TestRunCycleIdempotentWithFixedClock(t *testing.T) {
	now := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{subs: []domain.Subscription{{
		ID:           1,
		Email:        "dev@example.com",
		Criteria:     []domain.Criterion{{Type: domain.CriterionCompany, Value: "Acme"}},
		LastNotified: day(2024, time.March, 1),
	}}}
	source := &fakeSource{snap: scrape.Snapshot{Listings: acmeListings()}}
	notifier := &fakeNotifier{}

	p := newProcessor(store, source, notifier, now)

	_, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)

	// Same clock, same listings: the advanced watermark filters
	// everything out.
	report, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Processed, 1)
	assert.True(t, report.Processed[0].Success)
	assert.Zero(t, report.Processed[0].Matched)
	assert.Len(t, notifier.sent, 1)
}

func TestRunCycleSendFailureLeavesWatermark(t *testing.T) {
	now := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{subs: []domain.Subscription{{
		ID:           1,
		Email:        "dev@example.com",
		Criteria:     []domain.Criterion{{Type: domain.CriterionCompany, Value: "Acme"}},
		LastNotified: day(2024, time.March, 1),
	}}}
	source := &fakeSource{snap: scrape.Snapshot{Listings: acmeListings()}}
	notifier := &fakeNotifier{failTo: map[string]error{"dev@example.com": errors.New("smtp 550")}}

	p := newProcessor(store, source, notifier, now)

	report, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Processed, 1)

	res := report.Processed[0]
	assert.False(t, res.Success)
	assert.False(t, res.Notified)
	assert.Contains(t, res.Error, "dispatch")
	assert.Empty(t, store.watermarks, "watermark must not advance on send failure")

	// Next cycle retries the same listings.
	notifier.failTo = nil
	_, err = p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].body, "SWE Intern")
}

func TestRunCycleIsolatesSubscriptionFailures(t *testing.T) {
	now := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{subs: []domain.Subscription{
		{
			ID: 1, Email: "broken@example.com",
			Criteria:     []domain.Criterion{{Type: domain.CriterionCompany, Value: "Acme"}},
			LastNotified: day(2024, time.March, 1),
		},
		{
			ID: 2, Email: "ok@example.com",
			Criteria:     []domain.Criterion{{Type: domain.CriterionCompany, Value: "Globex"}},
			LastNotified: day(2024, time.March, 1),
		},
	}}
	source := &fakeSource{snap: scrape.Snapshot{Listings: acmeListings()}}
	notifier := &fakeNotifier{failTo: map[string]error{"broken@example.com": errors.New("mailbox full")}}

	p := newProcessor(store, source, notifier, now)

	report, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Processed, 2)

	byEmail := map[string]Result{}
	for _, r := range report.Processed {
		byEmail[r.Email] = r
	}
	assert.False(t, byEmail["broken@example.com"].Success)
	assert.True(t, byEmail["ok@example.com"].Success)
	assert.True(t, byEmail["ok@example.com"].Notified)
	assert.Equal(t, now, store.watermarks[2])
	_, advanced := store.watermarks[1]
	assert.False(t, advanced)
}

func TestRunCycleListFailureIsFatal(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db locked")}
	p := newProcessor(store, &fakeSource{}, &fakeNotifier{}, time.Now())

	_, err := p.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load subscriptions")
}

func TestRunCycleSnapshotFailureDegradesPerSubscription(t *testing.T) {
	store := &fakeStore{subs: []domain.Subscription{{
		ID: 1, Email: "dev@example.com",
		Criteria:     []domain.Criterion{{Type: domain.CriterionCompany, Value: "Acme"}},
		LastNotified: day(2024, time.March, 1),
	}}}
	source := &fakeSource{err: errors.New("all sources down")}
	notifier := &fakeNotifier{}

	p := newProcessor(store, source, notifier, time.Now())

	report, err := p.RunCycle(context.Background())
	require.NoError(t, err, "snapshot failure is not cycle-fatal")
	require.Len(t, report.Processed, 1)
	assert.False(t, report.Processed[0].Success)
	assert.Contains(t, report.Processed[0].Error, "fetch listings")
	assert.Empty(t, notifier.sent)
	assert.Empty(t, store.watermarks)
}

func TestRunCycleWatermarkUpdateFailureReported(t *testing.T) {
	now := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		subs: []domain.Subscription{{
			ID: 1, Email: "dev@example.com",
			Criteria:     []domain.Criterion{{Type: domain.CriterionCompany, Value: "Acme"}},
			LastNotified: day(2024, time.March, 1),
		}},
		updateErr: errors.New("disk full"),
	}
	source := &fakeSource{snap: scrape.Snapshot{Listings: acmeListings()}}
	notifier := &fakeNotifier{}

	p := newProcessor(store, source, notifier, now)

	report, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Processed, 1)

	res := report.Processed[0]
	assert.True(t, res.Notified, "mail went out")
	assert.False(t, res.Success, "but the cycle flags the stuck watermark")
	assert.Contains(t, res.Error, "watermark")
}

func TestRunCycleRejectsOverlap(t *testing.T) {
	now := time.Now()
	release := make(chan struct{})
	store := &fakeStore{subs: []domain.Subscription{{
		ID: 1, Email: "dev@example.com",
		Criteria:     []domain.Criterion{{Type: domain.CriterionKeyword, Value: "intern"}},
		LastNotified: now.Add(-72 * time.Hour),
	}}}
	source := &fakeSource{snap: scrape.Snapshot{Listings: []domain.Listing{{
		Company: "Acme", Title: "SWE Intern", Link: "http://a",
		DatePosted: day(now.Year(), now.Month(), now.Day()),
	}}}}
	notifier := &fakeNotifier{}

	p := newProcessor(store, source, notifier, now)
	p.Render = func(listings []domain.Listing) (string, string, error) {
		<-release // hold the first cycle open
		return notify.RenderAlert(listings)
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.RunCycle(context.Background())
		done <- err
	}()

	// Wait until the first cycle is parked inside Render.
	require.Eventually(t, func() bool {
		return p.running.Load()
	}, time.Second, 5*time.Millisecond)

	_, err := p.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleRunning)

	close(release)
	require.NoError(t, <-done)
}

func TestRunCycleManySubscriptionsAllReported(t *testing.T) {
	now := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)
	var subs []domain.Subscription
	for i := 1; i <= 20; i++ {
		subs = append(subs, domain.Subscription{
			ID:           int64(i),
			Email:        fmt.Sprintf("dev%d@example.com", i),
			Criteria:     []domain.Criterion{{Type: domain.CriterionKeyword, Value: "intern"}},
			LastNotified: day(2024, time.March, 1),
		})
	}
	store := &fakeStore{subs: subs}
	source := &fakeSource{snap: scrape.Snapshot{Listings: acmeListings()}}
	notifier := &fakeNotifier{}

	p := newProcessor(store, source, notifier, now)
	p.Parallelism = 8

	report, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Processed, len(subs))
	for _, res := range report.Processed {
		assert.True(t, res.Success, res.Email)
		assert.Equal(t, 2, res.Matched, res.Email)
	}
	assert.Len(t, notifier.sent, len(subs))

	seen := map[string]bool{}
	for _, m := range notifier.sent {
		assert.False(t, seen[m.to], "duplicate send to %s", m.to)
		seen[m.to] = true
		assert.True(t, strings.Contains(m.body, "SWE Intern") && strings.Contains(m.body, "Data Intern"),
			"bundle must carry all qualifying listings")
	}
}
