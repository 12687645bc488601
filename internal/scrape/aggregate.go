package scrape

import (
	"log"
	"sort"
	"time"

	"scout-engine/internal/dates"
	"scout-engine/internal/domain"
	"scout-engine/internal/scrape/types"
)

// Metadata describes which sources contributed to a snapshot. A failed
// source appears with a zero count rather than disappearing.
type Metadata struct {
	Total   int            `json:"total"`
	Sources map[string]int `json:"sources"`
}

// Snapshot is the single aggregated artifact of one fetch cycle,
// consumed by both the listings feed and the alert processor.
type Snapshot struct {
	Listings []domain.Listing `json:"listings"`
	Metadata Metadata         `json:"metadata"`
}

// Aggregate normalizes raw rows from all sources into listings,
// resolving each row's posted date against now. A row whose date
// cannot be resolved is logged and dropped; it never fails the
// aggregation. Input order (source order, then row order) is
// preserved so dedup's first-seen rule means "first source wins".
func Aggregate(results []types.FetchResult, now time.Time) ([]domain.Listing, Metadata) {
	meta := Metadata{Sources: make(map[string]int)}
	var listings []domain.Listing

	for _, res := range results {
		count := 0
		for _, row := range res.Rows {
			posted, err := dates.Resolve(row.DateText, now)
			if err != nil {
				log.Printf("[%s] dropped row company=%q title=%q date=%q: %v",
					res.Source, row.Company, row.Title, row.DateText, err)
				continue
			}
			listings = append(listings, domain.Listing{
				Company:    row.Company,
				Title:      row.Title,
				Location:   row.Location,
				Link:       row.Link,
				DatePosted: posted,
				Salary:     row.Salary,
				JobType:    row.JobType,
			})
			count++
		}
		meta.Sources[res.Source] = count
	}

	return listings, meta
}

// DedupAndSort collapses duplicate listings and orders the result by
// recency. Identity is (company, title) exactly as parsed; the first
// occurrence in input order keeps all of its field values. The sort is
// stable, so listings sharing a posted date keep their dedup order.
// Idempotent: running it on its own output changes nothing.
func DedupAndSort(listings []domain.Listing) []domain.Listing {
	seen := make(map[string]bool, len(listings))
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		k := l.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DatePosted.After(out[j].DatePosted)
	})
	return out
}
