package scout

import (
	"context"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"scout-engine/internal/domain"
	"scout-engine/internal/scrape/types"
	"scout-engine/internal/scrape/util"
)

// continuationGlyph marks "same company as the previous row" in the
// upstream table — the board's merged-cell convention.
const continuationGlyph = "↳"

type Config struct {
	URL string
}

// Fetcher reads the Scout internship board: one readme with a single
// listings table laid out company/title/location/link/date.
type Fetcher struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(cfg Config, limiter *util.HostLimiter) *Fetcher {
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (f *Fetcher) Name() string { return "scout" }

func (f *Fetcher) Fetch(ctx context.Context) ([]types.RawRow, error) {
	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, f.cfg.URL); err != nil {
			return nil, &types.SourceFetchError{Source: f.Name(), Err: err}
		}
	}

	doc, err := util.FetchMarkdownTables(ctx, f.hc, f.cfg.URL)
	if err != nil {
		return nil, &types.SourceFetchError{Source: f.Name(), Err: err}
	}
	return parseRows(doc), nil
}

// parseRows folds over the table rows carrying the last concrete
// company name forward, so continuation rows resolve against it. The
// carry lives only for this invocation; a fresh fetch starts empty.
func parseRows(doc *goquery.Document) []types.RawRow {
	var rows []types.RawRow
	prevCompany := ""

	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")

		company := util.CleanText(cells.Eq(0).Text())
		if company == continuationGlyph {
			company = prevCompany
		} else {
			prevCompany = company
		}

		link, _ := cells.Eq(3).Find("a").Attr("href")
		if link == "" {
			// not a listing: header noise or a closed posting
			return
		}

		rows = append(rows, types.RawRow{
			Company:  company,
			Title:    util.CleanText(cells.Eq(1).Text()),
			Location: util.CleanText(cells.Eq(2).Text()),
			Link:     link,
			DateText: util.CleanText(cells.Eq(4).Text()),
			JobType:  domain.JobTypeInternship,
		})
	})

	return rows
}
