package speedyapply

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"scout-engine/internal/domain"
	"scout-engine/internal/scrape/types"
	"scout-engine/internal/scrape/util"
)

type Config struct {
	URL string
	// JobType tags every row from this document. The board keeps one
	// readme per track (intern, new grad) with no per-row marker.
	JobType domain.JobType
}

// Fetcher reads the SpeedyApply board: several tables per readme, with
// an optional salary column that shifts the link and age columns when
// present.
type Fetcher struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(cfg Config, limiter *util.HostLimiter) *Fetcher {
	if cfg.JobType == "" {
		cfg.JobType = domain.JobTypeInternship
	}
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (f *Fetcher) Name() string { return "speedyapply" }

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
	return parseRows(doc, f.cfg.JobType), nil
}

func parseRows(doc *goquery.Document, jobType domain.JobType) []types.RawRow {
	var rows []types.RawRow

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")

			company := util.CleanText(cells.Eq(0).Text())
			title := util.CleanText(cells.Eq(1).Text())
			if company == "" || title == "" {
				return
			}

			// The salary column is optional and shifts everything
			// after it. Probe for the currency marker before indexing
			// the link and age cells.
			salary := ""
			linkIdx := 3
			if strings.Contains(cells.Eq(3).Text(), "$") {
				salary = util.CleanText(cells.Eq(3).Text())
				linkIdx = 4
			}

			link, _ := cells.Eq(linkIdx).Find("a").Attr("href")
			if link == "" {
				return
			}

			rows = append(rows, types.RawRow{
				Company:  company,
				Title:    title,
				Location: util.CleanText(cells.Eq(2).Text()),
				Link:     link,
				DateText: util.CleanText(cells.Eq(linkIdx + 1).Text()),
				Salary:   salary,
				JobType:  jobType,
			})
		})
	})

	return rows
}
