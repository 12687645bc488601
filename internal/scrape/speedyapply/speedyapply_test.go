package speedyapply

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-engine/internal/domain"
	"scout-engine/internal/scrape/types"
)

// Two tables, one with the optional salary column and one without —
// the adapter must detect the currency marker before indexing the
// link/age cells.
const boardMarkdown = `# SWE College Jobs

## FAANG+

| Company | Position | Location | Salary | Link | Age |
| ------- | -------- | -------- | ------ | ---- | --- |
| Acme | SWE Intern | NYC | $50/hr | [Apply](https://acme.example/apply) | 2d |
| Globex | Data Intern | SF | $8,000/mo | [Apply](https://globex.example/data) | 5d |

## Other

| Company | Position | Location | Link | Age |
| ------- | -------- | -------- | ---- | --- |
| Initech | QA Intern | Austin, TX | [Apply](https://initech.example/qa) | 1d |
| Hooli |  | Remote | [Apply](https://hooli.example) | 3d |
`

func TestFetchHandlesOptionalSalaryColumn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardMarkdown))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL}, nil)
	rows, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3, "row without a title is dropped")

	assert.Equal(t, types.RawRow{
		Company:  "Acme",
		Title:    "SWE Intern",
		Location: "NYC",
		Link:     "https://acme.example/apply",
		DateText: "2d",
		Salary:   "$50/hr",
		JobType:  domain.JobTypeInternship,
	}, rows[0])

	assert.Equal(t, "$8,000/mo", rows[1].Salary)

	// Salary-less table: link and age shift left.
	assert.Equal(t, types.RawRow{
		Company:  "Initech",
		Title:    "QA Intern",
		Location: "Austin, TX",
		Link:     "https://initech.example/qa",
		DateText: "1d",
		JobType:  domain.JobTypeInternship,
	}, rows[2])
}

func TestFetchTagsConfiguredJobType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardMarkdown))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL, JobType: domain.JobTypeNewGrad}, nil)
	rows, err := f.Fetch(context.Background())
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, domain.JobTypeNewGrad, row.JobType)
	}
}

func TestFetchUpstreamErrorIsSourceFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL}, nil)
	_, err := f.Fetch(context.Background())

	var sfe *types.SourceFetchError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, "speedyapply", sfe.Source)
}
