package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Boards publish as GitHub-flavored markdown; the pipe tables only
// become real <table> elements after rendering, so we convert before
// handing the document to goquery.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

const maxBodyBytes = 8 << 20

// FetchMarkdownTables downloads a markdown document, renders it to
// HTML, and returns it parsed for selector queries.
func FetchMarkdownTables(ctx context.Context, hc *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "ScoutEngine/1.0 (+local)")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream status %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	var html bytes.Buffer
	if err := md.Convert(raw, &html); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	return goquery.NewDocumentFromReader(&html)
}
