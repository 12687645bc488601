package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"scout-engine/internal/domain"
)

const alertSubject = "New Job Listings Match Your Criteria"

var alertTmpl = template.Must(template.New("alert").Parse(`<h1>New Job Listings</h1>
<p>We found {{len .Listings}} new {{if eq (len .Listings) 1}}listing{{else}}listings{{end}} matching your criteria:</p>
{{range .Listings}}<div style="margin-bottom: 20px;">
  <h2>{{.Title}}</h2>
  <p><strong>{{.Company}}</strong> - {{.Location}}</p>
  {{if .Salary}}<p>{{.Salary}}</p>{{end}}
  <p><a href="{{.Link}}">View Listing</a></p>
</div>
{{end}}`))

// RenderAlert builds the one bundled message for a subscription's
// qualifying listings. html/template escaping matters here: every
// field is scraped text.
func RenderAlert(listings []domain.Listing) (subject, htmlBody string, err error) {
	var buf bytes.Buffer
	data := struct{ Listings []domain.Listing }{listings}
	if err := alertTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render alert body: %w", err)
	}
	return alertSubject, buf.String(), nil
}
