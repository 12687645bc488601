package domain

import "time"

type JobType string

const (
	JobTypeInternship JobType = "internship"
	JobTypeNewGrad    JobType = "newgrad"
)

// Listing is one normalized job posting. Listings are derived views:
// they are rebuilt from the upstream boards on every fetch cycle and
// never persisted, so there is no identity beyond the dedup key.
type Listing struct {
	Company    string    `json:"company"`
	Title      string    `json:"title"`
	Location   string    `json:"location"`
	Link       string    `json:"link"`
	DatePosted time.Time `json:"datePosted"` // UTC midnight; comparisons are whole-day
	Salary     string    `json:"salary,omitempty"`
	JobType    JobType   `json:"jobType,omitempty"`
}

// Key is the dedup identity: exact (company, title). Location is
// deliberately excluded, so the same role posted in two cities
// collapses to whichever source listed it first.
func (l Listing) Key() string {
	return l.Company + "\x00" + l.Title
}
