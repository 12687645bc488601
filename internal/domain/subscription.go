package domain

import "time"

type CriterionType string

const (
	CriterionCompany  CriterionType = "company"
	CriterionLocation CriterionType = "location"
	CriterionKeyword  CriterionType = "keyword"
)

func (t CriterionType) Valid() bool {
	switch t {
	case CriterionCompany, CriterionLocation, CriterionKeyword:
		return true
	}
	return false
}

// Criterion is one subscriber-supplied match rule. keyword matches
// against the listing title; company and location match the same-named
// fields. All matching is case-insensitive substring containment.
type Criterion struct {
	Type  CriterionType `json:"type"`
	Value string        `json:"value"`
}

// Subscription is the persisted alert registration. LastNotified is
// the watermark: listings posted on or before it are considered
// already seen. It only ever moves forward, and only after a
// successful dispatch in the cycle that advanced it.
type Subscription struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	Criteria     []Criterion `json:"criteria"`
	LastNotified time.Time   `json:"lastNotified"`
	CreatedAt    time.Time   `json:"createdAt"`
}
