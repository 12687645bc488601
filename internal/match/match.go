package match

import (
	"strings"

	"scout-engine/internal/domain"
)

// Matches reports whether any criterion matches the listing (logical
// OR). An empty criteria set matches nothing: a subscription without
// criteria gets no mail, it does not get everything.
func Matches(l domain.Listing, criteria []domain.Criterion) bool {
	for _, c := range criteria {
		if matchesOne(l, c) {
			return true
		}
	}
	return false
}

func matchesOne(l domain.Listing, c domain.Criterion) bool {
	needle := strings.ToLower(strings.TrimSpace(c.Value))
	if needle == "" {
		return false
	}

	var hay string
	switch c.Type {
	case domain.CriterionCompany:
		hay = l.Company
	case domain.CriterionLocation:
		hay = l.Location
	case domain.CriterionKeyword:
		// keyword scopes to the title only, never company or location
		hay = l.Title
	default:
		return false
	}
	return strings.Contains(strings.ToLower(hay), needle)
}
