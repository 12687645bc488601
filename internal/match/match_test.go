package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scout-engine/internal/domain"
)

func TestMatches(t *testing.T) {
	listing := domain.Listing{
		Company:  "Acme Corp",
		Title:    "SWE Intern",
		Location: "New York, NY",
	}

	tests := []struct {
		name     string
		criteria []domain.Criterion
		want     bool
	}{
		{
			name:     "empty criteria fails closed",
			criteria: nil,
			want:     false,
		},
		{
			name:     "company substring case-insensitive",
			criteria: []domain.Criterion{{Type: domain.CriterionCompany, Value: "acme"}},
			want:     true,
		},
		{
			name:     "location match",
			criteria: []domain.Criterion{{Type: domain.CriterionLocation, Value: "new york"}},
			want:     true,
		},
		{
			name:     "keyword matches title",
			criteria: []domain.Criterion{{Type: domain.CriterionKeyword, Value: "intern"}},
			want:     true,
		},
		{
			name:     "keyword never matches company",
			criteria: []domain.Criterion{{Type: domain.CriterionKeyword, Value: "acme"}},
			want:     false,
		},
		{
			name:     "keyword never matches location",
			criteria: []domain.Criterion{{Type: domain.CriterionKeyword, Value: "new york"}},
			want:     false,
		},
		{
			name: "OR across criteria",
			criteria: []domain.Criterion{
				{Type: domain.CriterionCompany, Value: "globex"},
				{Type: domain.CriterionKeyword, Value: "swe"},
			},
			want: true,
		},
		{
			name:     "no criterion matches",
			criteria: []domain.Criterion{{Type: domain.CriterionCompany, Value: "globex"}},
			want:     false,
		},
		{
			name:     "blank value never matches",
			criteria: []domain.Criterion{{Type: domain.CriterionKeyword, Value: "   "}},
			want:     false,
		},
		{
			name:     "unknown type never matches",
			criteria: []domain.Criterion{{Type: "salary", Value: "intern"}},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(listing, tt.criteria))
		})
	}
}
