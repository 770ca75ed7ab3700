package sortby

import (
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/query"
)

// SortBy is the result ordering requested by the caller.
type SortBy string

// Sort field constants.
const (
	// Relevance orders by score, newest first on ties.
	Relevance      SortBy = "relevance"
	ReleaseDate    SortBy = "release_date"
	ReleaseDateAsc SortBy = "release_date_asc"
	FirstLetter    SortBy = "first_letter"
	Title          SortBy = "title"
)

// IsValid checks if the sort field is one of the supported values.
func (s SortBy) IsValid() bool {
	switch s {
	case Relevance, ReleaseDate, ReleaseDateAsc, FirstLetter, Title:
		return true
	}
	return false
}

// IsRelevance reports whether results are ordered by score. Only relevance
// ordering benefits from semantic scoring.
func (s SortBy) IsRelevance() bool { return s == Relevance }

// Clauses returns the sort clauses for s.
func (s SortBy) Clauses(reg *field.Registry) []query.Sort {
	score := query.Sort{Field: "_score", Order: "desc"}
	released := reg.MustGet(field.ReleaseDate).Path()

	switch s {
	case ReleaseDate:
		return []query.Sort{{Field: released, Order: "desc"}, score}
	case ReleaseDateAsc:
		return []query.Sort{{Field: released, Order: "asc"}, score}
	case FirstLetter:
		return []query.Sort{{Field: reg.MustGet(field.TitleFirstLetter).Path(), Order: "asc"}, score}
	case Title:
		return []query.Sort{{Field: reg.MustGet(field.TitleRaw).Path(), Order: "asc"}, score}
	default:
		return []query.Sort{score, {Field: released, Order: "desc"}}
	}
}
