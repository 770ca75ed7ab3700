// Package response assembles the client-facing result envelopes.
package response

import (
	"github.com/databill86/dp-conceptual-search/internal/domain/hit"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/paginator"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/sortby"
)

// Paginator is the wire form of a pagination window.
type Paginator struct {
	NumberOfPages int   `json:"numberOfPages"`
	CurrentPage   int   `json:"currentPage"`
	Start         int   `json:"start"`
	End           int   `json:"end"`
	Pages         []int `json:"pages"`
}

// Envelope is the content search response.
type Envelope struct {
	NumberOfResults int64            `json:"numberOfResults"`
	Took            int64            `json:"took"`
	Results         []map[string]any `json:"results"`
	DocCounts       map[string]int64 `json:"docCounts"`
	Paginator       Paginator        `json:"paginator"`
	SortBy          string           `json:"sortBy"`
}

// Counts is the aggregation response.
type Counts struct {
	NumberOfResults int64            `json:"numberOfResults"`
	DocCounts       map[string]int64 `json:"docCounts"`
}

// Bucket is one aggregation bucket.
type Bucket struct {
	Key      string
	DocCount int64
}

// Assemble builds the envelope. NumberOfResults is the store total, unmodified.
func Assemble(hits []hit.Hit, total, tookMillis int64, w paginator.Window, sortBy sortby.SortBy) Envelope {
	results := make([]map[string]any, len(hits))
	for i, h := range hits {
		results[i] = h.Source()
	}

	pages := make([]int, len(w.Pages))
	copy(pages, w.Pages)

	return Envelope{
		NumberOfResults: total,
		Took:            tookMillis,
		Results:         results,
		DocCounts:       map[string]int64{},
		Paginator: Paginator{
			NumberOfPages: w.NumberOfPages,
			CurrentPage:   w.CurrentPage,
			Start:         w.Start,
			End:           w.End,
			Pages:         pages,
		},
		SortBy: string(sortBy),
	}
}

// AggregationCounts maps bucket keys to document counts. The total is the sum
// of the bucket counts.
func AggregationCounts(buckets []Bucket) (map[string]int64, int64) {
	counts := make(map[string]int64, len(buckets))
	var total int64
	for _, b := range buckets {
		counts[b.Key] += b.DocCount
		total += b.DocCount
	}
	return counts, total
}

// AssembleCounts builds the aggregation response.
func AssembleCounts(buckets []Bucket) Counts {
	counts, total := AggregationCounts(buckets)
	return Counts{NumberOfResults: total, DocCounts: counts}
}
