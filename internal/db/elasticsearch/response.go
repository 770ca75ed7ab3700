package elasticsearch

import (
	"encoding/json"
	"fmt"

	"github.com/databill86/dp-conceptual-search/internal/db"
)

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total total `json:"total"`
		Hits  []struct {
			Index     string              `json:"_index"`
			ID        string              `json:"_id"`
			Score     *float64            `json:"_score"`
			Source    map[string]any      `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      any   `json:"key"`
			DocCount int64 `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

// total accepts both the legacy numeric hits.total and the {"value": n} object.
type total int64

func (t *total) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*t = total(n)
		return nil
	}
	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode hits.total: %w", err)
	}
	*t = total(obj.Value)
	return nil
}

func (r *searchResponse) toResult() *db.SearchResult {
	out := &db.SearchResult{
		Total:      int64(r.Hits.Total),
		TookMillis: r.Took,
		Hits:       make([]db.SearchHit, 0, len(r.Hits.Hits)),
	}
	for _, h := range r.Hits.Hits {
		var score float64
		if h.Score != nil {
			score = *h.Score
		}
		out.Hits = append(out.Hits, db.SearchHit{
			ID:        h.ID,
			Index:     h.Index,
			Score:     score,
			Source:    h.Source,
			Highlight: h.Highlight,
		})
	}
	if len(r.Aggregations) > 0 {
		out.Aggregations = make(map[string][]db.Bucket, len(r.Aggregations))
		for name, agg := range r.Aggregations {
			buckets := make([]db.Bucket, 0, len(agg.Buckets))
			for _, b := range agg.Buckets {
				buckets = append(buckets, db.Bucket{Key: fmt.Sprint(b.Key), DocCount: b.DocCount})
			}
			out.Aggregations[name] = buckets
		}
	}
	return out
}
