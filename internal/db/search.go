package db

// SearchResult is the decoded output of a search request.
type SearchResult struct {
	Total        int64
	TookMillis   int64
	Hits         []SearchHit
	Aggregations map[string][]Bucket
}

// SearchHit is a single document hit.
type SearchHit struct {
	ID        string
	Index     string
	Score     float64
	Source    map[string]any
	Highlight map[string][]string
}

// Bucket is one terms-aggregation bucket.
type Bucket struct {
	Key      string
	DocCount int64
}
