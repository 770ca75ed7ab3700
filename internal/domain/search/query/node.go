// Package query models the document-store ranking query as a closed tree of
// typed nodes. Every variant serialises to the exact wire keys the store-side
// scoring script expects, and Parse reads the same shape back.
package query

import (
	"encoding/json"
	"fmt"
)

// Node is one query clause. The set of implementations is closed.
type Node interface {
	json.Marshaler
	node()
}

// Match is a full-text match on a single field.
type Match struct {
	Field    string
	Query    string
	Boost    float64 // 0 means unset
	Operator string  // "and" / "or", empty means store default
}

// Bool combines clauses by occurrence type.
type Bool struct {
	Must   []Node
	Should []Node
	Filter []Node
}

// DisMax scores a document by its best-matching sub-query.
type DisMax struct {
	Queries    []Node
	TieBreaker float64
}

// FunctionScore adjusts the score of Query with auxiliary scoring functions.
type FunctionScore struct {
	Query     Node
	Functions []Function
	BoostMode string
	ScoreMode string
	MinScore  float64 // 0 means unset
}

// Terms matches documents whose field holds any of Values exactly.
type Terms struct {
	Field  string
	Values []string
}

func (Match) node()         {}
func (Bool) node()          {}
func (DisMax) node()        {}
func (FunctionScore) node() {}
func (Terms) node()         {}

type matchBody struct {
	Query    string  `json:"query"`
	Boost    float64 `json:"boost,omitempty"`
	Operator string  `json:"operator,omitempty"`
}

// MarshalJSON encodes {"match": {field: {"query", "boost", "operator"}}}.
func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]matchBody{
		"match": {m.Field: {Query: m.Query, Boost: m.Boost, Operator: m.Operator}},
	})
}

type boolBody struct {
	Must   []Node `json:"must,omitempty"`
	Should []Node `json:"should,omitempty"`
	Filter []Node `json:"filter,omitempty"`
}

// MarshalJSON encodes {"bool": {"must", "should", "filter"}}, omitting empty lists.
func (b Bool) MarshalJSON() ([]byte, error) {
	return wrap("bool", boolBody(b))
}

type disMaxBody struct {
	Queries    []Node  `json:"queries"`
	TieBreaker float64 `json:"tie_breaker,omitempty"`
}

// MarshalJSON encodes {"dis_max": {"queries", "tie_breaker"}}.
func (d DisMax) MarshalJSON() ([]byte, error) {
	queries := d.Queries
	if queries == nil {
		queries = []Node{}
	}
	return wrap("dis_max", disMaxBody{Queries: queries, TieBreaker: d.TieBreaker})
}

type functionScoreBody struct {
	Query     Node       `json:"query,omitempty"`
	Functions []Function `json:"functions,omitempty"`
	BoostMode string     `json:"boost_mode,omitempty"`
	ScoreMode string     `json:"score_mode,omitempty"`
	MinScore  float64    `json:"min_score,omitempty"`
}

// MarshalJSON encodes {"function_score": {"query", "functions", "boost_mode", "min_score"}}.
func (f FunctionScore) MarshalJSON() ([]byte, error) {
	return wrap("function_score", functionScoreBody(f))
}

// MarshalJSON encodes {"terms": {field: [values]}}.
func (t Terms) MarshalJSON() ([]byte, error) {
	values := t.Values
	if values == nil {
		values = []string{}
	}
	return json.Marshal(map[string]map[string][]string{"terms": {t.Field: values}})
}

func wrap(key string, body any) ([]byte, error) {
	data, err := json.Marshal(map[string]any{key: body})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", key, err)
	}
	return data, nil
}
