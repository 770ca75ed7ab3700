package query

import (
	"encoding/json"
)

// Sort orders results by a field.
type Sort struct {
	Field string
	Order string // asc or desc
}

// MarshalJSON encodes {field: {"order": order}}.
func (s Sort) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]string{s.Field: {"order": s.Order}})
}

// Highlight requests whole-field highlighting of Fields wrapped in Tag.
type Highlight struct {
	Tag    string
	Fields []string
}

type highlightField struct {
	NumberOfFragments int `json:"number_of_fragments"`
}

type highlightBody struct {
	PreTags  []string                  `json:"pre_tags"`
	PostTags []string                  `json:"post_tags"`
	Fields   map[string]highlightField `json:"fields"`
}

// StartTag returns the opening marker.
func (h Highlight) StartTag() string { return "<" + h.Tag + ">" }

// EndTag returns the closing marker.
func (h Highlight) EndTag() string { return "</" + h.Tag + ">" }

// MarshalJSON encodes the highlight section with number_of_fragments 0 per field.
func (h Highlight) MarshalJSON() ([]byte, error) {
	fields := make(map[string]highlightField, len(h.Fields))
	for _, f := range h.Fields {
		fields[f] = highlightField{NumberOfFragments: 0}
	}
	return json.Marshal(highlightBody{
		PreTags:  []string{h.StartTag()},
		PostTags: []string{h.EndTag()},
		Fields:   fields,
	})
}

// TermsAggregation buckets documents by the values of Field.
type TermsAggregation struct {
	Field string
	Size  int
}

// MarshalJSON encodes {"terms": {"field", "size"}}.
func (a TermsAggregation) MarshalJSON() ([]byte, error) {
	type terms struct {
		Field string `json:"field"`
		Size  int    `json:"size,omitempty"`
	}
	return wrap("terms", terms(a))
}

// Body is a complete search request.
type Body struct {
	From           int
	Size           int
	Query          Node
	Sort           []Sort
	Highlight      *Highlight
	SourceExcludes []string
	Rescore        *Rescore
	Aggs           map[string]TermsAggregation
}

type sourceFilter struct {
	Excludes []string `json:"excludes"`
}

type bodyWire struct {
	From      int                         `json:"from"`
	Size      int                         `json:"size"`
	Query     Node                        `json:"query,omitempty"`
	Sort      []Sort                      `json:"sort,omitempty"`
	Highlight *Highlight                  `json:"highlight,omitempty"`
	Source    *sourceFilter               `json:"_source,omitempty"`
	Rescore   *rescoreBody                `json:"rescore,omitempty"`
	Aggs      map[string]TermsAggregation `json:"aggs,omitempty"`
}

// MarshalJSON encodes the request body.
func (b Body) MarshalJSON() ([]byte, error) {
	w := bodyWire{
		From:      b.From,
		Size:      b.Size,
		Query:     b.Query,
		Sort:      b.Sort,
		Highlight: b.Highlight,
		Aggs:      b.Aggs,
	}
	if len(b.SourceExcludes) > 0 {
		w.Source = &sourceFilter{Excludes: b.SourceExcludes}
	}
	if b.Rescore != nil {
		rb := b.Rescore.body()
		w.Rescore = &rb
	}
	return json.Marshal(w)
}
