package hit

import (
	"fmt"
	"strings"

	"github.com/databill86/dp-conceptual-search/internal/domain"
)

// Hit is a single matched document with its highlight fragments keyed by field path.
type Hit struct {
	id        string
	index     string
	score     float64
	source    map[string]Value
	highlight map[string][]string
}

// New creates a hit from a typed source.
func New(id, index string, score float64, source map[string]Value, highlight map[string][]string) Hit {
	return Hit{id: id, index: index, score: score, source: source, highlight: highlight}
}

// FromSource creates a hit from a decoded JSON _source.
func FromSource(id, index string, score float64, source map[string]any, highlight map[string][]string) Hit {
	typed := make(map[string]Value, len(source))
	for k, v := range source {
		typed[k] = FromAny(v)
	}
	return New(id, index, score, typed, highlight)
}

// ID returns the document id.
func (h Hit) ID() string { return h.id }

// Index returns the index the document was found in.
func (h Hit) Index() string { return h.index }

// Score returns the relevance score.
func (h Hit) Score() float64 { return h.score }

// Highlight returns the raw highlight fragments keyed by field path.
func (h Hit) Highlight() map[string][]string { return h.highlight }

// Source returns the document fields as plain JSON-encodable data.
func (h Hit) Source() map[string]any {
	out := make(map[string]any, len(h.source))
	for k, v := range h.source {
		out[k] = v.Any()
	}
	return out
}

// Lookup resolves a dotted path. One segment addresses a top-level field, two
// segments address a field of a nested object; anything else is unresolvable.
func (h Hit) Lookup(path string) (Value, error) {
	parts := strings.Split(path, ".")
	switch len(parts) {
	case 1:
		v, ok := h.source[parts[0]]
		if !ok {
			return Value{}, unresolvable(path)
		}
		return v, nil
	case 2:
		parent, ok := h.source[parts[0]]
		if !ok || parent.kind != KindObject {
			return Value{}, unresolvable(path)
		}
		v, ok := parent.obj[parts[1]]
		if !ok {
			return Value{}, unresolvable(path)
		}
		return v, nil
	default:
		return Value{}, unresolvable(path)
	}
}

// Clone returns a copy whose source can be written without touching h.
func (h Hit) Clone() Hit {
	src := make(map[string]Value, len(h.source))
	for k, v := range h.source {
		src[k] = v.clone()
	}
	h.source = src
	return h
}

// Set replaces the value at an existing path. It never adds fields.
// Call it on a Clone; the source map is written in place.
func (h *Hit) Set(path string, v Value) error {
	if _, err := h.Lookup(path); err != nil {
		return err
	}
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		h.source[parts[0]] = v
		return nil
	}
	h.source[parts[0]].obj[parts[1]] = v
	return nil
}

func unresolvable(path string) error {
	return fmt.Errorf("%w: %q", domain.ErrUnresolvableFieldPath, path)
}
