package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/sortby"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{Query: "  inflation "}, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "inflation" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Page() != 1 {
		t.Errorf("Page() = %d, want 1", r.Page())
	}
	if r.Size() != 10 {
		t.Errorf("Size() = %d, want 10", r.Size())
	}
	if r.SortBy() != sortby.Relevance {
		t.Errorf("SortBy() = %q, want relevance", r.SortBy())
	}
	if len(r.Types()) != len(contenttype.All()) {
		t.Errorf("Types() = %d types, want all", len(r.Types()))
	}
	if r.UserVector() != nil {
		t.Errorf("UserVector() = %v, want nil", r.UserVector())
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New(Params{
		Query:      "gdp",
		Page:       3,
		Size:       25,
		SortBy:     "release_date",
		Types:      []string{"bulletin", "article"},
		UserVector: []float32{1, 2},
	}, Limits{DefaultPageSize: 10, MaxPageSize: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Page() != 3 || r.Size() != 25 {
		t.Errorf("Page/Size = %d/%d", r.Page(), r.Size())
	}
	if r.SortBy() != sortby.ReleaseDate {
		t.Errorf("SortBy() = %q", r.SortBy())
	}
	names := contenttype.Names(r.Types())
	if strings.Join(names, ",") != "bulletin,article" {
		t.Errorf("Types() = %v", names)
	}
	if len(r.UserVector()) != 2 {
		t.Errorf("UserVector() = %v", r.UserVector())
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"empty query", Params{Query: "   "}, domain.ErrMalformedInput},
		{"query too long", Params{Query: strings.Repeat("a", MaxQueryLength+1)}, domain.ErrMalformedInput},
		{"size over max", Params{Query: "x", Size: 251}, domain.ErrRequestTooLarge},
		{"bad sort", Params{Query: "x", SortBy: "score"}, domain.ErrMalformedInput},
		{"unknown type", Params{Query: "x", Types: []string{"bulletin", "podcast"}}, domain.ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p, Limits{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var de *domain.Error
			if !errors.As(err, &de) || de.Field == "" {
				t.Errorf("error %v lacks field context", err)
			}
		})
	}
}

func TestNew_SizeAtMaxAccepted(t *testing.T) {
	r, err := New(Params{Query: "x", Size: 250}, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Size() != 250 {
		t.Errorf("Size() = %d", r.Size())
	}
}

func TestNew_NonPositivePage(t *testing.T) {
	r, err := New(Params{Query: "x", Page: -4}, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Page() != 1 {
		t.Errorf("Page() = %d, want 1", r.Page())
	}
}
