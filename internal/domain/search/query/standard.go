package query

import (
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
)

// StandardContentQuery is the lexical baseline: the best of the title variants,
// the descriptive text fields, keywords, identifiers and the editorial search
// boost. Boosts come from the field registry.
func StandardContentQuery(reg *field.Registry, term string) Node {
	match := func(name, operator string) Match {
		f := reg.MustGet(name)
		return Match{Field: f.Path(), Query: term, Boost: f.BoostValue(), Operator: operator}
	}

	return DisMax{Queries: []Node{
		Bool{Should: []Node{
			match(field.TitleNoDates, "and"),
			match(field.TitleNoStem, "and"),
			match(field.Title, ""),
			match(field.Edition, ""),
		}},
		DisMax{Queries: []Node{
			match(field.Summary, ""),
			match(field.MetaDescription, ""),
			match(field.Abstract, ""),
		}},
		match(field.Keywords, "and"),
		DisMax{Queries: []Node{
			match(field.CDID, ""),
			match(field.DatasetID, ""),
		}},
		match(field.SearchBoost, "and"),
	}}
}

// TypeFilter restricts results to the given content types.
func TypeFilter(reg *field.Registry, types []contenttype.ContentType) Node {
	return Terms{Field: reg.MustGet(field.Type).Path(), Values: contenttype.Names(types)}
}

// ContentFilterFunctions weights each content type by its relevance weight.
func ContentFilterFunctions(reg *field.Registry, types []contenttype.ContentType) []Function {
	path := reg.MustGet(field.Type).Path()
	out := make([]Function, 0, len(types))
	for _, t := range types {
		out = append(out, FilterWeight{
			Filter: Terms{Field: path, Values: []string{t.Name()}},
			Weight: t.Weight(),
		})
	}
	return out
}

// ReleaseDateDecay favours recently released documents: a linear decay from now
// reaching half score one year (plus a 30 day grace period) after release.
func ReleaseDateDecay(reg *field.Registry) DateDecay {
	return DateDecay{
		Shape:  "linear",
		Field:  reg.MustGet(field.ReleaseDate).Path(),
		Origin: "now",
		Scale:  "365d",
		Offset: "30d",
		Decay:  0.5,
	}
}
