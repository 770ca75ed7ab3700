package query

import (
	"fmt"
	"strings"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/textnorm"
)

// Metric selects how the scoring script compares vectors.
type Metric string

// Supported metrics.
const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot_product"
)

// Vector is a dense search vector and the metric it is compared with.
type Vector struct {
	Values []float32
	Metric Metric
}

// Cosine wraps values as a cosine-similarity vector.
func Cosine(values []float32) *Vector {
	return &Vector{Values: values, Metric: MetricCosine}
}

// ContentInput carries the optional signals of a content query.
type ContentInput struct {
	// Labels are the ML-predicted keywords with their confidences.
	Labels []domain.Label
	// Vector is the sentence vector of the search term, nil when unavailable.
	Vector *Vector
	// VectorRequired turns an absent Vector into ErrMissingSearchVector
	// instead of a lexical-only query.
	VectorRequired bool
	// Functions are the filter functions scored alongside the vector similarity.
	Functions []Function
	// DateDecay is added to the semantic functions when set.
	DateDecay *DateDecay
	BoostMode string
	MinScore  float64
	// LexicalFallback wraps the semantic query in a DisMax with the baseline so
	// documents found lexically always qualify.
	LexicalFallback bool
}

// Builder composes content queries.
type Builder struct {
	reg       *field.Registry
	normalize textnorm.Normalizer
	baseline  func(term string) Node
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithNormalizer replaces the search-term normaliser.
func WithNormalizer(n textnorm.Normalizer) BuilderOption {
	return func(b *Builder) { b.normalize = n }
}

// WithBaseline replaces the lexical baseline query.
func WithBaseline(fn func(term string) Node) BuilderOption {
	return func(b *Builder) { b.baseline = fn }
}

// NewBuilder creates a Builder over the field registry.
func NewBuilder(reg *field.Registry, opts ...BuilderOption) *Builder {
	b := &Builder{reg: reg, normalize: textnorm.Clean}
	b.baseline = func(term string) Node { return StandardContentQuery(reg, term) }
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Normalize cleans term and fails with ErrMalformedInput when nothing searchable is left.
func (b *Builder) Normalize(term string) (string, error) {
	clean := b.normalize(term)
	if clean == "" {
		return "", domain.NewError(domain.StageNormalize, "q",
			fmt.Errorf("%w: search term %q is empty after normalisation", domain.ErrMalformedInput, term))
	}
	return clean, nil
}

// Baseline returns the lexical baseline for term.
func (b *Builder) Baseline(term string) (Node, error) {
	if _, err := b.Normalize(term); err != nil {
		return nil, err
	}
	return b.baseline(strings.TrimSpace(term)), nil
}

// KeywordExpansion combines the baseline with a should-clause matching each
// label on the raw keywords field. Without labels the baseline is returned as is.
func (b *Builder) KeywordExpansion(term string, labels []domain.Label) (Node, error) {
	baseline, err := b.Baseline(term)
	if err != nil {
		return nil, err
	}
	return b.expand(baseline, labels), nil
}

func (b *Builder) expand(baseline Node, labels []domain.Label) Node {
	path := b.reg.MustGet(field.KeywordsRaw).Path()

	matches := make([]Node, 0, len(labels))
	for _, l := range labels {
		text := strings.TrimSpace(strings.ReplaceAll(l.Name, "_", " "))
		if text == "" {
			continue
		}
		matches = append(matches, Match{Field: path, Query: text, Boost: l.Confidence})
	}
	if len(matches) == 0 {
		return baseline
	}
	return Bool{Should: []Node{baseline, Bool{Should: matches}}}
}

// Content builds the ranking query for term.
//
// Without labels and without a vector the result is exactly the baseline. Labels
// add keyword expansion. A vector wraps the query in a FunctionScore led by the
// vector similarity script, and with LexicalFallback the FunctionScore competes
// with the (filter-weighted) baseline inside a DisMax.
func (b *Builder) Content(term string, in ContentInput) (Node, error) {
	baseline, err := b.Baseline(term)
	if err != nil {
		return nil, err
	}
	combined := b.expand(baseline, in.Labels)

	if in.Vector == nil || len(in.Vector.Values) == 0 {
		if in.VectorRequired {
			return nil, domain.NewError(domain.StageVector, "",
				fmt.Errorf("%w: no sentence vector for %q", domain.ErrMissingSearchVector, term))
		}
		return combined, nil
	}

	script, err := b.script(*in.Vector)
	if err != nil {
		return nil, err
	}

	functions := make([]Function, 0, 2+len(in.Functions))
	functions = append(functions, script)
	if in.DateDecay != nil {
		functions = append(functions, *in.DateDecay)
	}
	functions = append(functions, in.Functions...)

	semantic := FunctionScore{
		Query:     combined,
		Functions: functions,
		BoostMode: in.BoostMode,
		MinScore:  in.MinScore,
	}
	if !in.LexicalFallback {
		return semantic, nil
	}

	var lexical Node = baseline
	if len(in.Functions) > 0 {
		lexical = FunctionScore{Query: baseline, Functions: in.Functions}
	}
	return DisMax{Queries: []Node{lexical, semantic}}, nil
}

// RescoreOptions weights a rescore pass.
type RescoreOptions struct {
	ScoreMode          string
	WindowSize         int
	QueryWeight        float64
	RescoreQueryWeight float64
}

// DefaultRescoreOptions averages the original and rescore scores over the top
// 100 hits, weighting the rescore higher.
func DefaultRescoreOptions() RescoreOptions {
	return RescoreOptions{ScoreMode: ModeAvg, WindowSize: 100, QueryWeight: 0.5, RescoreQueryWeight: 1.2}
}

// Rescore re-ranks the top WindowSize hits by similarity to a user vector.
func (b *Builder) Rescore(user Vector, opts RescoreOptions) (Rescore, error) {
	if len(user.Values) == 0 {
		return Rescore{}, domain.NewError(domain.StageVector, "user_vector",
			fmt.Errorf("%w: empty user vector", domain.ErrMissingSearchVector))
	}
	script, err := b.script(user)
	if err != nil {
		return Rescore{}, err
	}
	return Rescore{
		WindowSize:         opts.WindowSize,
		ScoreMode:          opts.ScoreMode,
		Script:             script,
		QueryWeight:        opts.QueryWeight,
		RescoreQueryWeight: opts.RescoreQueryWeight,
	}, nil
}

func (b *Builder) script(v Vector) (ScriptScore, error) {
	f := b.reg.MustGet(field.EmbeddingVector)
	if dims := f.Dims(); dims > 0 && len(v.Values) != dims {
		return ScriptScore{}, domain.NewError(domain.StageVector, f.Path(),
			fmt.Errorf("%w: vector has %d dimensions, field declares %d",
				domain.ErrDimensionMismatch, len(v.Values), dims))
	}
	return ScriptScore{
		Field:  f.Path(),
		Vector: v.Values,
		Cosine: v.Metric != MetricDot,
	}, nil
}
