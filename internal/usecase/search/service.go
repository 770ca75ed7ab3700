package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/databill86/dp-conceptual-search/internal/db"
	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/hit"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/highlight"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/paginator"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/query"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/response"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/sortby"
	"github.com/databill86/dp-conceptual-search/internal/logger"
	"github.com/databill86/dp-conceptual-search/internal/metrics"
)

// docCountsAgg names the content-type aggregation of the counts query.
const docCountsAgg = "docCounts"

// Config tunes query construction and pagination.
type Config struct {
	NumLabels       int
	Threshold       float64
	MLTimeout       time.Duration
	MaxVisibleLinks int
	HighlightTag    string
	MinTokenSize    int
	BoostMode       string
	MinScore        float64
	LexicalFallback bool
	RequireVector   bool
	Rescore         query.RescoreOptions
}

// Service runs content, counts and featured-result searches.
type Service struct {
	store      Store
	model      Model
	reg        *field.Registry
	builder    *query.Builder
	reconciler *highlight.Reconciler
	cfg        Config
}

// New creates a search service. model can be nil, in which case content
// searches use the lexical baseline only.
func New(store Store, model Model, reg *field.Registry, cfg Config) *Service {
	if cfg.MaxVisibleLinks <= 0 {
		cfg.MaxVisibleLinks = paginator.DefaultMaxVisibleLinks
	}
	if cfg.Rescore.WindowSize <= 0 {
		cfg.Rescore = query.DefaultRescoreOptions()
	}
	return &Service{
		store:      store,
		model:      model,
		reg:        reg,
		builder:    query.NewBuilder(reg),
		reconciler: highlight.NewReconciler(reg, cfg.HighlightTag, cfg.MinTokenSize),
		cfg:        cfg,
	}
}

// Content runs a paged content search.
//
// Relevance-sorted searches expand the query with predicted keywords and score
// it by sentence-vector similarity; both ML lookups run concurrently and a
// failed prediction only drops the expansion. Other sorts use the lexical
// baseline.
func (s *Service) Content(ctx context.Context, req request.Request) (response.Envelope, error) {
	ctx = withRequestID(ctx)
	term, err := s.builder.Normalize(req.Query())
	if err != nil {
		countBuildError(err)
		return response.Envelope{}, err
	}

	var q query.Node
	if req.SortBy().IsRelevance() {
		q, err = s.relevanceQuery(ctx, req, term)
	} else {
		q, err = s.builder.Baseline(req.Query())
	}
	if err != nil {
		countBuildError(err)
		return response.Envelope{}, err
	}

	body := s.pagedBody(filtered(q, s.reg, req.Types()), req.Page(), req.Size())
	body.Sort = req.SortBy().Clauses(s.reg)

	// The store rejects rescore combined with a field sort. A user vector only
	// re-ranks relevance searches, which then sort by score alone.
	if uv := req.UserVector(); len(uv) > 0 && req.SortBy().IsRelevance() {
		rescore, err := s.builder.Rescore(query.Vector{Values: uv, Metric: query.MetricCosine}, s.cfg.Rescore)
		if err != nil {
			countBuildError(err)
			return response.Envelope{}, err
		}
		body.Rescore = &rescore
		body.Sort = nil
	}

	res, err := s.execute(ctx, "content", body)
	if err != nil {
		return response.Envelope{}, err
	}

	hits := s.reconcile(ctx, res.Hits)
	w := paginator.Compute(int(res.Total), req.Page(), req.Size(), s.cfg.MaxVisibleLinks)
	return response.Assemble(hits, res.Total, res.TookMillis, w, req.SortBy()), nil
}

// Counts returns the number of matching documents per content type.
func (s *Service) Counts(ctx context.Context, term string, types []contenttype.ContentType) (response.Counts, error) {
	ctx = withRequestID(ctx)
	if len(types) == 0 {
		types = contenttype.All()
	}
	q, err := s.builder.Baseline(term)
	if err != nil {
		countBuildError(err)
		return response.Counts{}, err
	}

	body := query.Body{
		Query: filtered(q, s.reg, types),
		Aggs: map[string]query.TermsAggregation{
			docCountsAgg: {Field: s.reg.MustGet(field.Type).Path(), Size: len(contenttype.All())},
		},
	}
	res, err := s.execute(ctx, "counts", body)
	if err != nil {
		return response.Counts{}, err
	}

	raw := res.Aggregations[docCountsAgg]
	buckets := make([]response.Bucket, len(raw))
	for i, b := range raw {
		buckets[i] = response.Bucket{Key: b.Key, DocCount: b.DocCount}
	}
	return response.AssembleCounts(buckets), nil
}

// Featured returns the single best product or census page for term.
func (s *Service) Featured(ctx context.Context, term string) (response.Envelope, error) {
	ctx = withRequestID(ctx)
	q, err := s.builder.Baseline(term)
	if err != nil {
		countBuildError(err)
		return response.Envelope{}, err
	}

	res, err := s.execute(ctx, "featured", s.pagedBody(filtered(q, s.reg, contenttype.Featured()), 1, 1))
	if err != nil {
		return response.Envelope{}, err
	}

	hits := s.reconcile(ctx, res.Hits)
	w := paginator.Compute(int(res.Total), 1, 1, s.cfg.MaxVisibleLinks)
	return response.Assemble(hits, res.Total, res.TookMillis, w, sortby.Relevance), nil
}

func (s *Service) relevanceQuery(ctx context.Context, req request.Request, term string) (query.Node, error) {
	labels, vec, err := s.signals(ctx, term)
	if err != nil {
		return nil, err
	}

	decay := query.ReleaseDateDecay(s.reg)
	in := query.ContentInput{
		Labels:          labels,
		VectorRequired:  s.cfg.RequireVector,
		Functions:       query.ContentFilterFunctions(s.reg, req.Types()),
		DateDecay:       &decay,
		BoostMode:       s.cfg.BoostMode,
		MinScore:        s.cfg.MinScore,
		LexicalFallback: s.cfg.LexicalFallback,
	}
	if len(vec) > 0 {
		in.Vector = query.Cosine(vec)
	}
	return s.builder.Content(req.Query(), in)
}

// signals fetches keyword labels and the sentence vector concurrently.
func (s *Service) signals(ctx context.Context, term string) ([]domain.Label, []float32, error) {
	if s.model == nil {
		return nil, nil, nil
	}
	if s.cfg.MLTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.MLTimeout)
		defer cancel()
	}
	log := logger.FromContext(ctx)

	var (
		labels []domain.Label
		vec    []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := s.model.Predict(gctx, term, s.cfg.NumLabels, s.cfg.Threshold)
		if err != nil {
			metrics.KeywordExpansionDegradedTotal.Inc()
			log.Warn("keyword prediction failed, searching without expansion",
				zap.String("stage", string(domain.StageKeywords)), zap.Error(err))
			return nil
		}
		labels = l
		return nil
	})
	g.Go(func() error {
		res, err := s.model.Embed(gctx, term)
		if err != nil {
			if s.cfg.RequireVector {
				return domain.NewError(domain.StageVector, "", fmt.Errorf("embed search term: %w", err))
			}
			log.Warn("sentence vector unavailable, searching lexically",
				zap.String("stage", string(domain.StageVector)), zap.Error(err))
			return nil
		}
		vec = res.Embedding
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return labels, vec, nil
}

func (s *Service) pagedBody(q query.Node, page, size int) query.Body {
	fields := s.reg.Highlighted()
	paths := make([]string, len(fields))
	for i, f := range fields {
		paths[i] = f.Path()
	}
	return query.Body{
		From:           (page - 1) * size,
		Size:           size,
		Query:          q,
		Highlight:      &query.Highlight{Tag: s.reconcilerTag(), Fields: paths},
		SourceExcludes: []string{s.reg.MustGet(field.EmbeddingVector).Path()},
	}
}

func (s *Service) reconcilerTag() string {
	if s.cfg.HighlightTag == "" {
		return highlight.DefaultTag
	}
	return s.cfg.HighlightTag
}

func (s *Service) execute(ctx context.Context, op string, body query.Body) (*db.SearchResult, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewError(domain.StageQuery, "", fmt.Errorf("encode search body: %w", err))
	}

	start := time.Now()
	res, err := s.store.Search(ctx, data)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, domain.NewError(domain.StageExecute, "",
			fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err))
	}
	return res, nil
}

func (s *Service) reconcile(ctx context.Context, raw []db.SearchHit) []hit.Hit {
	hits := make([]hit.Hit, len(raw))
	for i, h := range raw {
		hits[i] = hit.FromSource(h.ID, h.Index, h.Score, h.Source, h.Highlight)
	}

	out, errs := s.reconciler.Reconcile(hits)
	if len(errs) > 0 {
		log := logger.FromContext(ctx)
		for _, err := range errs {
			metrics.HighlightSkippedTotal.Inc()
			log.Debug("highlight skipped", zap.Error(err))
		}
	}
	return out
}

// filtered restricts q to the given content types.
func filtered(q query.Node, reg *field.Registry, types []contenttype.ContentType) query.Node {
	return query.Bool{Must: []query.Node{q}, Filter: []query.Node{query.TypeFilter(reg, types)}}
}

func withRequestID(ctx context.Context) context.Context {
	if domain.RequestIDFromContext(ctx) != "" {
		return ctx
	}
	return domain.ContextWithRequestID(ctx, uuid.NewString())
}

func countBuildError(err error) {
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrMalformedInput):
		reason = "malformed_input"
	case errors.Is(err, domain.ErrMissingSearchVector):
		reason = "missing_vector"
	case errors.Is(err, domain.ErrDimensionMismatch):
		reason = "dimension_mismatch"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		reason = "upstream"
	}
	metrics.QueryBuildErrorsTotal.WithLabelValues(reason).Inc()
}
