package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/databill86/dp-conceptual-search/internal/db"
	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	"github.com/databill86/dp-conceptual-search/internal/metrics"
)

// --- Fakes ---

type fakeStore struct {
	result *db.SearchResult
	err    error
	bodies []string
}

func (f *fakeStore) Search(_ context.Context, body []byte) (*db.SearchResult, error) {
	f.bodies = append(f.bodies, string(body))
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &db.SearchResult{}, nil
	}
	return f.result, nil
}

func (f *fakeStore) lastBody(t *testing.T) map[string]any {
	t.Helper()
	require.NotEmpty(t, f.bodies, "store was not called")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.bodies[len(f.bodies)-1]), &m))
	return m
}

type fakeModel struct {
	labels     []domain.Label
	predictErr error
	vec        []float32
	embedErr   error

	predictTerm string
	embedTerm   string
	predictID   string
	embedID     string
	calls       int
}

func (m *fakeModel) Predict(ctx context.Context, text string, _ int, _ float64) ([]domain.Label, error) {
	m.predictTerm = text
	m.predictID = domain.RequestIDFromContext(ctx)
	return m.labels, m.predictErr
}

func (m *fakeModel) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.embedTerm = text
	m.embedID = domain.RequestIDFromContext(ctx)
	if m.embedErr != nil {
		return domain.EmbeddingResult{}, m.embedErr
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Helpers ---

func newService(store Store, model Model, cfg Config) *Service {
	if cfg.HighlightTag == "" {
		cfg.HighlightTag = "strong"
	}
	if cfg.MinTokenSize == 0 {
		cfg.MinTokenSize = 2
	}
	return New(store, model, field.Default(3), cfg)
}

func newRequest(t *testing.T, p request.Params) request.Request {
	t.Helper()
	req, err := request.New(p, request.Limits{})
	require.NoError(t, err)
	return req
}

func encoded(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func educationResult() *db.SearchResult {
	return &db.SearchResult{
		Total:      47,
		TookMillis: 9,
		Hits: []db.SearchHit{{
			ID:    "a",
			Index: "ons",
			Score: 4.2,
			Source: map[string]any{
				"type":        "bulletin",
				"description": map[string]any{"title": "A study of education policy"},
			},
			Highlight: map[string][]string{"description.title": {"A study of <strong>education</strong> policy"}},
		}},
	}
}

// --- Tests ---

func TestContent_Relevance(t *testing.T) {
	store := &fakeStore{result: educationResult()}
	model := &fakeModel{
		labels: []domain.Label{{Name: "raspberry_pi", Confidence: 0.9}},
		vec:    []float32{0.1, 0.2, 0.3},
	}
	svc := newService(store, model, Config{NumLabels: 10, Threshold: 0.1, BoostMode: "avg", LexicalFallback: true})

	env, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "  rpi ", Page: 2}))
	require.NoError(t, err)

	assert.Equal(t, "rpi", model.predictTerm)
	assert.Equal(t, "rpi", model.embedTerm)
	assert.NotEmpty(t, model.predictID, "request id not propagated")
	assert.Equal(t, model.predictID, model.embedID)

	body := store.lastBody(t)
	assert.EqualValues(t, 10, body["from"])
	assert.EqualValues(t, 10, body["size"])
	assert.Equal(t, map[string]any{"excludes": []any{"embedding_vector"}}, body["_source"])
	assert.NotNil(t, body["highlight"])
	assert.Equal(t, []any{
		map[string]any{"_score": map[string]any{"order": "desc"}},
		map[string]any{"description.releaseDate": map[string]any{"order": "desc"}},
	}, body["sort"])

	raw := store.bodies[0]
	assert.Contains(t, raw, `"lang":"knn"`)
	assert.Contains(t, raw, `"description.keywords_raw":{"query":"raspberry pi","boost":0.9}`)
	assert.Contains(t, raw, `"filter":[{"terms":{"type":[`)
	assert.Contains(t, raw, `"linear":{"description.releaseDate"`)

	assert.Equal(t, int64(47), env.NumberOfResults)
	assert.Equal(t, int64(9), env.Took)
	assert.Equal(t, "relevance", env.SortBy)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, env.Paginator.Pages)
	require.Len(t, env.Results, 1)
	desc := env.Results[0]["description"].(map[string]any)
	assert.Equal(t, "A study of <strong>education</strong> policy", desc["title"])
}

func TestContent_PredictFailureDegrades(t *testing.T) {
	store := &fakeStore{}
	model := &fakeModel{predictErr: domain.ErrUpstreamUnavailable, vec: []float32{1, 0, 0}}
	svc := newService(store, model, Config{})

	before := testutil.ToFloat64(metrics.KeywordExpansionDegradedTotal)
	_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "rpi"}))
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.KeywordExpansionDegradedTotal))
	assert.NotContains(t, store.bodies[0], `"description.keywords_raw":{"query"`)
	assert.Contains(t, store.bodies[0], "script_score")
}

func TestContent_NoVectorFallsBackToLexical(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, &fakeModel{embedErr: domain.ErrUpstreamUnavailable}, Config{})

	_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "Zuul"}))
	require.NoError(t, err)
	assert.NotContains(t, store.bodies[0], "script_score")
}

func TestContent_RequiredVector(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		want  error
	}{
		{"embed error", &fakeModel{embedErr: domain.ErrUpstreamUnavailable}, domain.ErrUpstreamUnavailable},
		{"absent vector", &fakeModel{}, domain.ErrMissingSearchVector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := newService(store, tt.model, Config{RequireVector: true})

			_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "rpi"}))
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.bodies, "store must not be called")
		})
	}
}

func TestContent_NonRelevanceSortUsesBaseline(t *testing.T) {
	store := &fakeStore{}
	model := &fakeModel{vec: []float32{1, 0, 0}}
	svc := newService(store, model, Config{})

	env, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "rpi", SortBy: "release_date"}))
	require.NoError(t, err)

	assert.Empty(t, model.predictTerm, "model must not be called")
	assert.NotContains(t, store.bodies[0], "function_score")
	body := store.lastBody(t)
	assert.Equal(t, map[string]any{"description.releaseDate": map[string]any{"order": "desc"}}, body["sort"].([]any)[0])
	assert.Equal(t, "release_date", env.SortBy)
}

func TestContent_NilModel(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil, Config{})

	_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "rpi"}))
	require.NoError(t, err)
	assert.NotContains(t, store.bodies[0], "script_score")
}

func TestContent_UserVectorRescore(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil, Config{})

	_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "rpi", UserVector: []float32{0.5, 0.5, 0.5}}))
	require.NoError(t, err)

	body := store.lastBody(t)
	rescore := body["rescore"].(map[string]any)
	assert.EqualValues(t, 100, rescore["window_size"])
	assert.NotContains(t, body, "sort")
}

func TestContent_UserVectorIgnoredForFieldSort(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil, Config{})

	_, err := svc.Content(context.Background(), newRequest(t, request.Params{
		Query:      "rpi",
		SortBy:     "release_date",
		UserVector: []float32{0.5, 0.5, 0.5},
	}))
	require.NoError(t, err)

	body := store.lastBody(t)
	assert.NotContains(t, body, "rescore")
	sorts := body["sort"].([]any)
	require.Len(t, sorts, 2)
	assert.Contains(t, sorts[0], "description.releaseDate")
}

func TestContent_UserVectorDimensionMismatch(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil, Config{})

	_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "rpi", UserVector: []float32{1}}))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Empty(t, store.bodies)
}

func TestContent_MalformedTerm(t *testing.T) {
	store := &fakeStore{}
	model := &fakeModel{}
	svc := newService(store, model, Config{})

	_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "?!*"}))
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Empty(t, store.bodies)
	assert.Empty(t, model.predictTerm)
}

func TestContent_StoreError(t *testing.T) {
	storeErr := &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	svc := newService(&fakeStore{err: storeErr}, nil, Config{})

	_, err := svc.Content(context.Background(), newRequest(t, request.Params{Query: "rpi"}))
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, db.ErrIndexNotFound)

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.StageExecute, de.Stage)
}

func TestContent_KeepsCallerRequestID(t *testing.T) {
	model := &fakeModel{}
	svc := newService(&fakeStore{}, model, Config{})

	ctx := domain.ContextWithRequestID(context.Background(), "req-7")
	_, err := svc.Content(ctx, newRequest(t, request.Params{Query: "rpi"}))
	require.NoError(t, err)
	assert.Equal(t, "req-7", model.embedID)
}

func TestCounts(t *testing.T) {
	store := &fakeStore{result: &db.SearchResult{
		Total: 17,
		Aggregations: map[string][]db.Bucket{
			"docCounts": {{Key: "bulletin", DocCount: 12}, {Key: "article", DocCount: 5}},
		},
	}}
	svc := newService(store, nil, Config{})

	counts, err := svc.Counts(context.Background(), "rpi", nil)
	require.NoError(t, err)

	assert.JSONEq(t, `{"numberOfResults":17,"docCounts":{"bulletin":12,"article":5}}`, encoded(t, counts))

	body := store.lastBody(t)
	assert.EqualValues(t, 0, body["size"])
	assert.Equal(t, map[string]any{
		"docCounts": map[string]any{"terms": map[string]any{"field": "type", "size": float64(len(contenttype.All()))}},
	}, body["aggs"])
	assert.Nil(t, body["highlight"])
}

func TestCounts_Malformed(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store, nil, Config{})

	_, err := svc.Counts(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Empty(t, store.bodies)
}

func TestFeatured(t *testing.T) {
	store := &fakeStore{result: educationResult()}
	svc := newService(store, &fakeModel{}, Config{})

	env, err := svc.Featured(context.Background(), "census")
	require.NoError(t, err)

	body := store.lastBody(t)
	assert.EqualValues(t, 0, body["from"])
	assert.EqualValues(t, 1, body["size"])
	assert.Contains(t, store.bodies[0], `{"terms":{"type":["product_page","home_page_census"]}}`)
	assert.NotContains(t, store.bodies[0], "function_score")

	assert.Equal(t, "relevance", env.SortBy)
	assert.Equal(t, 1, env.Paginator.CurrentPage)
	assert.Len(t, env.Results, 1)
}
