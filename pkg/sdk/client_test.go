package conceptualsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	dbES "github.com/databill86/dp-conceptual-search/internal/db/elasticsearch"
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/response"
	healthuc "github.com/databill86/dp-conceptual-search/internal/usecase/health"
)

func TestNew_NoElasticsearch(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no index or addresses provided")
	}
	_, err = New(context.Background(), WithElasticsearch("ons"))
	if err == nil {
		t.Fatal("expected error when no addresses provided")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithElasticsearch("ons", "http://es1:9200", "http://es2:9200").apply(cfg)
	if cfg.index != "ons" || len(cfg.addresses) != 2 {
		t.Errorf("index/addresses = %q/%v", cfg.index, cfg.addresses)
	}

	WithBasicAuth("elastic", "secret").apply(cfg)
	if cfg.username != "elastic" || cfg.password != "secret" {
		t.Errorf("auth = %q/%q", cfg.username, cfg.password)
	}

	WithValkeyCache("localhost:6379", "pass", time.Hour).apply(cfg)
	if cfg.cacheAddr != "localhost:6379" || cfg.cachePassword != "pass" || cfg.cacheTTL != time.Hour {
		t.Errorf("cache = %q/%q/%v", cfg.cacheAddr, cfg.cachePassword, cfg.cacheTTL)
	}

	WithVectorDimensions(768).apply(cfg)
	if cfg.vectorDimensions != 768 {
		t.Errorf("vectorDimensions = %d, want 768", cfg.vectorDimensions)
	}

	WithKeywordLabels(5, 0.3).apply(cfg)
	if cfg.numLabels != 5 || cfg.threshold != 0.3 {
		t.Errorf("labels = (%d, %v), want (5, 0.3)", cfg.numLabels, cfg.threshold)
	}

	WithPageSize(20, 100).apply(cfg)
	if cfg.defaultPageSize != 20 || cfg.maxPageSize != 100 {
		t.Errorf("page size = (%d, %d)", cfg.defaultPageSize, cfg.maxPageSize)
	}

	m := &mockModel{}
	WithModel(m).apply(cfg)
	if cfg.model != m {
		t.Error("expected model to be set")
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilCache(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestModelAdapter(t *testing.T) {
	a := &modelAdapter{inner: &mockModel{
		predictFn: func(_ context.Context, text string, topK int, threshold float64) ([]Label, error) {
			if text != "census" || topK != 3 || threshold != 0.2 {
				t.Errorf("predict args = %q/%d/%v", text, topK, threshold)
			}
			return []Label{{Name: "census_2021", Confidence: 0.9}}, nil
		},
		embedFn: func(_ context.Context, _ string) ([]float32, error) {
			return []float32{1, 2, 3}, nil
		},
	}}

	labels, err := a.Predict(context.Background(), "census", 3, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 1 || labels[0].Name != "census_2021" || labels[0].Confidence != 0.9 {
		t.Errorf("labels = %+v", labels)
	}

	res, err := a.Embed(context.Background(), "census")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.Absent() {
		t.Errorf("embedding = %+v", res)
	}
}

func TestModelAdapter_Errors(t *testing.T) {
	boom := errors.New("provider down")
	a := &modelAdapter{inner: &mockModel{
		predictFn: func(context.Context, string, int, float64) ([]Label, error) { return nil, boom },
		embedFn:   func(context.Context, string) ([]float32, error) { return nil, boom },
	}}

	if _, err := a.Predict(context.Background(), "x", 1, 0); !errors.Is(err, boom) {
		t.Errorf("predict error = %v", err)
	}
	if _, err := a.Embed(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("embed error = %v", err)
	}
}

func TestContent_PassesValidatedRequest(t *testing.T) {
	var got request.Request
	c := testClient(&mockSearchUC{
		contentFn: func(_ context.Context, req request.Request) (response.Envelope, error) {
			got = req
			return response.Envelope{NumberOfResults: 7}, nil
		},
	}, nil)
	c.limits = request.Limits{DefaultPageSize: 20, MaxPageSize: 50}

	res, err := c.Content(context.Background(), ContentQuery{Query: " gdp ", SortBy: "title", Types: []string{"bulletin"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NumberOfResults != 7 {
		t.Errorf("NumberOfResults = %d", res.NumberOfResults)
	}
	if got.Query() != "gdp" || got.Page() != 1 || got.Size() != 20 || got.SortBy() != "title" {
		t.Errorf("request = %q/%d/%d/%q", got.Query(), got.Page(), got.Size(), got.SortBy())
	}
	if len(got.Types()) != 1 || got.Types()[0].Name() != "bulletin" {
		t.Errorf("types = %v", contenttype.Names(got.Types()))
	}
}

func TestContent_InvalidRequest(t *testing.T) {
	called := false
	c := testClient(&mockSearchUC{
		contentFn: func(context.Context, request.Request) (response.Envelope, error) {
			called = true
			return response.Envelope{}, nil
		},
	}, nil)

	tests := []struct {
		name string
		q    ContentQuery
		want error
	}{
		{"empty query", ContentQuery{}, ErrMalformedInput},
		{"bad sort", ContentQuery{Query: "gdp", SortBy: "colour"}, ErrMalformedInput},
		{"too large", ContentQuery{Query: "gdp", Size: 1000}, ErrRequestTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Content(context.Background(), tt.q)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
	if called {
		t.Error("search service called for an invalid request")
	}
}

func TestCounts(t *testing.T) {
	var gotTypes []contenttype.ContentType
	c := testClient(&mockSearchUC{
		countsFn: func(_ context.Context, term string, types []contenttype.ContentType) (response.Counts, error) {
			gotTypes = types
			return response.Counts{NumberOfResults: 3, DocCounts: map[string]int64{"article": 3}}, nil
		},
	}, nil)

	res, err := c.Counts(context.Background(), "gdp", "article")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NumberOfResults != 3 || res.DocCounts["article"] != 3 {
		t.Errorf("counts = %+v", res)
	}
	if len(gotTypes) != 1 || gotTypes[0].Name() != "article" {
		t.Errorf("types = %v", contenttype.Names(gotTypes))
	}

	_, err = c.Counts(context.Background(), "gdp", "podcast")
	if !errors.Is(err, ErrMalformedInput) || !strings.Contains(err.Error(), "podcast") {
		t.Errorf("unknown type error = %v", err)
	}
}

func TestFeatured_Error(t *testing.T) {
	c := testClient(&mockSearchUC{
		featuredFn: func(context.Context, string) (response.Envelope, error) {
			return response.Envelope{}, ErrUpstreamUnavailable
		},
	}, nil)

	_, err := c.Featured(context.Background(), "census")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("error = %v", err)
	}
}

func TestHealth(t *testing.T) {
	c := testClient(nil, &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"elasticsearch": healthuc.CheckOK, "cache": healthuc.CheckError},
	}})

	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("status = %q", h.Status)
	}
	if h.Checks["elasticsearch"] != "ok" || h.Checks["cache"] != "error" {
		t.Errorf("checks = %v", h.Checks)
	}
}

func TestWireClient_SearchesIndex(t *testing.T) {
	ft := &fakeTransport{body: `{"took": 4, "hits": {"total": {"value": 1}, "hits": [
		{"_index": "ons", "_id": "a", "_score": 2, "_source": {"uri": "/a", "type": "bulletin"}}
	]}}`}
	store, err := dbES.NewStore(dbES.Config{Addresses: []string{"http://es:9200"}, Index: "ons", Transport: ft})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	cfg := &clientConfig{vectorDimensions: 3, numLabels: 2, threshold: 0.1}
	c := wireClient(store, nil, cfg, nil)

	res, err := c.Content(context.Background(), ContentQuery{Query: "gdp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.lastPath != "/ons/_search" {
		t.Errorf("path = %q", ft.lastPath)
	}
	if strings.Contains(ft.lastBody, "script_score") {
		t.Error("lexical search without a model must not score by vector")
	}
	if res.NumberOfResults != 1 || len(res.Results) != 1 || res.Took != 4 {
		t.Errorf("results = %+v", res)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("content", time.Now(), searchOutcome{term: "rpi"}, nil)
	obs.observe("content", time.Now(), searchOutcome{}, errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("content", time.Now().Add(-10*time.Millisecond), searchOutcome{term: "rpi", results: 4}, nil)
	obs.observe("content", time.Now(), searchOutcome{term: "rpi"}, errors.New("fail"))

	if got := testutil.ToFloat64(obs.metrics.searches.WithLabelValues("content", "ok")); got != 1 {
		t.Errorf("ok searches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.searches.WithLabelValues("content", "error")); got != 1 {
		t.Errorf("failed searches = %v, want 1", got)
	}
}

func TestObserver_ZeroResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("featured", time.Now(), searchOutcome{term: "nothing here"}, nil)
	obs.observe("featured", time.Now(), searchOutcome{term: "cpi", results: 1}, nil)
	// Failures are not counted as empty result sets.
	obs.observe("featured", time.Now(), searchOutcome{term: "cpi"}, errors.New("fail"))

	if got := testutil.ToFloat64(obs.metrics.zeroResults.WithLabelValues("featured")); got != 1 {
		t.Errorf("zero results = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first newObserver: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second newObserver: %v", err)
	}

	first.observe("counts", time.Now(), searchOutcome{results: 2}, nil)
	second.observe("counts", time.Now(), searchOutcome{results: 2}, nil)
	if got := testutil.ToFloat64(first.metrics.searches.WithLabelValues("counts", "ok")); got != 2 {
		t.Errorf("shared counter = %v, want 2", got)
	}
}

func TestObserver_LogsTermLengthAndResults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs, err := newObserver(logger, nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("content", time.Now(), searchOutcome{term: "économie", results: 12}, nil)
	obs.observe("content", time.Now(), searchOutcome{term: "rpi"}, errors.New("test error"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}

	var done map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &done); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if done["msg"] != "search completed" || done["term_length"] != float64(8) || done["results"] != float64(12) {
		t.Errorf("completed entry = %v", done)
	}

	var failed map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &failed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if failed["level"] != "WARN" || failed["term_length"] != float64(3) || failed["error"] != "test error" {
		t.Errorf("failed entry = %v", failed)
	}
	if _, ok := failed["results"]; ok {
		t.Error("failed entry should not carry a result count")
	}
	if strings.Contains(buf.String(), "rpi") {
		t.Error("search term must not be logged")
	}
}
