package conceptualsearch

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/response"
	healthuc "github.com/databill86/dp-conceptual-search/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	contentFn  func(ctx context.Context, req request.Request) (response.Envelope, error)
	countsFn   func(ctx context.Context, term string, types []contenttype.ContentType) (response.Counts, error)
	featuredFn func(ctx context.Context, term string) (response.Envelope, error)
}

func (m *mockSearchUC) Content(ctx context.Context, req request.Request) (response.Envelope, error) {
	return m.contentFn(ctx, req)
}

func (m *mockSearchUC) Counts(
	ctx context.Context, term string, types []contenttype.ContentType,
) (response.Counts, error) {
	return m.countsFn(ctx, term, types)
}

func (m *mockSearchUC) Featured(ctx context.Context, term string) (response.Envelope, error) {
	return m.featuredFn(ctx, term)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- Model mock ---

type mockModel struct {
	predictFn func(ctx context.Context, text string, topK int, threshold float64) ([]Label, error)
	embedFn   func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockModel) Predict(ctx context.Context, text string, topK int, threshold float64) ([]Label, error) {
	return m.predictFn(ctx, text, topK, threshold)
}

func (m *mockModel) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.embedFn(ctx, text)
}

// --- Elasticsearch transport fake ---

type fakeTransport struct {
	body     string
	lastPath string
	lastBody string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.lastPath = req.URL.Path
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		f.lastBody = string(b)
	}
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

// --- helpers ---

func testClient(searchSvc searchUseCase, healthSvc healthUseCase) *Client {
	return &Client{searchSvc: searchSvc, healthSvc: healthSvc}
}
