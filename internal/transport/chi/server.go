package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	"github.com/databill86/dp-conceptual-search/internal/logger"
	healthuc "github.com/databill86/dp-conceptual-search/internal/usecase/health"
	searchuc "github.com/databill86/dp-conceptual-search/internal/usecase/search"
)

// maxBodyBytes bounds the optional JSON body of a content search.
const maxBodyBytes = 1 << 20

// Server serves the search HTTP API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	limits        request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	limits request.Limits,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:        search,
		health:        health,
		limits:        limits,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers the API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Route("/search", func(r chi.Router) {
		r.Get("/content", s.SearchContent)
		r.Post("/content", s.SearchContent)
		r.Get("/counts", s.SearchCounts)
		r.Get("/featured", s.SearchFeatured)
	})
	r.Get("/healthcheck", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchContent handles GET|POST /search/content.
func (s *Server) SearchContent(w http.ResponseWriter, r *http.Request) {
	q, page, size, err := bindPaging(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var body ContentRequest
	if r.Method == http.MethodPost {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	if body.SortBy == "" {
		var sortBy *string
		if err := runtime.BindQueryParameter("form", true, false, "sort_by", r.URL.Query(), &sortBy); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		if sortBy != nil {
			body.SortBy = *sortBy
		}
	}

	req, err := request.New(request.Params{
		Query:      q,
		Page:       page,
		Size:       size,
		SortBy:     body.SortBy,
		Types:      body.TypeFilters,
		UserVector: body.UserVector,
	}, s.limits)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	env, err := s.search.Content(s.requestContext(r), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// SearchCounts handles GET /search/counts.
func (s *Server) SearchCounts(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var typeFilters *[]string
	if err := runtime.BindQueryParameter("form", true, false, "type_filters", r.URL.Query(), &typeFilters); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var names []string
	if typeFilters != nil {
		names = *typeFilters
	}
	types, unknown := contenttype.Lookup(names)
	if len(unknown) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    CodeMalformedInput,
			Message: "unknown content types: " + strings.Join(unknown, ", "),
			Field:   "type_filters",
		})
		return
	}

	counts, err := s.search.Counts(s.requestContext(r), q, types)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// SearchFeatured handles GET /search/featured.
func (s *Server) SearchFeatured(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	env, err := s.search.Featured(s.requestContext(r), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// HealthCheck handles GET /healthcheck.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindPaging binds the required q and the optional page and size parameters.
func bindPaging(r *http.Request) (q string, page, size int, err error) {
	params := r.URL.Query()
	if err = runtime.BindQueryParameter("form", true, true, "q", params, &q); err != nil {
		return "", 0, 0, fmt.Errorf("bind q: %w", err)
	}
	var pagePtr, sizePtr *int
	if err = runtime.BindQueryParameter("form", true, false, "page", params, &pagePtr); err != nil {
		return "", 0, 0, fmt.Errorf("bind page: %w", err)
	}
	if err = runtime.BindQueryParameter("form", true, false, "size", params, &sizePtr); err != nil {
		return "", 0, 0, fmt.Errorf("bind size: %w", err)
	}
	if pagePtr != nil {
		page = *pagePtr
	}
	if sizePtr != nil {
		size = *sizePtr
	}
	return q, page, size, nil
}

// decodeBody decodes an optional JSON body. An empty body is not an error.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err //nolint:wrapcheck // surfaced to the client as is
	}
	return nil
}

// requestContext carries the chi request id to the ML collaborator.
func (s *Server) requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if id := chiMiddleware.GetReqID(ctx); id != "" {
		ctx = domain.ContextWithRequestID(ctx, id)
	}
	return ctx
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logger.FromContextOr(r.Context(), s.logger)
}
