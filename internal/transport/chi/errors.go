package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/domain"
)

// ErrorCode is the machine-readable error code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeMalformedInput      ErrorCode = "malformed_input"
	CodeMissingSearchVector ErrorCode = "missing_search_vector"
	CodeDimensionMismatch   ErrorCode = "vector_dimension_mismatch"
	CodeRequestTooLarge     ErrorCode = "request_too_large"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	CodeInternal            ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrMalformedInput, http.StatusBadRequest, CodeMalformedInput),
		sentinelHandler(domain.ErrRequestTooLarge, http.StatusBadRequest, CodeRequestTooLarge),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, CodeDimensionMismatch),
		sentinelHandler(domain.ErrMissingSearchVector, http.StatusBadRequest, CodeMissingSearchVector),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable, CodeUpstreamUnavailable),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns the client-facing message for err. Construction
// errors keep their detail; upstream failures are reduced to the sentinel so
// store and provider internals never leak.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		return domain.ErrUpstreamUnavailable.Error()
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Err.Error()
	}
	for _, s := range []error{
		domain.ErrMalformedInput,
		domain.ErrRequestTooLarge,
		domain.ErrDimensionMismatch,
		domain.ErrMissingSearchVector,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		resp := ErrorResponse{Code: code, Message: safeDomainMessage(err)}
		var de *domain.Error
		if errors.As(err, &de) && status < http.StatusInternalServerError {
			resp.Field = de.Field
		}
		writeJSON(w, status, resp)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
