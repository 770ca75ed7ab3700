package conceptualsearch

import "github.com/databill86/dp-conceptual-search/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMalformedInput      = domain.ErrMalformedInput
	ErrMissingSearchVector = domain.ErrMissingSearchVector
	ErrDimensionMismatch   = domain.ErrDimensionMismatch
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
	ErrRequestTooLarge     = domain.ErrRequestTooLarge
)
