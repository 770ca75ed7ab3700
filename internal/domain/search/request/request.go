package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/contenttype"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/paginator"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/sortby"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search term length in runes.
	MaxQueryLength = 1024
	// DefaultMaxPageSize caps the page size when no limit is configured.
	DefaultMaxPageSize = 250
)

// Limits bounds request parameters. Zero values select the package defaults.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

func (l Limits) withDefaults() Limits {
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = paginator.DefaultResultsPerPage
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = DefaultMaxPageSize
	}
	return l
}

// Params are the raw caller-supplied request parameters.
type Params struct {
	Query      string
	Page       int
	Size       int
	SortBy     string
	Types      []string
	UserVector []float32
}

// Request is a validated content search request.
type Request struct {
	query      string
	page       int
	size       int
	sortBy     sortby.SortBy
	types      []contenttype.ContentType
	userVector []float32
}

// New validates and normalizes search parameters.
// Defaults: page=1, size=limits.DefaultPageSize, sort=relevance, all content types.
func New(p Params, limits Limits) (Request, error) {
	limits = limits.withDefaults()

	q := strings.TrimSpace(p.Query)
	if q == "" {
		return Request{}, malformed("q", "search term is required")
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return Request{}, malformed("q", fmt.Sprintf("search term too long (max %d chars)", MaxQueryLength))
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.Size
	if size <= 0 {
		size = limits.DefaultPageSize
	}
	if size > limits.MaxPageSize {
		return Request{}, domain.NewError(domain.StageQuery, "size",
			fmt.Errorf("%w: %d exceeds max of %d", domain.ErrRequestTooLarge, size, limits.MaxPageSize))
	}

	s := sortby.SortBy(p.SortBy)
	if s == "" {
		s = sortby.Relevance
	}
	if !s.IsValid() {
		return Request{}, malformed("sort_by", fmt.Sprintf("invalid sort field: %q", p.SortBy))
	}

	types := contenttype.All()
	if len(p.Types) > 0 {
		found, unknown := contenttype.Lookup(p.Types)
		if len(unknown) > 0 {
			return Request{}, malformed("type_filters", fmt.Sprintf("unknown content types: %s", strings.Join(unknown, ", ")))
		}
		types = found
	}

	return Request{
		query:      q,
		page:       page,
		size:       size,
		sortBy:     s,
		types:      types,
		userVector: p.UserVector,
	}, nil
}

func malformed(fieldName, msg string) error {
	return domain.NewError(domain.StageQuery, fieldName, fmt.Errorf("%w: %s", domain.ErrMalformedInput, msg))
}

// Query returns the trimmed search term.
func (r *Request) Query() string { return r.query }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// Size returns the page size.
func (r *Request) Size() int { return r.size }

// SortBy returns the requested ordering.
func (r *Request) SortBy() sortby.SortBy { return r.sortBy }

// Types returns the content types searched.
func (r *Request) Types() []contenttype.ContentType { return r.types }

// UserVector returns the session vector used for rescoring, nil if none.
func (r *Request) UserVector() []float32 { return r.userVector }
