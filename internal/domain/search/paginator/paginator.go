package paginator

// Defaults for the pagination knobs.
const (
	DefaultMaxVisibleLinks = 5
	DefaultResultsPerPage  = 10
)

// Window is the block of page links shown around the current page.
type Window struct {
	CurrentPage   int
	NumberOfPages int
	Start         int
	End           int
	PageSize      int
	Pages         []int
}

// Compute derives the pagination window for a result count.
//
// When every page fits the window spans 1..NumberOfPages (1..1 for zero
// results). Otherwise the window ends ceil(maxVisible/2) pages after the current
// page, clamped to [maxVisible, NumberOfPages], and always shows maxVisible links.
// Non-positive pageSize and maxVisible are treated as 1.
func Compute(totalResults, currentPage, pageSize, maxVisible int) Window {
	if pageSize < 1 {
		pageSize = 1
	}
	if maxVisible < 1 {
		maxVisible = 1
	}
	if totalResults < 0 {
		totalResults = 0
	}

	numberOfPages := ceilDiv(totalResults, pageSize)

	var start, end int
	if numberOfPages <= maxVisible {
		start, end = 1, max(numberOfPages, 1)
	} else {
		end = clamp(currentPage+ceilDiv(maxVisible, 2), maxVisible, numberOfPages)
		start = max(end-maxVisible+1, 1)
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}

	return Window{
		CurrentPage:   currentPage,
		NumberOfPages: numberOfPages,
		Start:         start,
		End:           end,
		PageSize:      pageSize,
		Pages:         pages,
	}
}

// Offset returns the index of the first hit on the current page.
func (w Window) Offset() int {
	if w.CurrentPage <= 1 {
		return 0
	}
	return (w.CurrentPage - 1) * w.PageSize
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
