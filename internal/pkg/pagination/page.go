// Package pagination implements page-number pagination for list endpoints.
package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params are the page-number parameters of a list request
type Params struct {
	Page     int
	PageSize int
}

// NewParams clamps page and size to sane values
func NewParams(page, size int) Params {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Params{Page: page, PageSize: size}
}

// Limit is the SQL LIMIT for these params
func (p Params) Limit() int {
	return p.PageSize
}

// Offset is the SQL OFFSET for these params
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Info describes where a page sits in the full result set
type Info struct {
	Count       int64 `json:"count"`
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewInfo builds page info for a total row count
func NewInfo(p Params, count int64) Info {
	pages := int((count + int64(p.PageSize) - 1) / int64(p.PageSize))
	return Info{
		Count:       count,
		Page:        p.Page,
		PageSize:    p.PageSize,
		TotalPages:  pages,
		HasNext:     p.Page < pages,
		HasPrevious: p.Page > 1,
	}
}

// Page is a slice of results together with its page info
type Page[T any] struct {
	Results []T
	Info    Info
}

// NewPage pairs results with page info, never returning a nil slice
func NewPage[T any](results []T, p Params, count int64) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Results: results, Info: NewInfo(p, count)}
}
