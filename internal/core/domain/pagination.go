package domain

const (
	DefaultPage     = 1
	DefaultPageSize = 9
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Limit
}

// PageInfo describes a page of results.
type PageInfo struct {
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
}

// NewPageInfo builds pagination metadata for total items.
func NewPageInfo(p Page, total int) PageInfo {
	n := p.Normalize()
	pages := 0
	if total > 0 {
		pages = (total + n.Limit - 1) / n.Limit
	}
	return PageInfo{
		CurrentPage: n.Number,
		Limit:       n.Limit,
		TotalItems:  total,
		TotalPages:  pages,
	}
}
