package kernel

// PaginationOptions carries page/page-size query options
type PaginationOptions struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize clamps pagination options to sane bounds
func (p PaginationOptions) Normalize() PaginationOptions {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset returns the row offset for the current page
func (p PaginationOptions) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page describes the page of a paginated result
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
}

// Paginated wraps a page of items of any type
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"page"`
	Empty bool `json:"empty"`
}

// NewPaginated builds a page of items with its metadata
func NewPaginated[T any](items []T, opts PaginationOptions, total int) *Paginated[T] {
	return &Paginated[T]{
		Items: items,
		Page:  Page{Number: opts.Page, Size: opts.PageSize, Total: total},
		Empty: len(items) == 0,
	}
}
