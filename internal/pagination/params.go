package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Limits and defaults.
const (
	DefaultPageSize  = 25
	MinPageSize      = 1
	MaxPageSize      = 500
	DefaultPage      = 1
	DefaultSortOrder = "asc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Validation errors.
var (
	ErrInvalidPage         = errors.New("page must be >= 1")
	ErrInvalidPageSize     = fmt.Errorf("page-size must be between %d and %d", MinPageSize, MaxPageSize)
	ErrInvalidSortOrder    = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat   = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'amount:desc')")
	ErrEmptySortField      = errors.New("sort field cannot be empty")
	ErrPageSizeWithoutPage = errors.New("page-size requires page to be set")
)

// Params selects one page of a detail table.
type Params struct {
	Page      int    `json:"page"                 yaml:"page"`
	PageSize  int    `json:"page_size"            yaml:"page_size"`
	SortField string `json:"sort_field,omitempty" yaml:"sort_field,omitempty"`
	SortOrder string `json:"sort_order,omitempty" yaml:"sort_order,omitempty"`
}

// First returns page 1 with the given size.
func First(pageSize int) Params {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Params{Page: DefaultPage, PageSize: pageSize, SortOrder: DefaultSortOrder}
}

// Enabled reports whether paging is active.
func (p Params) Enabled() bool {
	return p.Page > 0
}

// Validate checks bounds. A zero Params is valid and means "not paged".
func (p Params) Validate() error {
	if p.Page < 0 {
		return ErrInvalidPage
	}
	if p.Page == 0 {
		if p.PageSize > 0 {
			return ErrPageSizeWithoutPage
		}
		return nil
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	if p.SortOrder != "" && p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, p.SortOrder)
	}
	return nil
}

// Offset returns the zero-based index of the first row on the page.
func (p Params) Offset() int {
	if !p.Enabled() {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// WithPage returns a copy on the given page, clamped to >= 1.
func (p Params) WithPage(page int) Params {
	if page < DefaultPage {
		page = DefaultPage
	}
	p.Page = page
	return p
}

// Window returns the [start, end) bounds of the page within total rows.
// A page past the end is clamped to the last page.
//
//nolint:nonamedreturns // Named returns document the bounds.
func (p Params) Window(total int) (start, end int) {
	if !p.Enabled() || total == 0 {
		return 0, total
	}
	start = p.Offset()
	if start >= total {
		start = ((total - 1) / p.PageSize) * p.PageSize
	}
	end = start + p.PageSize
	if end > total {
		end = total
	}
	return start, end
}

const sortPartsMax = 2

// ParseSort parses "field" or "field:order".
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(s string) (field, order string, err error) {
	if s == "" {
		return "", DefaultSortOrder, nil
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, s)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}
