package pagination

// Meta describes where a page sits within the full result.
type Meta struct {
	CurrentPage int  `json:"current_page" yaml:"current_page"`
	PageSize    int  `json:"page_size"    yaml:"page_size"`
	TotalPages  int  `json:"total_pages"  yaml:"total_pages"`
	TotalItems  int  `json:"total_items"  yaml:"total_items"`
	HasPrevious bool `json:"has_previous" yaml:"has_previous"`
	HasNext     bool `json:"has_next"     yaml:"has_next"`
}

// NewMeta builds metadata for p over total items. Unpaged params produce a single page.
func NewMeta(p Params, total int) Meta {
	pageSize := p.PageSize
	if !p.Enabled() || pageSize <= 0 {
		pageSize = total
	}

	currentPage := p.Page
	if currentPage < DefaultPage {
		currentPage = DefaultPage
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if totalPages > 0 && currentPage > totalPages {
		currentPage = totalPages
	}

	return Meta{
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
}
