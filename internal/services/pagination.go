package services

// Page is one slice of a longer list.
type Page[T any] struct {
	Items      []T `json:"items" yaml:"items"`
	Page       int `json:"page" yaml:"page"`
	PageSize   int `json:"pageSize" yaml:"pageSize"`
	Total      int `json:"total" yaml:"total"`
	TotalPages int `json:"totalPages" yaml:"totalPages"`
}

// Paginate returns the 1-based page of items. Out of range pages are empty
// but still report the totals.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 10
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: total / pageSize,
	}
	if total%pageSize != 0 {
		p.TotalPages++
	}
	// Bound page by TotalPages before computing the offset.
	if page-1 >= p.TotalPages {
		return p
	}
	start := (page - 1) * pageSize
	end := total
	if total-start > pageSize {
		end = start + pageSize
	}
	p.Items = append(p.Items, items[start:end]...)
	return p
}
