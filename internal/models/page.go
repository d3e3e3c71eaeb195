package models

// Page is a host page that can be chosen as the landing page.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Route       string `json:"route,omitempty"`
	IsPublished bool   `json:"is_published"`
}

// PageList is one page of the host's page listing.
type PageList struct {
	Pages      []Page `json:"pages"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}
