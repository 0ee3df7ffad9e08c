package domain

// Page is a list response combined with its pagination metadata.
// Total is reported by the server and is not checked against Items.
type Page struct {
	Items       []Model
	Total       int
	PerPage     int
	CurrentPage int
	TotalPages  int
	Links       map[string]string
}

// PageMeta is the meta.pagination block of a list response.
type PageMeta struct {
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// NewPage builds a page. CurrentPage is clamped to at least 1 and
// TotalPages is derived when the server omitted it.
func NewPage(items []Model, meta PageMeta, links map[string]string) *Page {
	p := &Page{
		Items:       items,
		Total:       meta.Total,
		PerPage:     meta.PerPage,
		CurrentPage: max(1, meta.CurrentPage),
		TotalPages:  meta.TotalPages,
		Links:       links,
	}

	if p.TotalPages == 0 && p.PerPage > 0 {
		p.TotalPages = (p.Total + p.PerPage - 1) / p.PerPage
	}

	return p
}

// HasMore reports whether a later page exists.
func (p *Page) HasMore() bool {
	if p.TotalPages > 0 {
		return p.CurrentPage < p.TotalPages
	}

	_, ok := p.Links["next"]

	return ok
}

// NextPage returns the next page number, or 0 on the last page.
func (p *Page) NextPage() int {
	if !p.HasMore() {
		return 0
	}

	return p.CurrentPage + 1
}

// Len returns the number of items on this page.
func (p *Page) Len() int {
	return len(p.Items)
}
