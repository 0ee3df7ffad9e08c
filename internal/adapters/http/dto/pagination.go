package dto

import (
	"net/url"
	"strconv"
)

// DefaultPerPage is the page size when the request names none.
const DefaultPerPage = 15

// MaxPerPage caps page[size].
const MaxPerPage = 100

// PageRequest holds the JSON:API paging parameters.
type PageRequest struct {
	Number int `form:"page[number]" validate:"omitempty,min=1"`
	Size   int `form:"page[size]"   validate:"omitempty,min=1,max=100"`
}

// GetNumber returns the 1-based page number.
func (p *PageRequest) GetNumber() int {
	return max(p.Number, 1)
}

// GetSize returns the page size with defaults applied.
func (p *PageRequest) GetSize() int {
	if p.Size <= 0 {
		return DefaultPerPage
	}

	return min(p.Size, MaxPerPage)
}

// Pagination is the meta.pagination block.
type Pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// Paginate slices items for the requested page and describes the result.
// Links carry self, first, last and, where they exist, prev and next,
// built from base with the caller's other query parameters kept.
func Paginate[T any](items []T, p PageRequest, base *url.URL) ([]T, Pagination, map[string]string) {
	size := p.GetSize()
	number := p.GetNumber()
	total := len(items)
	totalPages := (total + size - 1) / size

	start := min((number-1)*size, total)
	end := min(start+size, total)
	page := items[start:end]

	meta := Pagination{
		Total:       total,
		Count:       len(page),
		PerPage:     size,
		CurrentPage: number,
		TotalPages:  totalPages,
	}

	if base == nil {
		return page, meta, nil
	}

	link := func(n int) string {
		u := *base
		q := u.Query()
		q.Set("page[number]", strconv.Itoa(n))
		q.Set("page[size]", strconv.Itoa(size))
		u.RawQuery = q.Encode()

		return u.String()
	}

	links := map[string]string{
		"self":  link(number),
		"first": link(1),
		"last":  link(max(totalPages, 1)),
	}

	if number > 1 {
		links["prev"] = link(number - 1)
	}

	if number < totalPages {
		links["next"] = link(number + 1)
	}

	return page, meta, links
}
