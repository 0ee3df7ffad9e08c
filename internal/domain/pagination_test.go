package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	items := []Model{NewObject("1", "cards", KindCard, nil)}

	tests := []struct {
		name      string
		meta      PageMeta
		links     map[string]string
		wantPage  int
		wantPages int
		wantMore  bool
		wantNext  int
	}{
		{
			name:      "middle page",
			meta:      PageMeta{Total: 30, PerPage: 10, CurrentPage: 2, TotalPages: 3},
			wantPage:  2,
			wantPages: 3,
			wantMore:  true,
			wantNext:  3,
		},
		{
			name:      "last page",
			meta:      PageMeta{Total: 30, PerPage: 10, CurrentPage: 3, TotalPages: 3},
			wantPage:  3,
			wantPages: 3,
		},
		{
			name:      "current page clamped",
			meta:      PageMeta{Total: 5, PerPage: 10, CurrentPage: 0},
			wantPage:  1,
			wantPages: 1,
		},
		{
			name:      "total pages derived",
			meta:      PageMeta{Total: 21, PerPage: 10, CurrentPage: 1},
			wantPage:  1,
			wantPages: 3,
			wantMore:  true,
			wantNext:  2,
		},
		{
			name:     "links only",
			links:    map[string]string{"next": "/v1/cards?page=2"},
			wantPage: 1,
			wantMore: true,
			wantNext: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(items, tt.meta, tt.links)

			assert.Equal(t, tt.wantPage, p.CurrentPage)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantMore, p.HasMore())
			assert.Equal(t, tt.wantNext, p.NextPage())
			assert.Equal(t, 1, p.Len())
		})
	}
}

func TestNewPage_TotalNotEnforced(t *testing.T) {
	items := []Model{
		NewObject("1", "cards", KindCard, nil),
		NewObject("2", "cards", KindCard, nil),
	}

	p := NewPage(items, PageMeta{Total: 1, PerPage: 10, CurrentPage: 1}, nil)
	assert.Equal(t, 1, p.Total)
	assert.Equal(t, 2, p.Len())
}
