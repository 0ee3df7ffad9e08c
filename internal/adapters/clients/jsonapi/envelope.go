// Package jsonapi turns JSON:API response envelopes into linked domain
// object graphs and extracts structured error lists from failure bodies.
package jsonapi

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// MediaType is the JSON:API content type.
const MediaType = "application/vnd.api+json"

// envelope is the top-level wire document.
type envelope struct {
	Data     json.RawMessage `json:"data"`
	Included []resource      `json:"included"`
	Meta     json.RawMessage `json:"meta"`
	Links    map[string]any  `json:"links"`
}

// resource is a wire resource object.
type resource struct {
	ID            flexID                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    map[string]any          `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
}

type relationship struct {
	Data json.RawMessage `json:"data"`
}

// flexID accepts string or numeric identifiers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	*id = flexID(n.String())

	return nil
}

// linkage decodes a relationship's data member, which may be a single
// identifier, an array of identifiers or null.
func (r relationship) linkage() ([]domain.Linkage, bool) {
	trimmed := bytes.TrimSpace(r.Data)
	if len(trimmed) == 0 {
		return nil, false
	}

	if bytes.Equal(trimmed, []byte("null")) {
		return []domain.Linkage{}, true
	}

	type ident struct {
		ID   flexID `json:"id"`
		Type string `json:"type"`
	}

	if trimmed[0] == '[' {
		var ids []ident
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, false
		}

		out := make([]domain.Linkage, 0, len(ids))
		for _, i := range ids {
			out = append(out, domain.Linkage{ID: string(i.ID), Type: i.Type})
		}

		return out, true
	}

	var one ident
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, false
	}

	return []domain.Linkage{{ID: string(one.ID), Type: one.Type}}, true
}

// flattenLinks keeps string links and the href of link objects.
func flattenLinks(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}

	out := make(map[string]string, len(in))

	for k, v := range in {
		switch l := v.(type) {
		case string:
			out[k] = l
		case map[string]any:
			if href, ok := l["href"].(string); ok {
				out[k] = href
			}
		}
	}

	return out
}

// pageMeta reads meta.pagination, tolerating numeric strings.
func pageMeta(meta map[string]any) domain.PageMeta {
	p, ok := meta["pagination"].(map[string]any)
	if !ok {
		return domain.PageMeta{}
	}

	return domain.PageMeta{
		Total:       intOf(p["total"]),
		PerPage:     intOf(p["per_page"]),
		CurrentPage: intOf(p["current_page"]),
		TotalPages:  intOf(p["total_pages"]),
	}
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
