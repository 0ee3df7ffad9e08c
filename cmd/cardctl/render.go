package main

import (
	"encoding/json"
	"io"

	"github.com/jsamuelsen/cardsdk"
)

// maxDepth bounds how far nested relations are rendered; the graph can
// contain cycles.
const maxDepth = 2

type modelView struct {
	Type          string         `json:"type"`
	ID            string         `json:"id"`
	Attributes    map[string]any `json:"attributes"`
	Relationships map[string]any `json:"relationships,omitempty"`
}

type listView struct {
	Data        []modelView `json:"data"`
	Total       int         `json:"total"`
	CurrentPage int         `json:"current_page,omitempty"`
	TotalPages  int         `json:"total_pages,omitempty"`
}

type refView struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// view renders a model with its attached relations. Relations below
// maxDepth are rendered as type and id only.
func view(m cardsdk.Model, depth int) modelView {
	o := m.Base()

	v := modelView{Type: o.Type, ID: o.ID, Attributes: o.Attributes()}

	keys := o.Relationships()
	if len(keys) == 0 {
		return v
	}

	v.Relationships = make(map[string]any, len(keys))

	for _, key := range keys {
		rel, _ := o.Relation(key)
		rendered := make([]any, 0, len(rel.Items))

		for _, item := range rel.Items {
			if depth+1 >= maxDepth {
				rendered = append(rendered, refView{Type: item.Base().Type, ID: item.Base().ID})
				continue
			}

			rendered = append(rendered, view(item, depth+1))
		}

		if rel.Cardinality == cardsdk.One && len(rendered) == 1 {
			v.Relationships[key] = rendered[0]
			continue
		}

		v.Relationships[key] = rendered
	}

	return v
}

func views(models []cardsdk.Model) []modelView {
	out := make([]modelView, 0, len(models))
	for _, m := range models {
		out = append(out, view(m, 0))
	}

	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
