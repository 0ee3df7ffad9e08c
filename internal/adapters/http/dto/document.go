// Package dto provides the stub catalog's wire shapes: JSON:API documents
// for success bodies and the Laravel and JSON:API error bodies the real
// catalog emits.
package dto

import (
	"time"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
)

// MediaType is the JSON:API media type.
const MediaType = "application/vnd.api+json"

// Identifier is a resource linkage.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship carries linkage for one relation. Data is an *Identifier
// for to-one relations and []Identifier for to-many.
type Relationship struct {
	Data any `json:"data"`
}

// Resource is a JSON:API resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         map[string]string       `json:"links,omitempty"`
}

// Document is a single-resource document.
type Document struct {
	Data     *Resource  `json:"data"`
	Included []Resource `json:"included,omitempty"`
}

// ListDocument is a collection document with pagination.
type ListDocument struct {
	Data     []Resource        `json:"data"`
	Included []Resource        `json:"included,omitempty"`
	Meta     ListMeta          `json:"meta"`
	Links    map[string]string `json:"links,omitempty"`
}

// ListMeta wraps the pagination block.
type ListMeta struct {
	Pagination Pagination `json:"pagination"`
}

// WriteRequest is the body of a create or update.
type WriteRequest struct {
	Data struct {
		Type       string         `json:"type"       binding:"required"`
		ID         string         `json:"id"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data" binding:"required"`
}

// NewResource renders a record. Timestamps are added as created_at and
// updated_at; fks maps foreign key attributes to the relation keys whose
// linkage is emitted.
func NewResource(rec *fixtures.Record, baseURL string, fks map[string]Identifier) Resource {
	attrs := make(map[string]any, len(rec.Attributes)+2)
	for k, v := range rec.Attributes {
		attrs[k] = v
	}

	attrs["created_at"] = rec.CreatedAt.Format(time.RFC3339)
	attrs["updated_at"] = rec.UpdatedAt.Format(time.RFC3339)

	r := Resource{
		Type:       rec.WireType(),
		ID:         rec.ID,
		Attributes: attrs,
	}

	if baseURL != "" {
		r.Links = map[string]string{"self": baseURL + "/" + r.Type + "/" + r.ID}
	}

	if len(fks) > 0 {
		r.Relationships = make(map[string]Relationship, len(fks))
		for key, ident := range fks {
			r.Relationships[key] = Relationship{Data: &Identifier{Type: ident.Type, ID: ident.ID}}
		}
	}

	return r
}
