// Package ports defines the contracts between the catalog facade and the
// adapters that reach the catalog API.
//
// Port rules:
//   - Context first on every blocking call
//   - Return domain models and domain exceptions, never wire DTOs
//   - Keep interfaces small
package ports

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// SchemaLookup supplies client-side validation rules per kind. Rules are
// go-playground/validator tags keyed by attribute name.
type SchemaLookup interface {
	Rules(kind string) (map[string]string, bool)
}

// ListOptions narrows a collection request.
type ListOptions struct {
	// Page is 1-based. Zero leaves paging to the server.
	Page int

	// PerPage is the page size. Zero leaves it to the server.
	PerPage int

	// Include names relations to side-load, e.g. "set", "card-images".
	Include []string

	// Filter holds filter[key]=value pairs.
	Filter map[string]string

	// Sort is passed through as the sort parameter, e.g. "-name".
	Sort string
}

// Query renders the options as JSON:API query parameters.
func (o ListOptions) Query() url.Values {
	q := url.Values{}

	if o.Page > 0 {
		q.Set("page[number]", strconv.Itoa(o.Page))
	}

	if o.PerPage > 0 {
		q.Set("page[size]", strconv.Itoa(o.PerPage))
	}

	if len(o.Include) > 0 {
		q.Set("include", strings.Join(o.Include, ","))
	}

	for k, v := range o.Filter {
		q.Set("filter["+k+"]", v)
	}

	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}

	return q
}

// ResourceGateway reads and writes one resource collection of the catalog.
// Failures are typed domain exceptions.
type ResourceGateway interface {
	// Kind returns the canonical kind served by this gateway.
	Kind() string

	// Get fetches one resource. A 404 yields the kind's not-found error.
	Get(ctx context.Context, id string, include ...string) (domain.Model, error)

	// List fetches one page of the collection.
	List(ctx context.Context, opts ListOptions) (*domain.Page, error)

	// Create validates attrs client-side and creates a resource.
	Create(ctx context.Context, attrs map[string]any) (domain.Model, error)

	// Update validates the supplied attrs and patches a resource.
	Update(ctx context.Context, id string, attrs map[string]any) (domain.Model, error)

	// Delete removes a resource.
	Delete(ctx context.Context, id string) error
}

// CatalogGateway hands out resource gateways by type name. Type names are
// normalised, so "cards", "card" and "Cards" resolve to the same gateway.
type CatalogGateway interface {
	Resource(typeName string) (ResourceGateway, error)
}
