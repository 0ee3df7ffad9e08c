// Package app orchestrates catalog use cases on top of the resource
// gateways. It owns fan-out reads, request-scoped memoization and the
// write pipeline; wire concerns stay in the adapters behind ports.
//
// What does NOT belong here:
//   - HTTP specifics, status codes and body parsing (adapters)
//   - Model shapes and exception types (domain)
package app

import (
	"context"
	"fmt"
	"log/slog"

	reqctx "github.com/jsamuelsen/cardsdk/internal/app/context"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

// DefaultConcurrency bounds GetMany when CatalogConfig leaves it unset.
const DefaultConcurrency = 8

// CatalogConfig holds optional configuration for the catalog.
type CatalogConfig struct {
	Logger *slog.Logger

	// Concurrency bounds in-flight requests for GetMany and
	// GetManyPartial. Zero selects DefaultConcurrency.
	Concurrency int
}

// Catalog is the SDK's entry point to the catalog API.
//
// Example usage:
//
//	catalog := app.NewCatalog(adapter, &app.CatalogConfig{Logger: logger})
//
//	cards, err := catalog.GetMany(ctx, "cards", []string{"1", "2", "3"}, "set")
//	var missing *domain.CardNotFoundError
//	if errors.As(err, &missing) {
//	    // ...
//	}
type Catalog struct {
	gateway     ports.CatalogGateway
	exec        *Executor
	logger      *slog.Logger
	concurrency int
}

// NewCatalog creates a catalog over gateway. Panics if gateway is nil.
func NewCatalog(gateway ports.CatalogGateway, cfg *CatalogConfig) *Catalog {
	if gateway == nil {
		panic("Catalog: gateway is required")
	}

	logger := slog.Default()
	concurrency := DefaultConcurrency

	if cfg != nil {
		if cfg.Logger != nil {
			logger = cfg.Logger
		}

		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
	}

	logger = logger.With(slog.String("component", "app.Catalog"))

	return &Catalog{
		gateway:     gateway,
		exec:        NewExecutor(logger),
		logger:      logger,
		concurrency: concurrency,
	}
}

// Resource returns the gateway for a type name such as "cards" or
// "PlayerTeam".
func (c *Catalog) Resource(typeName string) (ports.ResourceGateway, error) {
	return c.gateway.Resource(typeName)
}

// Get fetches one resource. When ctx carries a request context the read
// is memoized there.
func (c *Catalog) Get(ctx context.Context, typeName, id string, include ...string) (domain.Model, error) {
	r, err := c.Resource(typeName)
	if err != nil {
		return nil, err
	}

	return c.get(ctx, r, id, include)
}

func (c *Catalog) get(ctx context.Context, r ports.ResourceGateway, id string, include []string) (domain.Model, error) {
	rc := reqctx.FromContext(ctx)
	if rc == nil {
		return r.Get(ctx, id, include...)
	}

	v, err := rc.GetOrFetch(ctx, reqctx.Key(r.Kind(), id, include...), func(ctx context.Context) (any, error) {
		return r.Get(ctx, id, include...)
	})
	if err != nil {
		return nil, err
	}

	m, _ := v.(domain.Model)

	return m, nil
}

// GetMany fetches every id concurrently and returns the models in input
// order. Repeated ids are fetched once. The first failure cancels the
// rest and is returned unchanged.
func (c *Catalog) GetMany(ctx context.Context, typeName string, ids []string, include ...string) ([]domain.Model, error) {
	r, err := c.Resource(typeName)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []domain.Model{}, nil
	}

	ctx = withRequestScope(ctx)

	c.logger.DebugContext(ctx, "fetching resources",
		slog.String("kind", r.Kind()),
		slog.Int("count", len(ids)),
	)

	return ForEach(ctx, c.concurrency, ids, func(ctx context.Context, id string) (domain.Model, error) {
		return c.get(ctx, r, id, include)
	})
}

// GetManyPartial is GetMany without fail-fast: each id reports its own
// model or exception.
func (c *Catalog) GetManyPartial(
	ctx context.Context,
	typeName string,
	ids []string,
	include ...string,
) ([]PartialResult[domain.Model], error) {
	r, err := c.Resource(typeName)
	if err != nil {
		return nil, err
	}

	ctx = withRequestScope(ctx)

	results := ForEachPartial(ctx, c.concurrency, ids, func(ctx context.Context, id string) (domain.Model, error) {
		return c.get(ctx, r, id, include)
	})

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		c.logger.WarnContext(ctx, "partial fetch had failures",
			slog.String("kind", r.Kind()),
			slog.Int("failed", failed),
			slog.Int("total", len(results)),
		)
	}

	return results, nil
}

// List fetches one page of a collection.
func (c *Catalog) List(ctx context.Context, typeName string, opts ports.ListOptions) (*domain.Page, error) {
	r, err := c.Resource(typeName)
	if err != nil {
		return nil, err
	}

	return r.List(ctx, opts)
}

// ListAll follows pagination from opts.Page (or the first page) until the
// last page or maxPages pages have been read. maxPages <= 0 means no cap.
func (c *Catalog) ListAll(ctx context.Context, typeName string, opts ports.ListOptions, maxPages int) ([]domain.Model, error) {
	r, err := c.Resource(typeName)
	if err != nil {
		return nil, err
	}

	if opts.Page <= 0 {
		opts.Page = 1
	}

	var items []domain.Model

	for read := 0; maxPages <= 0 || read < maxPages; read++ {
		page, err := r.List(ctx, opts)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Items...)

		next := page.NextPage()
		if next == 0 || next <= opts.Page {
			break
		}

		opts.Page = next
	}

	return items, nil
}

// SetWithCards fetches a set and one page of its cards concurrently.
func (c *Catalog) SetWithCards(ctx context.Context, setID string, opts ports.ListOptions) (*domain.Set, *domain.Page, error) {
	sets, err := c.Resource(domain.KindSet)
	if err != nil {
		return nil, nil, err
	}

	cards, err := c.Resource(domain.KindCard)
	if err != nil {
		return nil, nil, err
	}

	filter := make(map[string]string, len(opts.Filter)+1)
	for k, v := range opts.Filter {
		filter[k] = v
	}
	filter["set_id"] = setID
	opts.Filter = filter

	m, page, err := Parallel2(ctx,
		func(ctx context.Context) (domain.Model, error) { return c.get(ctx, sets, setID, nil) },
		func(ctx context.Context) (*domain.Page, error) { return cards.List(ctx, opts) },
	)
	if err != nil {
		return nil, nil, err
	}

	set, err := as[*domain.Set](m)
	if err != nil {
		return nil, nil, err
	}

	return set, page, nil
}

// Card fetches a card.
func (c *Catalog) Card(ctx context.Context, id string, include ...string) (*domain.Card, error) {
	return GetAs[*domain.Card](ctx, c, domain.KindCard, id, include...)
}

// Set fetches a set.
func (c *Catalog) Set(ctx context.Context, id string, include ...string) (*domain.Set, error) {
	return GetAs[*domain.Set](ctx, c, domain.KindSet, id, include...)
}

// Player fetches a player.
func (c *Catalog) Player(ctx context.Context, id string, include ...string) (*domain.Player, error) {
	return GetAs[*domain.Player](ctx, c, domain.KindPlayer, id, include...)
}

// Team fetches a team.
func (c *Catalog) Team(ctx context.Context, id string, include ...string) (*domain.Team, error) {
	return GetAs[*domain.Team](ctx, c, domain.KindTeam, id, include...)
}

// GetAs fetches one resource and asserts its model type.
func GetAs[T domain.Model](ctx context.Context, c *Catalog, typeName, id string, include ...string) (T, error) {
	m, err := c.Get(ctx, typeName, id, include...)
	if err != nil {
		var zero T
		return zero, err
	}

	return as[T](m)
}

func as[T domain.Model](m domain.Model) (T, error) {
	var zero T

	if m == nil {
		return zero, domain.NewDeserializationError("Response contained no resource", nil)
	}

	t, ok := m.(T)
	if !ok {
		return zero, domain.NewDeserializationError(fmt.Sprintf("Unexpected resource type %q", m.Base().Type), nil)
	}

	return t, nil
}

// withRequestScope attaches a fresh request context unless one is present.
func withRequestScope(ctx context.Context) context.Context {
	if reqctx.FromContext(ctx) != nil {
		return ctx
	}

	return reqctx.WithContext(ctx, reqctx.New(ctx))
}
