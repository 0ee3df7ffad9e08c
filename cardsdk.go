// Package cardsdk is a client for the trading card catalog's JSON:API.
//
// Responses are decoded into typed models with their included relations
// already linked, and every failure surfaces as a typed exception that
// can be matched with errors.Is against the sentinels below or with
// errors.As against the exception types.
//
//	cfg, err := cardsdk.LoadConfig("local")
//	if err != nil { ... }
//
//	client, err := cardsdk.New(ctx, cfg)
//	if err != nil { ... }
//
//	card, err := client.Card(ctx, "1", "set", "card-images")
//	if errors.Is(err, cardsdk.ErrNotFound) { ... }
package cardsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/cardsdk/internal/adapters/clients"
	"github.com/jsamuelsen/cardsdk/internal/adapters/clients/acl"
	"github.com/jsamuelsen/cardsdk/internal/app"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/platform/config"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

// Configuration.
type (
	Config       = config.Config
	ClientConfig = config.ClientConfig
	OAuthConfig  = config.OAuthConfig
	APIConfig    = config.APIConfig
)

// Models.
type (
	Model           = domain.Model
	Object          = domain.Object
	Relation        = domain.Relation
	Cardinality     = domain.Cardinality
	Page            = domain.Page
	Card            = domain.Card
	Set             = domain.Set
	Player          = domain.Player
	Team            = domain.Team
	PlayerTeam      = domain.PlayerTeam
	Brand           = domain.Brand
	Manufacturer    = domain.Manufacturer
	Year            = domain.Year
	Genre           = domain.Genre
	CardImage       = domain.CardImage
	Attribute       = domain.Attribute
	ObjectAttribute = domain.ObjectAttribute
	ListOptions     = ports.ListOptions
	PartialResult   = app.PartialResult[domain.Model]
)

// Relation cardinalities.
const (
	One  = domain.One
	Many = domain.Many
)

// Exceptions.
type (
	Exception            = domain.Exception
	SubError             = domain.SubError
	AuthenticationError  = domain.AuthenticationError
	AuthorizationError   = domain.AuthorizationError
	NotFoundError        = domain.NotFoundError
	CardNotFoundError    = domain.CardNotFoundError
	PlayerNotFoundError  = domain.PlayerNotFoundError
	SetNotFoundError     = domain.SetNotFoundError
	ValidationError      = domain.ValidationError
	RateLimitError       = domain.RateLimitError
	ServerError          = domain.ServerError
	APIError             = domain.APIError
	DeserializationError = domain.DeserializationError
	NetworkError         = domain.NetworkError
)

// Sentinels every exception unwraps to.
var (
	ErrNetwork         = domain.ErrNetwork
	ErrAuthentication  = domain.ErrAuthentication
	ErrAuthorization   = domain.ErrAuthorization
	ErrNotFound        = domain.ErrNotFound
	ErrValidation      = domain.ErrValidation
	ErrRateLimit       = domain.ErrRateLimit
	ErrServer          = domain.ErrServer
	ErrAPI             = domain.ErrAPI
	ErrDeserialization = domain.ErrDeserialization
)

// Client is a catalog client. It embeds the catalog operations and is
// safe for concurrent use.
type Client struct {
	*app.Catalog

	adapter   *acl.CatalogAdapter
	transport *clients.Client
}

type options struct {
	logger      *slog.Logger
	concurrency int
	schemas     ports.SchemaLookup
}

// Option customises New.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConcurrency bounds the requests GetMany keeps in flight.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithSchemas replaces the client-side validation rules. Passing nil
// disables client-side validation.
func WithSchemas(schemas ports.SchemaLookup) Option {
	return func(o *options) { o.schemas = schemas }
}

// LoadConfig loads and validates configuration for profile. See
// config.Load for the sources and their precedence.
func LoadConfig(profile string) (*Config, error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// New builds a client from cfg. When OAuth is enabled, tokens are fetched
// with the client credentials grant on first use and reused until they
// near expiry. ctx scopes token requests only.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	o := options{
		logger:  slog.Default(),
		schemas: domain.NewStaticSchemas(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport, err := clients.New(&clients.Config{
		BaseURL:     cfg.API.BaseURL,
		ServiceName: cfg.API.ServiceName,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	if ts := clients.NewTokenSource(ctx, cfg.OAuth, transport.HTTPClient()); ts != nil {
		transport.SetTokenSource(ts)
	}

	adapter := acl.NewCatalogAdapter(transport, acl.CatalogOptions{
		ServiceName:    cfg.API.ServiceName,
		Schemas:        o.schemas,
		DefaultPerPage: cfg.API.DefaultPerPage,
		Logger:         o.logger,
	})

	return &Client{
		Catalog: app.NewCatalog(adapter, &app.CatalogConfig{
			Logger:      o.logger,
			Concurrency: o.concurrency,
		}),
		adapter:   adapter,
		transport: transport,
	}, nil
}

// Check pings the catalog API, returning a typed exception when it is
// unreachable or unhealthy.
func (c *Client) Check(ctx context.Context) error {
	return c.adapter.Check(ctx)
}

// CircuitOpen reports whether the circuit breaker is rejecting requests.
func (c *Client) CircuitOpen() bool {
	return c.transport.CircuitState() == clients.StateOpen
}

// GetAs fetches one resource and asserts its model type.
func GetAs[T Model](ctx context.Context, c *Client, typeName, id string, include ...string) (T, error) {
	return app.GetAs[T](ctx, c.Catalog, typeName, id, include...)
}
