package acl

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jsamuelsen/cardsdk/internal/adapters/clients"
	"github.com/jsamuelsen/cardsdk/internal/adapters/clients/jsonapi"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/platform/logging"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

// WireType returns the collection name for a kind, e.g. "card-images".
func WireType(kind string) (string, bool) {
	return domain.WireType(kind)
}

// Resource reads and writes one collection of the catalog API.
// It implements ports.ResourceGateway.
type Resource struct {
	base     *BaseAdapter
	kind     string
	wireType string
	schemas  ports.SchemaLookup
	perPage  int
}

var _ ports.ResourceGateway = (*Resource)(nil)

// Kind returns the canonical kind served by this resource.
func (r *Resource) Kind() string {
	return r.kind
}

// WireType returns the collection name used in paths and documents.
func (r *Resource) WireType() string {
	return r.wireType
}

func (r *Resource) itemPath(id string) string {
	return "/" + r.wireType + "/" + url.PathEscape(id)
}

func (r *Resource) target(id string) notFoundTarget {
	return notFoundTarget{resourceType: r.kind, id: id}
}

// Get fetches one resource with optional side-loaded relations.
func (r *Resource) Get(ctx context.Context, id string, include ...string) (domain.Model, error) {
	if strings.TrimSpace(id) == "" {
		return nil, missingID()
	}

	var q url.Values
	if len(include) > 0 {
		q = url.Values{"include": {strings.Join(include, ",")}}
	}

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "fetching resource",
		slog.String("type", r.wireType),
		slog.String("id", id),
	)

	doc, err := r.base.GetDocument(ctx, r.itemPath(id), q, r.target(id))
	if err != nil {
		return nil, err
	}

	m := doc.One()
	if m == nil {
		return nil, NewNotFound(r.kind, id, domain.Fields{})
	}

	return m, nil
}

// List fetches one page of the collection. PerPage falls back to the
// adapter's default page size.
func (r *Resource) List(ctx context.Context, opts ports.ListOptions) (*domain.Page, error) {
	if opts.PerPage <= 0 {
		opts.PerPage = r.perPage
	}

	doc, err := r.base.GetDocument(ctx, "/"+r.wireType, opts.Query(), notFoundTarget{})
	if err != nil {
		return nil, err
	}

	page := doc.Page()

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "listed resources",
		slog.String("type", r.wireType),
		slog.Int("count", page.Len()),
		slog.Int("page", page.CurrentPage),
	)

	return page, nil
}

// Create validates attrs against the kind's rules and creates a resource.
func (r *Resource) Create(ctx context.Context, attrs map[string]any) (domain.Model, error) {
	if err := ValidateAttributes(r.schemas, r.kind, attrs, false); err != nil {
		return nil, err
	}

	body, err := jsonapi.EncodeResource(r.wireType, "", attrs)
	if err != nil {
		return nil, r.encodeFailure(err)
	}

	doc, err := r.base.SendDocument(ctx, http.MethodPost, "/"+r.wireType, body, notFoundTarget{})
	if err != nil {
		return nil, err
	}

	return written(doc)
}

// Update validates the supplied attrs and patches a resource.
func (r *Resource) Update(ctx context.Context, id string, attrs map[string]any) (domain.Model, error) {
	if strings.TrimSpace(id) == "" {
		return nil, missingID()
	}

	if err := ValidateAttributes(r.schemas, r.kind, attrs, true); err != nil {
		return nil, err
	}

	body, err := jsonapi.EncodeResource(r.wireType, id, attrs)
	if err != nil {
		return nil, r.encodeFailure(err)
	}

	doc, err := r.base.SendDocument(ctx, http.MethodPatch, r.itemPath(id), body, r.target(id))
	if err != nil {
		return nil, err
	}

	// 204 No Content: the server applied the attributes exactly as sent.
	if doc == nil {
		return r.base.Builder().Echo(id, r.wireType, attrs), nil
	}

	return written(doc)
}

// Delete removes a resource.
func (r *Resource) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return missingID()
	}

	return r.base.Delete(ctx, r.itemPath(id), r.target(id))
}

// written returns the resource echoed by a create or update.
func written(doc *jsonapi.Document) (domain.Model, error) {
	if doc == nil || doc.One() == nil {
		return nil, domain.NewDeserializationError("Response contained no resource", nil)
	}

	return doc.One(), nil
}

// encodeFailure reports attributes that cannot be put on the wire, such
// as channels or functions, as a client-side validation failure.
func (r *Resource) encodeFailure(err error) error {
	return domain.NewValidationError(domain.Fields{
		Message:  "The given data could not be encoded.",
		Context:  map[string]any{"kind": r.kind, "client_side": true},
		Previous: err,
	})
}

func missingID() error {
	return domain.NewValidationError(domain.Fields{
		Message:   validationMessage,
		APIErrors: []domain.SubError{fieldError("id", requiredMessage("id"))},
	})
}

// CatalogOptions configures a CatalogAdapter.
type CatalogOptions struct {
	// ServiceName identifies the API in health results. Defaults to
	// "card-catalog".
	ServiceName string

	// Builder parses success bodies. Nil selects the default builder.
	Builder *jsonapi.Builder

	// Schemas supplies client-side validation rules. Nil disables
	// client-side validation.
	Schemas ports.SchemaLookup

	// DefaultPerPage applies to List calls that leave PerPage unset.
	DefaultPerPage int

	// Logger is an optional logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// CatalogAdapter exposes every catalog collection over one transport.
// It implements ports.CatalogGateway and ports.HealthChecker.
type CatalogAdapter struct {
	base      *BaseAdapter
	schemas   ports.SchemaLookup
	perPage   int
	logger    *slog.Logger
	resources map[string]*Resource
}

var (
	_ ports.CatalogGateway = (*CatalogAdapter)(nil)
	_ ports.HealthChecker  = (*CatalogAdapter)(nil)
)

// NewCatalogAdapter creates the adapter. Panics if client is nil.
func NewCatalogAdapter(client *clients.Client, opts CatalogOptions) *CatalogAdapter {
	if client == nil {
		panic("CatalogAdapter: client is required")
	}

	if opts.ServiceName == "" {
		opts.ServiceName = "card-catalog"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &CatalogAdapter{
		base:      NewBaseAdapter(client, opts.Builder, opts.ServiceName),
		schemas:   opts.Schemas,
		perPage:   opts.DefaultPerPage,
		logger:    logger.With(slog.String("component", "acl.CatalogAdapter")),
		resources: make(map[string]*Resource),
	}

	for _, kind := range domain.Kinds() {
		wireType, _ := domain.WireType(kind)
		a.resources[kind] = a.newResource(kind, wireType)
	}

	return a
}

func (a *CatalogAdapter) newResource(kind, wireType string) *Resource {
	return &Resource{
		base:     a.base,
		kind:     kind,
		wireType: wireType,
		schemas:  a.schemas,
		perPage:  a.perPage,
	}
}

// Resource returns the gateway for a type name. Known types resolve through
// the registry, aliases included. Unknown types get a passthrough resource
// over the name as given, whose models are bare objects.
func (a *CatalogAdapter) Resource(typeName string) (ports.ResourceGateway, error) {
	if strings.TrimSpace(typeName) == "" {
		return nil, errors.New("resource type is required")
	}

	if kind, ok := domain.DefaultRegistry().Kind(typeName); ok {
		if r, ok := a.resources[kind]; ok {
			return r, nil
		}
	}

	return a.newResource(domain.Normalize(typeName), strings.ToLower(typeName)), nil
}

// Cards returns the cards collection.
func (a *CatalogAdapter) Cards() *Resource { return a.resources[domain.KindCard] }

// Sets returns the sets collection.
func (a *CatalogAdapter) Sets() *Resource { return a.resources[domain.KindSet] }

// Players returns the players collection.
func (a *CatalogAdapter) Players() *Resource { return a.resources[domain.KindPlayer] }

// Teams returns the teams collection.
func (a *CatalogAdapter) Teams() *Resource { return a.resources[domain.KindTeam] }

// PlayerTeams returns the player-teams collection.
func (a *CatalogAdapter) PlayerTeams() *Resource { return a.resources[domain.KindPlayerTeam] }

// Brands returns the brands collection.
func (a *CatalogAdapter) Brands() *Resource { return a.resources[domain.KindBrand] }

// Manufacturers returns the manufacturers collection.
func (a *CatalogAdapter) Manufacturers() *Resource { return a.resources[domain.KindManufacturer] }

// Years returns the years collection.
func (a *CatalogAdapter) Years() *Resource { return a.resources[domain.KindYear] }

// Genres returns the genres collection.
func (a *CatalogAdapter) Genres() *Resource { return a.resources[domain.KindGenre] }

// Attributes returns the attributes collection.
func (a *CatalogAdapter) Attributes() *Resource { return a.resources[domain.KindAttribute] }

// CardImages returns the card-images collection.
func (a *CatalogAdapter) CardImages() *Resource { return a.resources[domain.KindCardImage] }

// ObjectAttributes returns the object-attributes collection.
func (a *CatalogAdapter) ObjectAttributes() *Resource {
	return a.resources[domain.KindObjectAttribute]
}

// Name implements ports.HealthChecker.
func (a *CatalogAdapter) Name() string {
	return a.base.ServiceName()
}

// Check implements ports.HealthChecker. An open circuit fails fast;
// otherwise a one-item card listing must succeed.
func (a *CatalogAdapter) Check(ctx context.Context) error {
	if err := a.base.Client().CircuitErr(); err != nil {
		return MapClientError(err)
	}

	_, err := a.Cards().List(ctx, ports.ListOptions{PerPage: 1})
	if err != nil {
		a.logger.WarnContext(ctx, "catalog health check failed", slog.Any("error", err))
	}

	return err
}
