package jsonapi

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// Document is one parsed envelope.
type Document struct {
	primary    []domain.Model
	collection bool

	Meta  map[string]any
	Links map[string]string
}

// One returns the single primary object, or nil when data was null or empty.
func (d *Document) One() domain.Model {
	if len(d.primary) == 0 {
		return nil
	}

	return d.primary[0]
}

// Many returns all primary objects.
func (d *Document) Many() []domain.Model {
	return slices.Clone(d.primary)
}

// IsCollection reports whether data was an array.
func (d *Document) IsCollection() bool {
	return d.collection
}

// Page wraps the primary objects with meta.pagination.
func (d *Document) Page() *domain.Page {
	return domain.NewPage(d.Many(), pageMeta(d.Meta), d.Links)
}

// Builder reconstructs object graphs from envelopes. It holds no mutable
// state and is safe for concurrent use.
type Builder struct {
	registry *domain.Registry
	schema   domain.Schema
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry overrides the type registry.
func WithRegistry(r *domain.Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithSchema overrides the relation schema.
func WithSchema(s domain.Schema) Option {
	return func(b *Builder) { b.schema = s }
}

// NewBuilder creates a builder over the default registry and schema.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		registry: domain.DefaultRegistry(),
		schema:   domain.DefaultSchema(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Parse decodes an envelope and links its primary data against included.
// Malformed JSON or a missing data member yields a *domain.DeserializationError.
func (b *Builder) Parse(raw []byte) (*Document, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.NewDeserializationError("Invalid JSON response: "+err.Error(), err)
	}

	if env.Data == nil {
		return nil, domain.NewDeserializationError("Response is missing the data member", nil)
	}

	doc := &Document{Links: flattenLinks(env.Links)}

	if len(env.Meta) > 0 && !bytes.Equal(env.Meta, []byte("null")) {
		if err := json.Unmarshal(env.Meta, &doc.Meta); err != nil {
			return nil, domain.NewDeserializationError("Invalid meta member: "+err.Error(), err)
		}
	}

	primary, collection, err := b.decodePrimary(env.Data)
	if err != nil {
		return nil, err
	}

	doc.collection = collection

	buckets := b.bucket(env.Included)

	for _, kind := range buckets.order {
		if !b.schema.For(kind).Composite {
			continue
		}

		for _, m := range buckets.byKind[kind] {
			b.link(m, buckets)
		}
	}

	for _, m := range primary {
		b.link(m, buckets)
	}

	doc.primary = primary

	return doc, nil
}

// ParseOne parses a single-resource envelope.
func (b *Builder) ParseOne(raw []byte) (domain.Model, error) {
	doc, err := b.Parse(raw)
	if err != nil {
		return nil, err
	}

	return doc.One(), nil
}

// ParseMany parses a collection envelope. A single object is returned as a
// one-element slice.
func (b *Builder) ParseMany(raw []byte) ([]domain.Model, error) {
	doc, err := b.Parse(raw)
	if err != nil {
		return nil, err
	}

	return doc.Many(), nil
}

// ParsePage parses a collection envelope into a page.
func (b *Builder) ParsePage(raw []byte) (*domain.Page, error) {
	doc, err := b.Parse(raw)
	if err != nil {
		return nil, err
	}

	return doc.Page(), nil
}

// Echo builds the model for a write the server acknowledged without a
// body. Relationships are not known and are left empty.
func (b *Builder) Echo(id, wireType string, attrs map[string]any) domain.Model {
	return b.registry.Build(id, wireType, attrs)
}

func (b *Builder) decodePrimary(data json.RawMessage) ([]domain.Model, bool, error) {
	trimmed := bytes.TrimSpace(data)

	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return nil, false, nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var list []resource
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, true, domain.NewDeserializationError("Invalid data member: "+err.Error(), err)
		}

		out := make([]domain.Model, 0, len(list))
		for _, r := range list {
			out = append(out, b.build(r))
		}

		return out, true, nil
	default:
		var one resource
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, false, domain.NewDeserializationError("Invalid data member: "+err.Error(), err)
		}

		return []domain.Model{b.build(one)}, false, nil
	}
}

func (b *Builder) build(r resource) domain.Model {
	m := b.registry.Build(string(r.ID), r.Type, r.Attributes)

	for key, rel := range r.Relationships {
		if ids, ok := rel.linkage(); ok {
			m.Base().SetLinkage(key, ids)
		}
	}

	return m
}

// buckets groups included objects by canonical kind in encounter order.
type buckets struct {
	byKind map[string][]domain.Model
	order  []string
}

func (b *Builder) bucket(included []resource) buckets {
	bk := buckets{byKind: make(map[string][]domain.Model)}

	for _, r := range included {
		m := b.build(r)
		kind := m.Base().Kind

		if _, seen := bk.byKind[kind]; !seen {
			bk.order = append(bk.order, kind)
		}

		bk.byKind[kind] = append(bk.byKind[kind], m)
	}

	return bk
}

// link attaches every relation the owner's kind declares. Relations that
// match nothing are left absent.
func (b *Builder) link(owner domain.Model, bk buckets) {
	o := owner.Base()

	for _, spec := range b.schema.For(o.Kind).Relations {
		candidates := excludeSelf(o, bk.byKind[spec.Kind])
		matches := match(o, spec, candidates)

		if spec.Cardinality == domain.One && len(matches) > 1 {
			matches = matches[:1]
		}

		o.SetRelation(spec.Key, domain.Relation{Cardinality: spec.Cardinality, Items: matches})
	}
}

// match applies, in order: wire linkage, owner foreign key, related
// back-reference, whole bucket.
func match(owner *domain.Object, spec domain.RelationSpec, candidates []domain.Model) []domain.Model {
	if len(candidates) == 0 {
		return nil
	}

	if ids, ok := linkageFor(owner, spec.Key); ok {
		want := make(map[string]bool, len(ids))
		for _, l := range ids {
			want[l.ID] = true
		}

		return filter(candidates, func(c *domain.Object) bool { return want[c.ID] })
	}

	if spec.ForeignKey != "" {
		if fk := owner.String(spec.ForeignKey); fk != "" {
			return filter(candidates, func(c *domain.Object) bool { return c.ID == fk })
		}
	}

	if spec.BackRef != "" {
		return filter(candidates, func(c *domain.Object) bool {
			if _, ok := c.Attribute(spec.BackRef); !ok {
				return true
			}

			return c.String(spec.BackRef) == owner.ID
		})
	}

	return slices.Clone(candidates)
}

// linkageFor finds wire linkage under key, comparing keys after
// normalisation so "card_images" linkage serves the "card-images" relation.
func linkageFor(o *domain.Object, key string) ([]domain.Linkage, bool) {
	if ids, ok := o.Linkage(key); ok {
		return ids, true
	}

	want := domain.Normalize(key)

	for _, k := range sortedLinkKeys(o) {
		if domain.Normalize(k) == want {
			return o.Linkage(k)
		}
	}

	return nil, false
}

func sortedLinkKeys(o *domain.Object) []string {
	keys := o.LinkageKeys()
	slices.Sort(keys)

	return keys
}

func excludeSelf(owner *domain.Object, candidates []domain.Model) []domain.Model {
	return slices.DeleteFunc(slices.Clone(candidates), func(c domain.Model) bool {
		cb := c.Base()
		return cb == owner || (cb.Kind == owner.Kind && cb.ID == owner.ID)
	})
}

func filter(candidates []domain.Model, keep func(*domain.Object) bool) []domain.Model {
	var out []domain.Model

	for _, c := range candidates {
		if keep(c.Base()) {
			out = append(out, c)
		}
	}

	return out
}
