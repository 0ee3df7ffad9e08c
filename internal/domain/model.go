package domain

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"time"
)

// Model is implemented by every domain object the graph builder produces.
type Model interface {
	Base() *Object
}

// Cardinality states whether a relation holds one object or many.
type Cardinality int

// Relation cardinalities.
const (
	One Cardinality = iota
	Many
)

// Relation is a resolved relationship bucket.
type Relation struct {
	Cardinality Cardinality
	Items       []Model
}

// Linkage is a JSON:API resource identifier.
type Linkage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Object is the generic domain object: a wire resource plus its resolved
// relationships. Unknown wire types are returned as a bare *Object.
type Object struct {
	ID   string
	Type string
	Kind string

	attrs   map[string]any
	links   map[string][]Linkage
	related map[string]Relation
	order   []string
}

// NewObject creates an object from wire fields. attrs is copied.
func NewObject(id, wireType, kind string, attrs map[string]any) *Object {
	a := maps.Clone(attrs)
	if a == nil {
		a = map[string]any{}
	}

	return &Object{
		ID:      id,
		Type:    wireType,
		Kind:    kind,
		attrs:   a,
		related: map[string]Relation{},
	}
}

// Base implements Model.
func (o *Object) Base() *Object {
	return o
}

// Attribute returns the raw attribute value.
func (o *Object) Attribute(key string) (any, bool) {
	v, ok := o.attrs[key]
	return v, ok
}

// Attributes returns a copy of all raw attributes.
func (o *Object) Attributes() map[string]any {
	return maps.Clone(o.attrs)
}

// String returns the attribute as a string. Numbers are formatted.
func (o *Object) String(key string) string {
	switch v := o.attrs[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns the attribute as an int. Numeric strings are parsed.
func (o *Object) Int(key string) int {
	switch v := o.attrs[key].(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return 0
}

// Float returns the attribute as a float64.
func (o *Object) Float(key string) float64 {
	switch v := o.attrs[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Bool returns the attribute as a bool.
func (o *Object) Bool(key string) bool {
	switch v := o.attrs[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

// Time parses an RFC 3339 attribute. The zero time is returned when absent
// or malformed.
func (o *Object) Time(key string) time.Time {
	s, ok := o.attrs[key].(string)
	if !ok {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// Linkage returns the wire relationship identifiers declared under key.
func (o *Object) Linkage(key string) ([]Linkage, bool) {
	l, ok := o.links[key]
	return l, ok
}

// LinkageKeys returns the relationship names declared on the wire.
func (o *Object) LinkageKeys() []string {
	return slices.Collect(maps.Keys(o.links))
}

// SetLinkage records wire relationship identifiers. Used while decoding.
func (o *Object) SetLinkage(key string, ids []Linkage) {
	if o.links == nil {
		o.links = map[string][]Linkage{}
	}

	o.links[key] = ids
}

// HasRelation reports whether a non-empty relation is attached under key.
func (o *Object) HasRelation(key string) bool {
	_, ok := o.related[key]
	return ok
}

// Relation returns the bucket attached under key.
func (o *Object) Relation(key string) (Relation, bool) {
	r, ok := o.related[key]
	if !ok {
		return Relation{}, false
	}

	return Relation{Cardinality: r.Cardinality, Items: slices.Clone(r.Items)}, true
}

// Related returns the single related object under key, or nil.
func (o *Object) Related(key string) Model {
	r, ok := o.related[key]
	if !ok || len(r.Items) == 0 {
		return nil
	}

	return r.Items[0]
}

// RelatedMany returns every related object under key.
func (o *Object) RelatedMany(key string) []Model {
	r, ok := o.related[key]
	if !ok {
		return nil
	}

	return slices.Clone(r.Items)
}

// Relationships returns the attached relation keys in attachment order.
func (o *Object) Relationships() []string {
	return slices.Clone(o.order)
}

// SetRelation replaces the bucket under key wholesale. An empty bucket
// removes the key.
func (o *Object) SetRelation(key string, r Relation) {
	if len(r.Items) == 0 {
		if _, ok := o.related[key]; ok {
			delete(o.related, key)
			o.order = slices.DeleteFunc(o.order, func(k string) bool { return k == key })
		}

		return
	}

	if _, ok := o.related[key]; !ok {
		o.order = append(o.order, key)
	}

	r.Items = slices.Clone(r.Items)
	o.related[key] = r
}

func relatedAs[T Model](o *Object, key string) T {
	var zero T

	m := o.Related(key)
	if m == nil {
		return zero
	}

	t, ok := m.(T)
	if !ok {
		return zero
	}

	return t
}

func relatedManyAs[T Model](o *Object, key string) []T {
	items := o.RelatedMany(key)
	out := make([]T, 0, len(items))

	for _, m := range items {
		if t, ok := m.(T); ok {
			out = append(out, t)
		}
	}

	return out
}
