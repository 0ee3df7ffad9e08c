package domain

import (
	"slices"
	"strings"
	"sync"
)

// Constructor wraps a generic object in its typed model.
type Constructor func(*Object) Model

// Registry maps wire type names to canonical kinds and constructors.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	kinds        map[string]string
	aliases      map[string]string
	constructors map[string]Constructor
}

// kindKeys lists the normalised singular and plural spellings per kind.
var kindKeys = map[string][]string{
	KindCard:            {"card", "cards"},
	KindSet:             {"set", "sets"},
	KindPlayer:          {"player", "players"},
	KindTeam:            {"team", "teams"},
	KindPlayerTeam:      {"playerteam", "playerteams"},
	KindBrand:           {"brand", "brands"},
	KindManufacturer:    {"manufacturer", "manufacturers"},
	KindYear:            {"year", "years"},
	KindGenre:           {"genre", "genres"},
	KindCardImage:       {"cardimage", "cardimages"},
	KindAttribute:       {"attribute", "attributes"},
	KindObjectAttribute: {"objectattribute", "objectattributes"},
}

// wireTypes are the collection names the API serves each kind under.
var wireTypes = map[string]string{
	KindCard:            "cards",
	KindSet:             "sets",
	KindPlayer:          "players",
	KindTeam:            "teams",
	KindPlayerTeam:      "player-teams",
	KindBrand:           "brands",
	KindManufacturer:    "manufacturers",
	KindYear:            "years",
	KindGenre:           "genres",
	KindCardImage:       "card-images",
	KindAttribute:       "attributes",
	KindObjectAttribute: "object-attributes",
}

// WireType returns the collection name of a kind, e.g. "card-images".
func WireType(kind string) (string, bool) {
	t, ok := wireTypes[kind]
	return t, ok
}

// Kinds returns every kind with a collection, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(wireTypes))
	for k := range wireTypes {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	return kinds
}

// typeAliases are upstream type names that stand in for another kind.
var typeAliases = map[string]string{
	"parentset":  KindSet,
	"parentsets": KindSet,
	"checklist":  KindCard,
	"checklists": KindCard,
	"oncard":     KindPlayerTeam,
	"oncards":    KindPlayerTeam,
}

var defaultConstructors = map[string]Constructor{
	KindCard:            func(o *Object) Model { return &Card{o} },
	KindSet:             func(o *Object) Model { return &Set{o} },
	KindPlayer:          func(o *Object) Model { return &Player{o} },
	KindTeam:            func(o *Object) Model { return &Team{o} },
	KindPlayerTeam:      func(o *Object) Model { return &PlayerTeam{o} },
	KindBrand:           func(o *Object) Model { return &Brand{o} },
	KindManufacturer:    func(o *Object) Model { return &Manufacturer{o} },
	KindYear:            func(o *Object) Model { return &Year{o} },
	KindGenre:           func(o *Object) Model { return &Genre{o} },
	KindCardImage:       func(o *Object) Model { return &CardImage{o} },
	KindAttribute:       func(o *Object) Model { return &Attribute{o} },
	KindObjectAttribute: func(o *Object) Model { return &ObjectAttribute{o} },
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry for the catalog's resource types.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(defaultConstructors)
	})

	return defaultRegistry
}

// NewRegistry builds a registry from kind constructors. Kinds without a
// spelling table are registered under their own normalised name.
func NewRegistry(constructors map[string]Constructor) *Registry {
	r := &Registry{
		kinds:        make(map[string]string),
		aliases:      make(map[string]string, len(typeAliases)),
		constructors: make(map[string]Constructor, len(constructors)),
	}

	for kind, ctor := range constructors {
		r.constructors[kind] = ctor

		keys, ok := kindKeys[kind]
		if !ok {
			keys = []string{Normalize(kind)}
		}

		for _, k := range keys {
			r.kinds[k] = kind
		}
	}

	for alias, kind := range typeAliases {
		if _, ok := r.constructors[kind]; ok {
			r.aliases[alias] = kind
		}
	}

	return r
}

// Normalize lower-cases a wire type and strips separators, so that
// "card-images", "card_images" and "cardImages" compare equal.
func Normalize(typeName string) string {
	var b strings.Builder

	b.Grow(len(typeName))

	for _, r := range strings.ToLower(typeName) {
		switch r {
		case '-', '_', ' ':
			continue
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Kind returns the canonical kind for a wire type after alias resolution.
// Unknown types yield "" and false.
func (r *Registry) Kind(typeName string) (string, bool) {
	n := Normalize(typeName)

	if kind, ok := r.aliases[n]; ok {
		return kind, true
	}

	kind, ok := r.kinds[n]

	return kind, ok
}

// IsAlias reports whether a wire type is one of the upstream aliases.
func (r *Registry) IsAlias(typeName string) bool {
	_, ok := r.aliases[Normalize(typeName)]
	return ok
}

// Resolve returns the constructor for a wire type. A nil constructor with
// false signals an unknown type; callers fall back to a bare *Object.
func (r *Registry) Resolve(typeName string) (Constructor, bool) {
	kind, ok := r.Kind(typeName)
	if !ok {
		return nil, false
	}

	ctor, ok := r.constructors[kind]

	return ctor, ok
}

// Build constructs the model for a wire resource. Unknown types produce a
// bare *Object whose Kind is the normalised wire type.
func (r *Registry) Build(id, wireType string, attrs map[string]any) Model {
	kind, ok := r.Kind(wireType)
	if !ok {
		return NewObject(id, wireType, Normalize(wireType), attrs)
	}

	obj := NewObject(id, wireType, kind, attrs)

	if ctor, ok := r.constructors[kind]; ok {
		return ctor(obj)
	}

	return obj
}
