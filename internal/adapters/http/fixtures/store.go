// Package fixtures holds the stub catalog's in-memory data set.
//
// Records are keyed by kind and id. Relations are not stored; they are
// derived from the foreign key attributes using the same relation schema
// the client's graph builder links with, so an include on the stub yields
// exactly the records the client expects to attach.
package fixtures

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// Record is one stored resource.
type Record struct {
	ID         string
	Kind       string
	Attributes map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WireType returns the record's collection name.
func (r *Record) WireType() string {
	t, _ := domain.WireType(r.Kind)
	return t
}

// ListQuery narrows List.
type ListQuery struct {
	// Filter matches attributes by their string form.
	Filter map[string]string

	// Sort is an attribute name, "-" prefixed for descending. Empty sorts
	// by numeric id.
	Sort string
}

// Store is a concurrency-safe in-memory record store.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]*Record
	nextID  map[string]int
	schema  domain.Schema
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]map[string]*Record),
		nextID:  make(map[string]int),
		schema:  domain.DefaultSchema(),
		now:     time.Now,
	}
}

// Put inserts or replaces a record with a fixed id.
func (s *Store) Put(kind, id string, attrs map[string]any) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.put(kind, id, attrs)
}

func (s *Store) put(kind, id string, attrs map[string]any) *Record {
	if s.records[kind] == nil {
		s.records[kind] = make(map[string]*Record)
	}

	now := s.now().UTC()
	rec := &Record{ID: id, Kind: kind, Attributes: maps.Clone(attrs), CreatedAt: now, UpdatedAt: now}
	if rec.Attributes == nil {
		rec.Attributes = map[string]any{}
	}

	s.records[kind][id] = rec

	if n, err := strconv.Atoi(id); err == nil && n >= s.nextID[kind] {
		s.nextID[kind] = n + 1
	}

	return rec
}

// Get returns a copy of one record.
func (s *Store) Get(kind, id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[kind][id]
	if !ok {
		return nil, false
	}

	return clone(rec), true
}

// Exists reports whether kind holds id.
func (s *Store) Exists(kind, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[kind][id]

	return ok
}

// List returns copies of the matching records of a kind.
func (s *Store) List(kind string, q ListQuery) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records[kind]))

	for _, rec := range s.records[kind] {
		if matches(rec, q.Filter) {
			out = append(out, clone(rec))
		}
	}

	sortRecords(out, q.Sort)

	return out
}

// Create stores a new record under the next free numeric id.
func (s *Store) Create(kind string, attrs map[string]any) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := max(s.nextID[kind], 1)

	return clone(s.put(kind, strconv.Itoa(id), attrs))
}

// Update merges attrs into a record. A nil value removes the attribute.
func (s *Store) Update(kind, id string, attrs map[string]any) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[kind][id]
	if !ok {
		return nil, false
	}

	for k, v := range attrs {
		if v == nil {
			delete(rec.Attributes, k)
			continue
		}
		rec.Attributes[k] = v
	}

	rec.UpdatedAt = s.now().UTC()

	return clone(rec), true
}

// Delete removes a record.
func (s *Store) Delete(kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[kind][id]; !ok {
		return false
	}

	delete(s.records[kind], id)

	return true
}

// Count returns the number of records of a kind.
func (s *Store) Count(kind string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records[kind])
}

// Related resolves one relation of rec through the relation schema.
// Unknown relation keys yield nil.
func (s *Store) Related(rec *Record, key string) []*Record {
	spec, ok := s.relation(rec.Kind, key)
	if !ok {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record

	switch {
	case spec.ForeignKey != "":
		fk := stringOf(rec.Attributes[spec.ForeignKey])
		if target, ok := s.records[spec.Kind][fk]; ok && fk != "" {
			out = append(out, clone(target))
		}
	case spec.BackRef != "":
		for _, cand := range s.records[spec.Kind] {
			if stringOf(cand.Attributes[spec.BackRef]) == rec.ID {
				out = append(out, clone(cand))
			}
		}
		sortRecords(out, "")
	}

	return out
}

// Relations returns the relation keys a kind can include.
func (s *Store) Relations(kind string) []string {
	specs := s.schema.For(kind).Relations

	keys := make([]string, 0, len(specs))
	for _, spec := range specs {
		keys = append(keys, spec.Key)
	}

	return keys
}

// ForeignKeys maps each foreign key attribute of a kind to the kind it
// points at.
func (s *Store) ForeignKeys(kind string) map[string]string {
	out := map[string]string{}

	for _, spec := range s.schema.For(kind).Relations {
		if spec.ForeignKey != "" {
			out[spec.ForeignKey] = spec.Kind
		}
	}

	return out
}

func (s *Store) relation(kind, key string) (domain.RelationSpec, bool) {
	for _, spec := range s.schema.For(kind).Relations {
		if spec.Key == key || domain.Normalize(spec.Key) == domain.Normalize(key) {
			return spec, true
		}
	}

	return domain.RelationSpec{}, false
}

func matches(rec *Record, filter map[string]string) bool {
	for k, want := range filter {
		if k == "id" {
			if rec.ID != want {
				return false
			}
			continue
		}

		if !strings.EqualFold(stringOf(rec.Attributes[k]), want) {
			return false
		}
	}

	return true
}

func sortRecords(recs []*Record, by string) {
	desc := strings.HasPrefix(by, "-")
	field := strings.TrimPrefix(by, "-")

	slices.SortStableFunc(recs, func(a, b *Record) int {
		var c int
		if field == "" || field == "id" {
			c = cmp.Compare(numericID(a.ID), numericID(b.ID))
		} else {
			c = strings.Compare(stringOf(a.Attributes[field]), stringOf(b.Attributes[field]))
		}

		if c == 0 {
			c = cmp.Compare(numericID(a.ID), numericID(b.ID))
		}

		if desc {
			return -c
		}

		return c
	})
}

func numericID(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return -1
	}

	return n
}

func clone(rec *Record) *Record {
	c := *rec
	c.Attributes = maps.Clone(rec.Attributes)

	return &c
}

// stringOf renders an attribute the way filters and foreign keys compare.
func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
