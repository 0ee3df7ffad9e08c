package fixtures

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

func ids(recs []*Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := Seeded()

	rec, ok := s.Get(domain.KindCard, "1")
	require.True(t, ok)
	assert.Equal(t, "cards", rec.WireType())

	rec.Attributes["name"] = "mutated"

	again, _ := s.Get(domain.KindCard, "1")
	assert.Equal(t, "Ken Griffey Jr.", again.Attributes["name"])

	_, ok = s.Get(domain.KindCard, "999")
	assert.False(t, ok)
}

func TestStore_List(t *testing.T) {
	s := Seeded()

	tests := []struct {
		name string
		q    ListQuery
		want []string
	}{
		{name: "numeric id order", q: ListQuery{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "filter by set", q: ListQuery{Filter: map[string]string{"set_id": "1"}}, want: []string{"1", "2", "3"}},
		{name: "filter case-insensitive", q: ListQuery{Filter: map[string]string{"name": "nolan ryan"}}, want: []string{"3", "4"}},
		{name: "filter by id", q: ListQuery{Filter: map[string]string{"id": "4"}}, want: []string{"4"}},
		{name: "sort by attribute", q: ListQuery{Sort: "number"}, want: []string{"1", "3", "5", "2", "4"}},
		{name: "sort descending", q: ListQuery{Sort: "-id"}, want: []string{"5", "4", "3", "2", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(s.List(domain.KindCard, tt.q)))
		})
	}
}

func TestStore_CreateUpdateDelete(t *testing.T) {
	s := Seeded()

	rec := s.Create(domain.KindCard, map[string]any{"name": "Randy Johnson", "number": "25", "set_id": "1"})
	assert.Equal(t, "6", rec.ID)
	assert.Equal(t, 6, s.Count(domain.KindCard))

	updated, ok := s.Update(domain.KindCard, "6", map[string]any{"number": "25a", "set_id": nil})
	require.True(t, ok)
	assert.Equal(t, "25a", updated.Attributes["number"])
	assert.NotContains(t, updated.Attributes, "set_id")

	_, ok = s.Update(domain.KindCard, "404", map[string]any{"name": "x"})
	assert.False(t, ok)

	assert.True(t, s.Delete(domain.KindCard, "6"))
	assert.False(t, s.Delete(domain.KindCard, "6"))
	assert.False(t, s.Exists(domain.KindCard, "6"))
}

func TestStore_CreateInEmptyKind(t *testing.T) {
	s := NewStore()

	assert.Equal(t, "1", s.Create(domain.KindGenre, map[string]any{"name": "Hockey"}).ID)
	assert.Equal(t, "2", s.Create(domain.KindGenre, map[string]any{"name": "Soccer"}).ID)
}

func TestStore_Related(t *testing.T) {
	s := Seeded()
	card, _ := s.Get(domain.KindCard, "1")
	set, _ := s.Get(domain.KindSet, "2")

	tests := []struct {
		name string
		rec  *Record
		key  string
		want []string
	}{
		{name: "foreign key", rec: card, key: "set", want: []string{"1"}},
		{name: "back reference", rec: card, key: "card-images", want: []string{"1", "2"}},
		{name: "normalised key", rec: card, key: "card_images", want: []string{"1", "2"}},
		{name: "parent set", rec: set, key: "set", want: []string{"1"}},
		{name: "unknown key", rec: card, key: "widgets", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(s.Related(tt.rec, tt.key)))
		})
	}
}

func TestStore_RelationsAndForeignKeys(t *testing.T) {
	s := NewStore()

	assert.Equal(t, []string{"set", "card-images", "player-teams", "object-attributes"}, s.Relations(domain.KindCard))
	assert.Equal(t, map[string]string{"player_id": domain.KindPlayer, "team_id": domain.KindTeam}, s.ForeignKeys(domain.KindPlayerTeam))
	assert.Empty(t, s.Relations(domain.KindGenre))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := Seeded()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			rec := s.Create(domain.KindBrand, map[string]any{"name": "Fleer"})
			_, _ = s.Update(domain.KindBrand, rec.ID, map[string]any{"description": "x"})
			_ = s.List(domain.KindBrand, ListQuery{})
		})
	}
	wg.Wait()

	assert.Equal(t, 12, s.Count(domain.KindBrand))
}
