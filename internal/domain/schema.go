package domain

// RelationSpec declares one relation a kind can carry.
//
// Related objects are matched by ForeignKey (an attribute on the owner
// holding the related ID) or BackRef (an attribute on the related object
// holding the owner ID). Composite marks a join kind whose own relations
// are resolved one level deep.
type RelationSpec struct {
	Key         string
	Kind        string
	Cardinality Cardinality
	ForeignKey  string
	BackRef     string
}

// KindSpec is the relation schema of one kind.
type KindSpec struct {
	Relations []RelationSpec
	Composite bool
}

// Schema is the fixed per-kind relation table used by the graph builder.
type Schema map[string]KindSpec

// For returns the relation schema of a kind. Unknown kinds have none.
func (s Schema) For(kind string) KindSpec {
	return s[kind]
}

// DefaultSchema returns the catalog relation table.
func DefaultSchema() Schema {
	return Schema{
		KindCard: {Relations: []RelationSpec{
			{Key: "set", Kind: KindSet, Cardinality: One, ForeignKey: "set_id"},
			{Key: "card-images", Kind: KindCardImage, Cardinality: Many, BackRef: "card_id"},
			{Key: "player-teams", Kind: KindPlayerTeam, Cardinality: Many, BackRef: "card_id"},
			{Key: "object-attributes", Kind: KindObjectAttribute, Cardinality: Many, BackRef: "object_id"},
		}},
		KindSet: {Relations: []RelationSpec{
			{Key: "set", Kind: KindSet, Cardinality: One, ForeignKey: "parent_id"},
			{Key: "cards", Kind: KindCard, Cardinality: Many, BackRef: "set_id"},
			{Key: "brand", Kind: KindBrand, Cardinality: One, ForeignKey: "brand_id"},
			{Key: "manufacturer", Kind: KindManufacturer, Cardinality: One, ForeignKey: "manufacturer_id"},
			{Key: "year", Kind: KindYear, Cardinality: One, ForeignKey: "year_id"},
			{Key: "genre", Kind: KindGenre, Cardinality: One, ForeignKey: "genre_id"},
		}},
		KindPlayer: {Relations: []RelationSpec{
			{Key: "player-teams", Kind: KindPlayerTeam, Cardinality: Many, BackRef: "player_id"},
		}},
		KindTeam: {Relations: []RelationSpec{
			{Key: "player-teams", Kind: KindPlayerTeam, Cardinality: Many, BackRef: "team_id"},
		}},
		KindPlayerTeam: {Composite: true, Relations: []RelationSpec{
			{Key: "player", Kind: KindPlayer, Cardinality: One, ForeignKey: "player_id"},
			{Key: "team", Kind: KindTeam, Cardinality: One, ForeignKey: "team_id"},
		}},
		KindBrand: {Relations: []RelationSpec{
			{Key: "sets", Kind: KindSet, Cardinality: Many, BackRef: "brand_id"},
		}},
		KindManufacturer: {Relations: []RelationSpec{
			{Key: "sets", Kind: KindSet, Cardinality: Many, BackRef: "manufacturer_id"},
		}},
		KindCardImage: {Relations: []RelationSpec{
			{Key: "card", Kind: KindCard, Cardinality: One, ForeignKey: "card_id"},
		}},
	}
}
