package domain

import (
	"strings"
)

// Canonical kinds.
const (
	KindCard            = "card"
	KindSet             = "set"
	KindPlayer          = "player"
	KindTeam            = "team"
	KindPlayerTeam      = "playerteam"
	KindBrand           = "brand"
	KindManufacturer    = "manufacturer"
	KindYear            = "year"
	KindGenre           = "genre"
	KindCardImage       = "cardimage"
	KindAttribute       = "attribute"
	KindObjectAttribute = "objectattribute"
)

// Card is a single trading card.
type Card struct {
	*Object
}

func (c *Card) Name() string        { return c.String("name") }
func (c *Card) Number() string      { return c.String("number") }
func (c *Card) Description() string { return c.String("description") }
func (c *Card) SetID() string       { return c.String("set_id") }
func (c *Card) YearID() string      { return c.String("year_id") }

// Set returns the set the card belongs to, or nil.
func (c *Card) Set() *Set { return relatedAs[*Set](c.Object, "set") }

// Images returns the card's images.
func (c *Card) Images() []*CardImage { return relatedManyAs[*CardImage](c.Object, "card-images") }

// PlayerTeams returns the player-on-team links printed on the card.
func (c *Card) PlayerTeams() []*PlayerTeam {
	return relatedManyAs[*PlayerTeam](c.Object, "player-teams")
}

// ObjectAttributes returns attribute values attached to the card.
func (c *Card) ObjectAttributes() []*ObjectAttribute {
	return relatedManyAs[*ObjectAttribute](c.Object, "object-attributes")
}

// FullName joins the card number and name, prefixed with the set name when
// the set was included.
func (c *Card) FullName() string {
	parts := make([]string, 0, 3)

	if s := c.Set(); s != nil && s.Name() != "" {
		parts = append(parts, s.Name())
	}

	if n := c.Number(); n != "" {
		parts = append(parts, "#"+n)
	}

	if n := c.Name(); n != "" {
		parts = append(parts, n)
	}

	return strings.Join(parts, " ")
}

// Set is a card set, possibly a subset of a parent set.
type Set struct {
	*Object
}

func (s *Set) Name() string           { return s.String("name") }
func (s *Set) Description() string    { return s.String("description") }
func (s *Set) ParentID() string       { return s.String("parent_id") }
func (s *Set) BrandID() string        { return s.String("brand_id") }
func (s *Set) ManufacturerID() string { return s.String("manufacturer_id") }
func (s *Set) YearID() string         { return s.String("year_id") }
func (s *Set) GenreID() string        { return s.String("genre_id") }
func (s *Set) CardCount() int         { return s.Int("card_count") }

// Parent returns the parent set, or nil.
func (s *Set) Parent() *Set { return relatedAs[*Set](s.Object, "set") }

// Cards returns the cards in the set.
func (s *Set) Cards() []*Card { return relatedManyAs[*Card](s.Object, "cards") }

func (s *Set) Brand() *Brand               { return relatedAs[*Brand](s.Object, "brand") }
func (s *Set) Manufacturer() *Manufacturer { return relatedAs[*Manufacturer](s.Object, "manufacturer") }
func (s *Set) Year() *Year                 { return relatedAs[*Year](s.Object, "year") }
func (s *Set) Genre() *Genre               { return relatedAs[*Genre](s.Object, "genre") }

// IsSubset reports whether the set has a parent.
func (s *Set) IsSubset() bool {
	return s.ParentID() != "" || s.HasRelation("set")
}

// Player is an athlete or character appearing on cards.
type Player struct {
	*Object
}

func (p *Player) FirstName() string { return p.String("first_name") }
func (p *Player) LastName() string  { return p.String("last_name") }
func (p *Player) ParentID() string  { return p.String("parent_id") }

// PlayerTeams returns the player's team associations.
func (p *Player) PlayerTeams() []*PlayerTeam {
	return relatedManyAs[*PlayerTeam](p.Object, "player-teams")
}

// FullName joins first and last name.
func (p *Player) FullName() string {
	return strings.TrimSpace(p.FirstName() + " " + p.LastName())
}

// Team is a club or franchise.
type Team struct {
	*Object
}

func (t *Team) Name() string     { return t.String("name") }
func (t *Team) Location() string { return t.String("location") }
func (t *Team) Mascot() string   { return t.String("mascot") }

// PlayerTeams returns the team's player associations.
func (t *Team) PlayerTeams() []*PlayerTeam {
	return relatedManyAs[*PlayerTeam](t.Object, "player-teams")
}

// DisplayName prefers "Location Mascot", falling back to Name.
func (t *Team) DisplayName() string {
	if t.Location() != "" && t.Mascot() != "" {
		return t.Location() + " " + t.Mascot()
	}

	if t.Name() != "" {
		return t.Name()
	}

	return strings.TrimSpace(t.Location() + " " + t.Mascot())
}

// PlayerTeam links a player to a team. It is the composite kind the graph
// builder resolves one level deep.
type PlayerTeam struct {
	*Object
}

func (pt *PlayerTeam) PlayerID() string { return pt.String("player_id") }
func (pt *PlayerTeam) TeamID() string   { return pt.String("team_id") }
func (pt *PlayerTeam) Player() *Player  { return relatedAs[*Player](pt.Object, "player") }
func (pt *PlayerTeam) Team() *Team      { return relatedAs[*Team](pt.Object, "team") }

// Brand is a card brand.
type Brand struct {
	*Object
}

func (b *Brand) Name() string        { return b.String("name") }
func (b *Brand) Description() string { return b.String("description") }
func (b *Brand) Sets() []*Set        { return relatedManyAs[*Set](b.Object, "sets") }

// Manufacturer produces sets.
type Manufacturer struct {
	*Object
}

func (m *Manufacturer) Name() string        { return m.String("name") }
func (m *Manufacturer) Description() string { return m.String("description") }
func (m *Manufacturer) Sets() []*Set        { return relatedManyAs[*Set](m.Object, "sets") }

// Year is a release year.
type Year struct {
	*Object
}

func (y *Year) Year() int            { return y.Int("year") }
func (y *Year) Description() string { return y.String("description") }

// Genre classifies sets (sport, entertainment, ...).
type Genre struct {
	*Object
}

func (g *Genre) Name() string        { return g.String("name") }
func (g *Genre) Description() string { return g.String("description") }

// CardImage is a scan of one side of a card.
type CardImage struct {
	*Object
}

func (ci *CardImage) CardID() string    { return ci.String("card_id") }
func (ci *CardImage) ImageType() string { return ci.String("image_type") }
func (ci *CardImage) URL() string       { return ci.String("url") }
func (ci *CardImage) Card() *Card       { return relatedAs[*Card](ci.Object, "card") }

// IsFront reports whether the image shows the card front.
func (ci *CardImage) IsFront() bool {
	return strings.EqualFold(ci.ImageType(), "front")
}

// Attribute is a catalog-wide attribute definition (e.g. "rookie").
type Attribute struct {
	*Object
}

func (a *Attribute) Name() string        { return a.String("name") }
func (a *Attribute) Value() string       { return a.String("value") }
func (a *Attribute) AttributeID() string { return a.String("attribute_id") }

// ObjectAttribute attaches an attribute value to a catalog object.
type ObjectAttribute struct {
	*Object
}

func (oa *ObjectAttribute) Name() string        { return oa.String("name") }
func (oa *ObjectAttribute) Value() string       { return oa.String("value") }
func (oa *ObjectAttribute) AttributeID() string { return oa.String("attribute_id") }
func (oa *ObjectAttribute) ObjectID() string    { return oa.String("object_id") }
