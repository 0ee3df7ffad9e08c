package fixtures

import "github.com/jsamuelsen/cardsdk/internal/domain"

// Seeded returns a store loaded with the demo catalog.
func Seeded() *Store {
	s := NewStore()
	Seed(s)

	return s
}

// Seed loads the demo catalog into s: one 1989 baseball release with a
// subset, a handful of cards, players, teams and images.
func Seed(s *Store) {
	s.Put(domain.KindYear, "1", map[string]any{"year": float64(1989), "description": "1989 season"})
	s.Put(domain.KindYear, "2", map[string]any{"year": float64(1990)})

	s.Put(domain.KindGenre, "1", map[string]any{"name": "Baseball"})
	s.Put(domain.KindGenre, "2", map[string]any{"name": "Basketball"})

	s.Put(domain.KindBrand, "1", map[string]any{"name": "Upper Deck"})
	s.Put(domain.KindBrand, "2", map[string]any{"name": "Topps"})

	s.Put(domain.KindManufacturer, "1", map[string]any{"name": "The Upper Deck Company"})
	s.Put(domain.KindManufacturer, "2", map[string]any{"name": "Topps Company, Inc."})

	s.Put(domain.KindSet, "1", map[string]any{
		"name":            "1989 Upper Deck",
		"brand_id":        "1",
		"manufacturer_id": "1",
		"year_id":         "1",
		"genre_id":        "1",
		"card_count":      float64(800),
	})
	s.Put(domain.KindSet, "2", map[string]any{
		"name":       "1989 Upper Deck Update",
		"parent_id":  "1",
		"brand_id":   "1",
		"year_id":    "1",
		"genre_id":   "1",
		"card_count": float64(100),
	})
	s.Put(domain.KindSet, "3", map[string]any{
		"name":            "1989 Topps",
		"brand_id":        "2",
		"manufacturer_id": "2",
		"year_id":         "1",
		"genre_id":        "1",
		"card_count":      float64(792),
	})

	s.Put(domain.KindTeam, "1", map[string]any{"name": "Seattle Mariners", "location": "Seattle", "mascot": "Mariners"})
	s.Put(domain.KindTeam, "2", map[string]any{"name": "Baltimore Orioles", "location": "Baltimore", "mascot": "Orioles"})
	s.Put(domain.KindTeam, "3", map[string]any{"name": "Texas Rangers"})

	s.Put(domain.KindPlayer, "1", map[string]any{"first_name": "Ken", "last_name": "Griffey Jr."})
	s.Put(domain.KindPlayer, "2", map[string]any{"first_name": "Cal", "last_name": "Ripken Jr."})
	s.Put(domain.KindPlayer, "3", map[string]any{"first_name": "Nolan", "last_name": "Ryan"})

	s.Put(domain.KindCard, "1", map[string]any{"name": "Ken Griffey Jr.", "number": "1", "set_id": "1", "year_id": "1", "description": "Star Rookie"})
	s.Put(domain.KindCard, "2", map[string]any{"name": "Cal Ripken Jr.", "number": "467", "set_id": "1", "year_id": "1"})
	s.Put(domain.KindCard, "3", map[string]any{"name": "Nolan Ryan", "number": "145", "set_id": "1", "year_id": "1"})
	s.Put(domain.KindCard, "4", map[string]any{"name": "Nolan Ryan", "number": "774U", "set_id": "2", "year_id": "1"})
	s.Put(domain.KindCard, "5", map[string]any{"name": "Ken Griffey Jr.", "number": "41T", "set_id": "3", "year_id": "1"})

	s.Put(domain.KindPlayerTeam, "1", map[string]any{"player_id": "1", "team_id": "1", "card_id": "1"})
	s.Put(domain.KindPlayerTeam, "2", map[string]any{"player_id": "2", "team_id": "2", "card_id": "2"})
	s.Put(domain.KindPlayerTeam, "3", map[string]any{"player_id": "3", "team_id": "3", "card_id": "3"})
	s.Put(domain.KindPlayerTeam, "4", map[string]any{"player_id": "3", "team_id": "3", "card_id": "4"})
	s.Put(domain.KindPlayerTeam, "5", map[string]any{"player_id": "1", "team_id": "1", "card_id": "5"})

	s.Put(domain.KindCardImage, "1", map[string]any{"card_id": "1", "image_type": "front", "url": "https://img.example.test/cards/1/front.jpg"})
	s.Put(domain.KindCardImage, "2", map[string]any{"card_id": "1", "image_type": "back", "url": "https://img.example.test/cards/1/back.jpg"})
	s.Put(domain.KindCardImage, "3", map[string]any{"card_id": "2", "image_type": "front", "url": "https://img.example.test/cards/2/front.jpg"})

	s.Put(domain.KindAttribute, "1", map[string]any{"name": "rookie"})
	s.Put(domain.KindAttribute, "2", map[string]any{"name": "error"})

	s.Put(domain.KindObjectAttribute, "1", map[string]any{"attribute_id": "1", "object_id": "1", "name": "rookie", "value": "yes"})
}
