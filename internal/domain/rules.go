package domain

import "maps"

// StaticSchemas holds the client-side validation rules for create and
// update payloads, keyed by kind then attribute. Rules are
// go-playground/validator tags. Build it once and pass it where needed.
type StaticSchemas struct {
	rules map[string]map[string]string
}

// NewStaticSchemas returns the catalog's validation rule tables.
func NewStaticSchemas() *StaticSchemas {
	return &StaticSchemas{rules: map[string]map[string]string{
		KindCard: {
			"name":        "required,max=255",
			"number":      "required,max=50",
			"set_id":      "required",
			"description": "omitempty,max=2000",
			"year_id":     "omitempty",
		},
		KindSet: {
			"name":            "required,max=255",
			"description":     "omitempty,max=2000",
			"parent_id":       "omitempty",
			"brand_id":        "omitempty",
			"manufacturer_id": "omitempty",
			"year_id":         "omitempty",
			"genre_id":        "omitempty",
			"card_count":      "omitempty,min=0",
		},
		KindPlayer: {
			"first_name": "required,max=100",
			"last_name":  "required,max=100",
			"parent_id":  "omitempty",
		},
		KindTeam: {
			"name":     "required,max=255",
			"location": "omitempty,max=255",
			"mascot":   "omitempty,max=255",
		},
		KindPlayerTeam: {
			"player_id": "required",
			"team_id":   "required",
		},
		KindBrand: {
			"name":        "required,max=255",
			"description": "omitempty,max=2000",
		},
		KindManufacturer: {
			"name":        "required,max=255",
			"description": "omitempty,max=2000",
		},
		KindYear: {
			"year":        "required,min=1800,max=2100",
			"description": "omitempty,max=2000",
		},
		KindGenre: {
			"name":        "required,max=255",
			"description": "omitempty,max=2000",
		},
		KindCardImage: {
			"card_id":    "required",
			"image_type": "required,oneof=front back",
			"url":        "required,url",
		},
		KindAttribute: {
			"name":  "required,max=255",
			"value": "omitempty,max=255",
		},
		KindObjectAttribute: {
			"attribute_id": "required",
			"object_id":    "required",
			"value":        "omitempty,max=255",
		},
	}}
}

// Rules returns a copy of the rule table for kind.
func (s *StaticSchemas) Rules(kind string) (map[string]string, bool) {
	r, ok := s.rules[kind]
	if !ok {
		return nil, false
	}

	return maps.Clone(r), true
}
