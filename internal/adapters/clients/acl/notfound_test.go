package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

func TestNewNotFound(t *testing.T) {
	tests := []struct {
		name         string
		resourceType string
		check        func(t *testing.T, err error)
	}{
		{"card", "cards", func(t *testing.T, err error) {
			var target *domain.CardNotFoundError
			assert.ErrorAs(t, err, &target)
		}},
		{"checklist alias is a card", "checklist", func(t *testing.T, err error) {
			var target *domain.CardNotFoundError
			assert.ErrorAs(t, err, &target)
		}},
		{"player", "players", func(t *testing.T, err error) {
			var target *domain.PlayerNotFoundError
			assert.ErrorAs(t, err, &target)
		}},
		{"parent set alias is a set", "parentset", func(t *testing.T, err error) {
			var target *domain.SetNotFoundError
			assert.ErrorAs(t, err, &target)
		}},
		{"other kinds stay generic", "teams", func(t *testing.T, err error) {
			var card *domain.CardNotFoundError
			assert.NotErrorAs(t, err, &card)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFound(tt.resourceType, "42", domain.Fields{})

			assert.True(t, domain.IsNotFound(err))

			var nf *domain.NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, "42", nf.ResourceID)

			tt.check(t, err)
		})
	}
}

func TestNewNotFound_KeepsServerMessage(t *testing.T) {
	err := NewNotFound("card", "7", domain.Fields{Message: "No query results for model [Card] 7", StatusCode: 404})

	assert.Contains(t, err.Error(), "No query results for model [Card] 7")
}
