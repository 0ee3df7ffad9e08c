package acl

import (
	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// NewNotFound returns the not-found error for a resource type, so callers
// can tell a missing card from a missing player without string checks.
// Types other than card, player and set produce a generic NotFoundError.
func NewNotFound(resourceType, id string, f domain.Fields) error {
	kind, _ := domain.DefaultRegistry().Kind(resourceType)

	switch kind {
	case domain.KindCard:
		return domain.NewCardNotFoundError(id, f)
	case domain.KindPlayer:
		return domain.NewPlayerNotFoundError(id, f)
	case domain.KindSet:
		return domain.NewSetNotFoundError(id, f)
	default:
		return domain.NewNotFoundError(resourceType, id, f)
	}
}
