package ports

import (
	"context"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
)

// SessionStore holds drive sessions for the lifetime of a client screen.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Update applies fn to the stored session under the store's lock and
	// returns a copy of the result. Returning an error from fn aborts the update.
	Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// PlaceRepository is a local gazetteer of named places.
type PlaceRepository interface {
	UpsertBatch(ctx context.Context, places []domain.Place) error
	Search(ctx context.Context, name string, limit int) ([]domain.Place, error)
}
