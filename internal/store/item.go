package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
)

// ItemStore defines persistence of application items on the server context.
type ItemStore interface {
	// Create saves a new item. Returns ErrItemExists when the name is taken.
	Create(ctx context.Context, item *domain.Item) error

	// GetByID retrieves an item. Returns ErrItemNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)

	// List returns all items ordered by name.
	List(ctx context.Context) ([]domain.Item, error)

	// Count returns the number of stored items.
	Count(ctx context.Context) (int64, error)
}
