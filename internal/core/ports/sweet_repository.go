package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// SearchSweetsFilter holds the optional, conjunctive search criteria.
type SearchSweetsFilter struct {
	Name     string   // case-insensitive substring
	Category string   // exact match
	MinPrice *float64 // inclusive
	MaxPrice *float64 // inclusive
}

// SweetRepository is the catalog store. Every mutation is a single-document
// operation; the stock methods are atomic on the store side.
type SweetRepository interface {
	Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error)
	FindByID(ctx context.Context, id string) (*domain.Sweet, error)
	// List returns one page in insertion order plus the total record count.
	List(ctx context.Context, page, limit int) ([]*domain.Sweet, int64, error)
	Search(ctx context.Context, filter SearchSweetsFilter) ([]*domain.Sweet, error)
	// Replace overwrites every editable attribute of the sweet with id.
	Replace(ctx context.Context, id string, s *domain.Sweet) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) (*domain.Sweet, error)
	// DecrementStock subtracts qty only if the current quantity is at least
	// qty. It returns domain.ErrInsufficientStock otherwise.
	DecrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error)
	IncrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error)
}

// IdempotencyStore reserves client-supplied request keys.
type IdempotencyStore interface {
	// Reserve returns false when the key was already reserved.
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
