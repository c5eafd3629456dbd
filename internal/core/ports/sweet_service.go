package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// SweetInput carries every editable attribute of a sweet. Update uses
// replace semantics, so omitted optional fields are cleared.
type SweetInput struct {
	Name        string
	Category    string
	Price       float64
	Quantity    int
	Description string
	ImageURL    string
}

// ListSweetsInput is the raw pagination request. Values below 1 fall back
// to the defaults.
type ListSweetsInput struct {
	Page  int
	Limit int
}

// ListSweetsResult is one page of the catalog.
type ListSweetsResult struct {
	Sweets []*domain.Sweet
	Page   int
	Limit  int
	Total  int64
	Pages  int
}

// StockChangeInput drives purchase and restock.
type StockChangeInput struct {
	SweetID  string
	Quantity int
	// IdempotencyKey is optional and only honored by Purchase.
	IdempotencyKey string
}

type SweetService interface {
	AddSweet(ctx context.Context, in SweetInput) (*domain.Sweet, error)
	GetSweet(ctx context.Context, id string) (*domain.Sweet, error)
	ListSweets(ctx context.Context, in ListSweetsInput) (*ListSweetsResult, error)
	SearchSweets(ctx context.Context, filter SearchSweetsFilter) ([]*domain.Sweet, error)
	UpdateSweet(ctx context.Context, id string, in SweetInput) (*domain.Sweet, error)
	DeleteSweet(ctx context.Context, id string) (*domain.Sweet, error)
	Purchase(ctx context.Context, in StockChangeInput) (*domain.Sweet, error)
	Restock(ctx context.Context, in StockChangeInput) (*domain.Sweet, error)
}
