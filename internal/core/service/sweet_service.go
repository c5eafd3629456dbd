package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SweetService implements catalog management and the purchase/restock
// inventory operations.
type SweetService struct {
	repo        ports.SweetRepository
	idempotency ports.IdempotencyStore
	metrics     ports.InventoryMetrics
	log         zerolog.Logger
}

// SweetOption customises a SweetService.
type SweetOption func(*SweetService)

// WithInventoryMetrics attaches a metrics recorder; the default records
// nothing.
func WithInventoryMetrics(m ports.InventoryMetrics) SweetOption {
	return func(s *SweetService) { s.metrics = m }
}

// NewSweetService wires the catalog store. idempotency may be nil, in which
// case purchase idempotency keys are ignored.
func NewSweetService(repo ports.SweetRepository, idempotency ports.IdempotencyStore, log zerolog.Logger, opts ...SweetOption) *SweetService {
	s := &SweetService{repo: repo, idempotency: idempotency, metrics: nopMetrics{}, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SweetService) AddSweet(ctx context.Context, in ports.SweetInput) (*domain.Sweet, error) {
	sweet := toSweet(in)
	if err := sweet.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sweet.CreatedAt = now
	sweet.UpdatedAt = now

	created, err := s.repo.Create(ctx, sweet)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create sweet")
		return nil, fmt.Errorf("add sweet: %w", err)
	}

	s.metrics.CatalogChange("create")
	s.log.Info().Str("sweet_id", created.ID).Str("category", created.Category).Msg("sweet added")
	return created, nil
}

func (s *SweetService) GetSweet(ctx context.Context, id string) (*domain.Sweet, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *SweetService) ListSweets(ctx context.Context, in ports.ListSweetsInput) (*ports.ListSweetsResult, error) {
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// Beyond this page the offset no longer fits in an int.
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	sweets, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}
	if sweets == nil {
		sweets = []*domain.Sweet{}
	}

	return &ports.ListSweetsResult{
		Sweets: sweets,
		Page:   page,
		Limit:  limit,
		Total:  total,
		Pages:  int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *SweetService) SearchSweets(ctx context.Context, filter ports.SearchSweetsFilter) ([]*domain.Sweet, error) {
	sweets, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	if sweets == nil {
		sweets = []*domain.Sweet{}
	}
	return sweets, nil
}

// UpdateSweet overwrites all editable attributes with in. Fields left empty
// in the input are written empty.
func (s *SweetService) UpdateSweet(ctx context.Context, id string, in ports.SweetInput) (*domain.Sweet, error) {
	sweet := toSweet(in)
	if err := sweet.Validate(); err != nil {
		return nil, err
	}
	sweet.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Replace(ctx, id, sweet)
	if err != nil {
		if errors.Is(err, domain.ErrSweetNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}

	s.metrics.CatalogChange("update")
	return updated, nil
}

func (s *SweetService) DeleteSweet(ctx context.Context, id string) (*domain.Sweet, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSweetNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete sweet: %w", err)
	}

	s.metrics.CatalogChange("delete")
	s.log.Info().Str("sweet_id", deleted.ID).Msg("sweet deleted")
	return deleted, nil
}

// Purchase removes in.Quantity units from stock. The stock check and the
// decrement happen in one conditional store update, so concurrent purchases
// can never drive the quantity below zero.
func (s *SweetService) Purchase(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
	if in.Quantity <= 0 {
		s.metrics.Purchase(ports.ResultInvalid, 0)
		return nil, domain.ErrInvalidQuantity
	}

	reserved := false
	if in.IdempotencyKey != "" && s.idempotency != nil {
		ok, err := s.idempotency.Reserve(ctx, purchaseKey(in))
		if err != nil {
			s.log.Warn().Err(err).Str("sweet_id", in.SweetID).Msg("idempotency reserve failed, purchasing anyway")
		} else if !ok {
			s.metrics.Purchase(ports.ResultDuplicate, 0)
			return nil, domain.ErrDuplicateRequest
		} else {
			reserved = true
		}
	}

	sweet, err := s.repo.DecrementStock(ctx, in.SweetID, in.Quantity)
	if err != nil {
		if reserved {
			if relErr := s.idempotency.Release(ctx, purchaseKey(in)); relErr != nil {
				s.log.Warn().Err(relErr).Str("sweet_id", in.SweetID).Msg("failed to release idempotency key")
			}
		}
		switch {
		case errors.Is(err, domain.ErrSweetNotFound):
			s.metrics.Purchase(ports.ResultNotFound, 0)
			return nil, err
		case errors.Is(err, domain.ErrInsufficientStock):
			s.metrics.Purchase(ports.ResultInsufficientStock, 0)
			return nil, err
		}
		s.metrics.Purchase(ports.ResultError, 0)
		return nil, fmt.Errorf("purchase: %w", err)
	}

	s.metrics.Purchase(ports.ResultOK, in.Quantity)
	s.log.Info().
		Str("sweet_id", sweet.ID).
		Int("quantity", in.Quantity).
		Int("remaining", sweet.Quantity).
		Msg("purchase completed")

	return sweet, nil
}

// Restock adds in.Quantity units. The only upper bound is the largest
// quantity a store can hold; going past it fails with ErrStockOverflow.
func (s *SweetService) Restock(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
	if in.Quantity <= 0 {
		s.metrics.Restock(ports.ResultInvalid, 0)
		return nil, domain.ErrInvalidQuantity
	}

	sweet, err := s.repo.IncrementStock(ctx, in.SweetID, in.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSweetNotFound):
			s.metrics.Restock(ports.ResultNotFound, 0)
			return nil, err
		case errors.Is(err, domain.ErrStockOverflow):
			s.metrics.Restock(ports.ResultInvalid, 0)
			return nil, err
		}
		s.metrics.Restock(ports.ResultError, 0)
		return nil, fmt.Errorf("restock: %w", err)
	}

	s.metrics.Restock(ports.ResultOK, in.Quantity)
	s.log.Info().
		Str("sweet_id", sweet.ID).
		Int("quantity", in.Quantity).
		Int("stock", sweet.Quantity).
		Msg("restock completed")

	return sweet, nil
}

func toSweet(in ports.SweetInput) *domain.Sweet {
	s := &domain.Sweet{
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	s.Normalize()
	return s
}

// purchaseKey scopes a client key to the sweet it was sent for.
func purchaseKey(in ports.StockChangeInput) string {
	return "purchase:" + in.SweetID + ":" + in.IdempotencyKey
}

type nopMetrics struct{}

func (nopMetrics) Purchase(string, int)       {}
func (nopMetrics) Restock(string, int)        {}
func (nopMetrics) CatalogChange(string)       {}
func (nopMetrics) AuthAttempt(string, string) {}
