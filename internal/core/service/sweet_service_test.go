package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
	"github.com/sweetshop/inventory-api/internal/infrastructure/db/memory"
)

var discardLogger = zerolog.Nop()

func newTestSweetService() (*SweetService, *memory.SweetStore) {
	store := memory.NewSweetStore()
	return NewSweetService(store, memory.NewKeyStore(), discardLogger), store
}

func barfi(qty int) ports.SweetInput {
	return ports.SweetInput{
		Name:        "Barfi",
		Category:    "Barfi",
		Price:       250,
		Quantity:    qty,
		Description: "Milk fudge",
		ImageURL:    "https://example.com/barfi.png",
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestSweetService_AddThenGet_RoundTrip(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()

	created, err := svc.AddSweet(ctx, barfi(10))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.GetSweet(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Barfi", got.Name)
	assert.Equal(t, "Barfi", got.Category)
	assert.Equal(t, 250.0, got.Price)
	assert.Equal(t, 10, got.Quantity)
	assert.Equal(t, "Milk fudge", got.Description)
	assert.Equal(t, "https://example.com/barfi.png", got.ImageURL)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSweetService_Add_TrimsAndValidates(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()

	in := barfi(1)
	in.Name = "  Kaju Roll  "
	in.Category = " Kaju Katli "
	created, err := svc.AddSweet(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Kaju Roll", created.Name)
	assert.Equal(t, "Kaju Katli", created.Category)

	bad := barfi(-1)
	bad.Category = "Chocolate"
	bad.Price = -5
	bad.Name = "B"
	bad.Description = strings.Repeat("x", 501)
	_, err = svc.AddSweet(ctx, bad)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "category")
	assert.Contains(t, ve.Fields, "price")
	assert.Contains(t, ve.Fields, "quantity")
	assert.Contains(t, ve.Fields, "description")
}

func TestSweetService_Purchase(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(10))
	require.NoError(t, err)

	t.Run("within stock", func(t *testing.T) {
		updated, err := svc.Purchase(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 4})
		require.NoError(t, err)
		assert.Equal(t, 6, updated.Quantity)
	})

	t.Run("insufficient stock leaves quantity unchanged", func(t *testing.T) {
		_, err := svc.Purchase(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 7})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		got, _ := svc.GetSweet(ctx, created.ID)
		assert.Equal(t, 6, got.Quantity)
	})

	t.Run("exact stock drains to zero", func(t *testing.T) {
		updated, err := svc.Purchase(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 6})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.Quantity)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		for _, q := range []int{0, -3} {
			_, err := svc.Purchase(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: q})
			assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Purchase(ctx, ports.StockChangeInput{SweetID: "missing", Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrSweetNotFound)
	})
}

func TestSweetService_Purchase_Concurrent(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(20))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 20, ok)
	assert.Equal(t, 10, short)

	got, _ := svc.GetSweet(ctx, created.ID)
	assert.Equal(t, 0, got.Quantity)
}

func TestSweetService_Purchase_IdempotencyKey(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(10))
	require.NoError(t, err)

	in := ports.StockChangeInput{SweetID: created.ID, Quantity: 2, IdempotencyKey: "order-1"}
	_, err = svc.Purchase(ctx, in)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, in)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	got, _ := svc.GetSweet(ctx, created.ID)
	assert.Equal(t, 8, got.Quantity)
}

func TestSweetService_Purchase_FailureReleasesKey(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(1))
	require.NoError(t, err)

	in := ports.StockChangeInput{SweetID: created.ID, Quantity: 5, IdempotencyKey: "order-2"}
	_, err = svc.Purchase(ctx, in)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// The failed attempt must not block a retry with the same key.
	_, err = svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 10})
	require.NoError(t, err)
	updated, err := svc.Purchase(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Quantity)
}

func TestSweetService_Purchase_WithoutIdempotencyStore(t *testing.T) {
	store := memory.NewSweetStore()
	svc := NewSweetService(store, nil, discardLogger)
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(10))
	require.NoError(t, err)

	in := ports.StockChangeInput{SweetID: created.ID, Quantity: 1, IdempotencyKey: "ignored"}
	_, err = svc.Purchase(ctx, in)
	require.NoError(t, err)
	updated, err := svc.Purchase(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Quantity)
}

func TestSweetService_Restock(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(6))
	require.NoError(t, err)

	updated, err := svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 20})
	require.NoError(t, err)
	assert.Equal(t, 26, updated.Quantity)

	_, err = svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = svc.Restock(ctx, ports.StockChangeInput{SweetID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrSweetNotFound)
}

func TestSweetService_Restock_RejectsOverflow(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(5))
	require.NoError(t, err)

	_, err = svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: math.MaxInt})
	assert.ErrorIs(t, err, domain.ErrStockOverflow)

	got, err := svc.GetSweet(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	// Filling up to the limit exactly is still allowed.
	updated, err := svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: math.MaxInt - 5})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, updated.Quantity)
}

func TestSweetService_Update_ReplaceSemantics(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(10))
	require.NoError(t, err)

	updated, err := svc.UpdateSweet(ctx, created.ID, ports.SweetInput{
		Name:     "Barfi Deluxe",
		Category: "Barfi",
		Price:    300,
		Quantity: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "Barfi Deluxe", updated.Name)
	assert.Equal(t, 300.0, updated.Price)
	assert.Equal(t, 12, updated.Quantity)
	assert.Empty(t, updated.Description, "omitted description is cleared")
	assert.Empty(t, updated.ImageURL, "omitted image is cleared")

	_, err = svc.UpdateSweet(ctx, "missing", barfi(1))
	assert.ErrorIs(t, err, domain.ErrSweetNotFound)

	_, err = svc.UpdateSweet(ctx, created.ID, ports.SweetInput{Name: "Barfi", Category: "Cake"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSweetService_Delete(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	created, err := svc.AddSweet(ctx, barfi(10))
	require.NoError(t, err)

	deleted, err := svc.DeleteSweet(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.GetSweet(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrSweetNotFound)
	_, err = svc.DeleteSweet(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrSweetNotFound)
}

func TestSweetService_List_Pagination(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.AddSweet(ctx, barfi(i))
		require.NoError(t, err)
	}

	res, err := svc.ListSweets(ctx, ports.ListSweetsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 10, res.Limit)
	assert.EqualValues(t, 3, res.Total)
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, res.Sweets, 3)

	res, err = svc.ListSweets(ctx, ports.ListSweetsInput{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Sweets, 1)
	assert.Equal(t, 3, res.Pages)

	res, err = svc.ListSweets(ctx, ports.ListSweetsInput{Page: 1, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, res.Limit)
}

func TestSweetService_List_HugePage(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()
	_, err := svc.AddSweet(ctx, barfi(1))
	require.NoError(t, err)

	res, err := svc.ListSweets(ctx, ports.ListSweetsInput{Page: math.MaxInt, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Sweets)
	assert.EqualValues(t, 1, res.Total)
	assert.Equal(t, math.MaxInt/10, res.Page)
}

type recordedMetrics struct {
	mu        sync.Mutex
	purchases map[string]int
	restocks  map[string]int
	sold      int
	restocked int
	catalog   []string
}

func newRecordedMetrics() *recordedMetrics {
	return &recordedMetrics{purchases: map[string]int{}, restocks: map[string]int{}}
}

func (m *recordedMetrics) Purchase(result string, units int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[result]++
	m.sold += units
}

func (m *recordedMetrics) Restock(result string, units int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restocks[result]++
	m.restocked += units
}

func (m *recordedMetrics) CatalogChange(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = append(m.catalog, operation)
}

func TestSweetService_RecordsMetrics(t *testing.T) {
	rec := newRecordedMetrics()
	svc := NewSweetService(memory.NewSweetStore(), nil, discardLogger, WithInventoryMetrics(rec))
	ctx := context.Background()

	created, err := svc.AddSweet(ctx, barfi(3))
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 5})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: 4})
	require.NoError(t, err)
	_, err = svc.Restock(ctx, ports.StockChangeInput{SweetID: created.ID, Quantity: math.MaxInt})
	require.ErrorIs(t, err, domain.ErrStockOverflow)
	_, err = svc.DeleteSweet(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{ports.ResultOK: 1, ports.ResultInsufficientStock: 1}, rec.purchases)
	assert.Equal(t, map[string]int{ports.ResultOK: 1, ports.ResultInvalid: 1}, rec.restocks)
	assert.Equal(t, 2, rec.sold)
	assert.Equal(t, 4, rec.restocked)
	assert.Equal(t, []string{"create", "delete"}, rec.catalog)
}

func TestSweetService_Search(t *testing.T) {
	svc, _ := newTestSweetService()
	ctx := context.Background()

	mk := func(name, category string, price float64) {
		_, err := svc.AddSweet(ctx, ports.SweetInput{Name: name, Category: category, Price: price})
		require.NoError(t, err)
	}
	mk("Gulab Jamun", "Gulab Jamun", 250)
	mk("Kaju Katli", "Kaju Katli", 500)
	mk("Motichoor Ladoo", "Ladoo", 150)

	res, err := svc.SearchSweets(ctx, ports.SearchSweetsFilter{MinPrice: floatPtr(200), MaxPrice: floatPtr(300)})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Gulab Jamun", res[0].Name)

	res, err = svc.SearchSweets(ctx, ports.SearchSweetsFilter{Name: "gulab"})
	require.NoError(t, err)
	assert.Len(t, res, 1)

	res, err = svc.SearchSweets(ctx, ports.SearchSweetsFilter{Category: "Kaju Katli"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 500.0, res[0].Price)

	res, err = svc.SearchSweets(ctx, ports.SearchSweetsFilter{Name: "ladoo", MaxPrice: floatPtr(100)})
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NotNil(t, res)
}
