package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

type stubSweetService struct {
	addFn      func(ctx context.Context, in ports.SweetInput) (*domain.Sweet, error)
	listFn     func(ctx context.Context, in ports.ListSweetsInput) (*ports.ListSweetsResult, error)
	searchFn   func(ctx context.Context, f ports.SearchSweetsFilter) ([]*domain.Sweet, error)
	purchaseFn func(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error)
	restockFn  func(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error)
}

func (s *stubSweetService) AddSweet(ctx context.Context, in ports.SweetInput) (*domain.Sweet, error) {
	return s.addFn(ctx, in)
}

func (s *stubSweetService) GetSweet(ctx context.Context, id string) (*domain.Sweet, error) {
	return nil, domain.ErrSweetNotFound
}

func (s *stubSweetService) ListSweets(ctx context.Context, in ports.ListSweetsInput) (*ports.ListSweetsResult, error) {
	return s.listFn(ctx, in)
}

func (s *stubSweetService) SearchSweets(ctx context.Context, f ports.SearchSweetsFilter) ([]*domain.Sweet, error) {
	return s.searchFn(ctx, f)
}

func (s *stubSweetService) UpdateSweet(ctx context.Context, id string, in ports.SweetInput) (*domain.Sweet, error) {
	return &domain.Sweet{ID: id, Name: in.Name}, nil
}

func (s *stubSweetService) DeleteSweet(ctx context.Context, id string) (*domain.Sweet, error) {
	return &domain.Sweet{ID: id}, nil
}

func (s *stubSweetService) Purchase(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
	return s.purchaseFn(ctx, in)
}

func (s *stubSweetService) Restock(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
	return s.restockFn(ctx, in)
}

func TestSweetHandler_Create_Success(t *testing.T) {
	stub := &stubSweetService{
		addFn: func(ctx context.Context, in ports.SweetInput) (*domain.Sweet, error) {
			if in.Name != "Kaju Katli" || in.Category != "Barfi" || in.Price != 250 || in.Quantity != 10 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Sweet{ID: "s1", Name: in.Name, Category: in.Category, Price: in.Price, Quantity: in.Quantity}, nil
		},
	}
	handler := NewSweetHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/sweets",
		`{"name":"Kaju Katli","category":"Barfi","price":250,"quantity":10}`)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeEnvelope(t, rec)
	data, _ := resp["data"].(map[string]any)
	sweet, ok := data["sweet"].(map[string]any)
	if !ok || sweet["_id"] != "s1" || sweet["quantity"] != float64(10) {
		t.Fatalf("unexpected sweet payload: %+v", data)
	}
}

func TestSweetHandler_Create_MissingPrice(t *testing.T) {
	stub := &stubSweetService{
		addFn: func(ctx context.Context, in ports.SweetInput) (*domain.Sweet, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewSweetHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/sweets", `{"name":"Kaju Katli","category":"Barfi"}`)

	err := handler.Create(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Fields["price"] != "Price is required" {
		t.Fatalf("unexpected fields: %+v", ve.Fields)
	}
}

func TestSweetHandler_List_ParsesQuery(t *testing.T) {
	cases := []struct {
		query       string
		page, limit int
	}{
		{"?page=2&limit=5", 2, 5},
		{"?page=abc&limit=", 0, 0},
		{"", 0, 0},
	}

	for _, tc := range cases {
		stub := &stubSweetService{
			listFn: func(ctx context.Context, in ports.ListSweetsInput) (*ports.ListSweetsResult, error) {
				if in.Page != tc.page || in.Limit != tc.limit {
					t.Fatalf("%q: unexpected input %+v", tc.query, in)
				}
				return &ports.ListSweetsResult{Sweets: []*domain.Sweet{}, Page: 1, Limit: 10}, nil
			},
		}
		c, rec := newJSONContext(http.MethodGet, "/api/sweets"+tc.query, "")

		if err := NewSweetHandler(stub).List(c); err != nil {
			t.Fatalf("%q: handler error: %v", tc.query, err)
		}
		data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
		if _, ok := data["pagination"].(map[string]any); !ok {
			t.Fatalf("%q: expected pagination, got %+v", tc.query, data)
		}
		if sweets, ok := data["sweets"].([]any); !ok || len(sweets) != 0 {
			t.Fatalf("%q: expected empty sweets array, got %+v", tc.query, data["sweets"])
		}
	}
}

func TestSweetHandler_Search_PriceRange(t *testing.T) {
	stub := &stubSweetService{
		searchFn: func(ctx context.Context, f ports.SearchSweetsFilter) ([]*domain.Sweet, error) {
			if f.Name != "kaju" || f.MinPrice == nil || *f.MinPrice != 200 || f.MaxPrice == nil || *f.MaxPrice != 300 {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return []*domain.Sweet{{ID: "s1", Price: 250}}, nil
		},
	}

	c, rec := newJSONContext(http.MethodGet, "/api/sweets/search?name=kaju&minPrice=200&maxPrice=300", "")

	if err := NewSweetHandler(stub).Search(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeEnvelope(t, rec)
	if resp["message"] != "Search results" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestSweetHandler_Search_MalformedPrice(t *testing.T) {
	stub := &stubSweetService{
		searchFn: func(ctx context.Context, f ports.SearchSweetsFilter) ([]*domain.Sweet, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	c, _ := newJSONContext(http.MethodGet, "/api/sweets/search?minPrice=cheap", "")

	err := NewSweetHandler(stub).Search(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["minPrice"] == "" {
		t.Fatalf("expected minPrice validation error, got %v", err)
	}
}

func TestSweetHandler_Purchase_PassesIdempotencyKey(t *testing.T) {
	stub := &stubSweetService{
		purchaseFn: func(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
			if in.SweetID != "s1" || in.Quantity != 4 || in.IdempotencyKey != "order-7" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Sweet{ID: "s1", Quantity: 6}, nil
		},
	}

	c, rec := newJSONContext(http.MethodPost, "/api/sweets/s1/purchase", `{"quantity":4}`)
	c.Request().Header.Set(IdempotencyHeader, "order-7")
	c.SetParamNames("id")
	c.SetParamValues("s1")

	if err := NewSweetHandler(stub).Purchase(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if msg := decodeEnvelope(t, rec)["message"]; msg != "Purchase successful" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestSweetHandler_Purchase_PropagatesDomainError(t *testing.T) {
	stub := &stubSweetService{
		purchaseFn: func(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
			return nil, domain.ErrInsufficientStock
		},
	}

	c, _ := newJSONContext(http.MethodPost, "/api/sweets/s1/purchase", `{"quantity":400}`)
	c.SetParamNames("id")
	c.SetParamValues("s1")

	if err := NewSweetHandler(stub).Purchase(c); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestSweetHandler_Restock_NonIntegerQuantity(t *testing.T) {
	stub := &stubSweetService{
		restockFn: func(ctx context.Context, in ports.StockChangeInput) (*domain.Sweet, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	c, _ := newJSONContext(http.MethodPost, "/api/sweets/s1/restock", `{"quantity":"lots"}`)
	c.SetParamNames("id")
	c.SetParamValues("s1")

	err := NewSweetHandler(stub).Restock(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}
