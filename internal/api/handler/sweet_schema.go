package handler

import (
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// sweetRequest is the body of both create and update. Update replaces every
// editable field, so the two share one schema. Price is a pointer so that a
// missing price is told apart from a free item; the remaining field rules
// belong to domain.Sweet.
type sweetRequest struct {
	Name        string   `json:"name"     example:"Kaju Katli"`
	Category    string   `json:"category" example:"Barfi"`
	Price       *float64 `json:"price"    validate:"required" example:"250"`
	Quantity    *int     `json:"quantity" example:"10"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

func (r sweetRequest) toInput() ports.SweetInput {
	in := ports.SweetInput{
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		ImageURL:    r.ImageURL,
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.Quantity != nil {
		in.Quantity = *r.Quantity
	}
	return in
}

// stockRequest carries the quantity of a purchase or restock. A missing
// quantity is treated as zero and rejected by the service.
type stockRequest struct {
	Quantity int `json:"quantity" example:"2"`
}

type sweetData struct {
	Sweet *domain.Sweet `json:"sweet"`
}

type sweetsData struct {
	Sweets []*domain.Sweet `json:"sweets"`
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type sweetPageData struct {
	Sweets     []*domain.Sweet `json:"sweets"`
	Pagination pagination      `json:"pagination"`
}

func toSweetPageData(r *ports.ListSweetsResult) sweetPageData {
	return sweetPageData{
		Sweets: r.Sweets,
		Pagination: pagination{
			Page:  r.Page,
			Limit: r.Limit,
			Total: r.Total,
			Pages: r.Pages,
		},
	}
}

type sweetEnvelope struct {
	Success bool      `json:"success" example:"true"`
	Message string    `json:"message"`
	Data    sweetData `json:"data"`
}

type sweetsEnvelope struct {
	Success bool       `json:"success" example:"true"`
	Message string     `json:"message"`
	Data    sweetsData `json:"data"`
}

type sweetPageEnvelope struct {
	Success bool          `json:"success" example:"true"`
	Message string        `json:"message"`
	Data    sweetPageData `json:"data"`
}
