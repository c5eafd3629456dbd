package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrSweetNotFound     = errors.New("sweet not found")
	ErrInsufficientStock = errors.New("insufficient stock available")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrDuplicateRequest  = errors.New("duplicate purchase request")
	ErrStockOverflow     = errors.New("restock would exceed the maximum stock level")
)

const (
	SweetNameMin        = 2
	SweetNameMax        = 100
	SweetDescriptionMax = 500
)

// Categories is the closed set of sweet classifications.
var Categories = []string{
	"Barfi",
	"Ladoo",
	"Halwa",
	"Jalebi",
	"Rasgulla",
	"Gulab Jamun",
	"Peda",
	"Kaju Katli",
	"Other",
}

// IsValidCategory reports whether c belongs to Categories.
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Sweet is a stock item in the catalog.
type Sweet struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Normalize trims the free-text attributes the same way the store does.
func (s *Sweet) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
	s.Description = strings.TrimSpace(s.Description)
	s.ImageURL = strings.TrimSpace(s.ImageURL)
}

// Validate checks the at-rest invariants of a sweet. It expects Normalize
// to have been called.
func (s *Sweet) Validate() error {
	fields := make(map[string]string)

	switch n := utf8.RuneCountInString(s.Name); {
	case n == 0:
		fields["name"] = "Sweet name is required"
	case n < SweetNameMin:
		fields["name"] = "Name must be at least 2 characters"
	case n > SweetNameMax:
		fields["name"] = "Name cannot exceed 100 characters"
	}

	if s.Category == "" {
		fields["category"] = "Category is required"
	} else if !IsValidCategory(s.Category) {
		fields["category"] = "Please select a valid category"
	}

	if s.Price < 0 {
		fields["price"] = "Price cannot be negative"
	}
	if s.Quantity < 0 {
		fields["quantity"] = "Quantity cannot be negative"
	}
	if utf8.RuneCountInString(s.Description) > SweetDescriptionMax {
		fields["description"] = "Description cannot exceed 500 characters"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
