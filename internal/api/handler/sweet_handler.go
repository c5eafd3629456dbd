package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/api/response"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// IdempotencyHeader lets a client safely retry a purchase.
const IdempotencyHeader = "Idempotency-Key"

// SweetHandler handles HTTP requests for catalog and inventory operations.
type SweetHandler struct {
	service ports.SweetService
}

func NewSweetHandler(service ports.SweetService) *SweetHandler {
	return &SweetHandler{service: service}
}

// Create handles POST /api/sweets.
//
// @Summary      Add a sweet to the catalog
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sweetRequest  true  "Sweet details"
// @Success      201   {object}  sweetEnvelope
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /sweets [post]
func (h *SweetHandler) Create(c echo.Context) error {
	var req sweetRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	sweet, err := h.service.AddSweet(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, "Sweet added successfully", sweetData{Sweet: sweet})
}

// List handles GET /api/sweets.
//
// @Summary      List sweets page by page
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 10, max 100)"
// @Success      200    {object}  sweetPageEnvelope
// @Failure      401    {object}  errorEnvelope
// @Router       /sweets [get]
func (h *SweetHandler) List(c echo.Context) error {
	// Non-numeric values fall back to the defaults.
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.ListSweets(c.Request().Context(), ports.ListSweetsInput{Page: page, Limit: limit})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Sweets fetched successfully", toSweetPageData(result))
}

// Search handles GET /api/sweets/search.
//
// @Summary      Search sweets
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        name      query     string  false  "Case-insensitive substring of the name"
// @Param        category  query     string  false  "Exact category"
// @Param        minPrice  query     number  false  "Lower price bound (inclusive)"
// @Param        maxPrice  query     number  false  "Upper price bound (inclusive)"
// @Success      200       {object}  sweetsEnvelope
// @Failure      400       {object}  errorEnvelope
// @Failure      401       {object}  errorEnvelope
// @Router       /sweets/search [get]
func (h *SweetHandler) Search(c echo.Context) error {
	filter := ports.SearchSweetsFilter{
		Name:     strings.TrimSpace(c.QueryParam("name")),
		Category: strings.TrimSpace(c.QueryParam("category")),
	}

	fields := make(map[string]string)
	filter.MinPrice = priceParam(c, "minPrice", fields)
	filter.MaxPrice = priceParam(c, "maxPrice", fields)
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}

	sweets, err := h.service.SearchSweets(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Search results", sweetsData{Sweets: sweets})
}

// Get handles GET /api/sweets/:id.
//
// @Summary      Get a sweet by id
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sweet id"
// @Success      200  {object}  sweetEnvelope
// @Failure      401  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /sweets/{id} [get]
func (h *SweetHandler) Get(c echo.Context) error {
	sweet, err := h.service.GetSweet(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Sweet fetched successfully", sweetData{Sweet: sweet})
}

// Update handles PUT /api/sweets/:id. Every editable field is replaced.
//
// @Summary      Replace a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Sweet id"
// @Param        body  body      sweetRequest  true  "Full sweet details"
// @Success      200   {object}  sweetEnvelope
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /sweets/{id} [put]
func (h *SweetHandler) Update(c echo.Context) error {
	var req sweetRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	sweet, err := h.service.UpdateSweet(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Sweet updated successfully", sweetData{Sweet: sweet})
}

// Delete handles DELETE /api/sweets/:id. Admin only.
//
// @Summary      Delete a sweet
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sweet id"
// @Success      200  {object}  sweetEnvelope
// @Failure      401  {object}  errorEnvelope
// @Failure      403  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /sweets/{id} [delete]
func (h *SweetHandler) Delete(c echo.Context) error {
	sweet, err := h.service.DeleteSweet(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Sweet deleted successfully", sweetData{Sweet: sweet})
}

// Purchase handles POST /api/sweets/:id/purchase.
//
// @Summary      Purchase units of a sweet
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string        true   "Sweet id"
// @Param        Idempotency-Key  header    string        false  "Idempotency key to prevent duplicate purchases"
// @Param        body             body      stockRequest  true   "Units to buy"
// @Success      200              {object}  sweetEnvelope
// @Failure      400              {object}  errorEnvelope
// @Failure      401              {object}  errorEnvelope
// @Failure      404              {object}  errorEnvelope
// @Failure      409              {object}  errorEnvelope
// @Router       /sweets/{id}/purchase [post]
func (h *SweetHandler) Purchase(c echo.Context) error {
	var req stockRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	sweet, err := h.service.Purchase(c.Request().Context(), ports.StockChangeInput{
		SweetID:        c.Param("id"),
		Quantity:       req.Quantity,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(IdempotencyHeader)),
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Purchase successful", sweetData{Sweet: sweet})
}

// Restock handles POST /api/sweets/:id/restock. Admin only.
//
// @Summary      Restock a sweet
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Sweet id"
// @Param        body  body      stockRequest  true  "Units to add"
// @Success      200   {object}  sweetEnvelope
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Failure      403   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /sweets/{id}/restock [post]
func (h *SweetHandler) Restock(c echo.Context) error {
	var req stockRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	sweet, err := h.service.Restock(c.Request().Context(), ports.StockChangeInput{
		SweetID:  c.Param("id"),
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Restock successful", sweetData{Sweet: sweet})
}

// priceParam parses an optional numeric query parameter. A malformed value
// is recorded in fields and yields nil.
func priceParam(c echo.Context, name string, fields map[string]string) *float64 {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fields[name] = name + " must be a number"
		return nil
	}
	return &v
}
