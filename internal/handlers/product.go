// internal/handlers/product.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

// ProductHandler handles catalog HTTP requests.
type ProductHandler struct {
	service ports.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service ports.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "product")),
	}
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get product",
			slog.String("product_id", id.String()),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to retrieve product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.List(ctx, h.parseListParams(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.service.Create(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create product",
			slog.String("name", req.Name),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to create product")
		return
	}

	h.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("sku", product.SKU.String()))

	respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Update(ctx, id, req.ToDomain()); err != nil {
		h.logger.ErrorContext(ctx, "failed to update product",
			slog.String("product_id", id.String()),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to update product")
		return
	}

	updated, err := h.service.GetByID(ctx, id)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Product updated successfully"})
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	permanent := r.URL.Query().Get("permanent") == "true"

	if err := h.service.Delete(ctx, id, permanent); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete product",
			slog.String("product_id", id.String()),
			slog.Bool("permanent", permanent),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to delete product")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Product deleted successfully",
		"id":        id.String(),
		"permanent": permanent,
	})
}

// RegenerateCode handles POST /api/v1/products/{id}/regenerate-code
func (h *ProductHandler) RegenerateCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.service.RegenerateCode(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to regenerate barcode",
			slog.String("product_id", id.String()),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to regenerate barcode")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// StockRequest is the body of a stock movement.
type StockRequest struct {
	Direction string `json:"direction"` // "in" or "out"
	Quantity  int    `json:"quantity"`
}

// AdjustStock handles POST /api/v1/products/{id}/stock
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	var product *domain.Product
	switch req.Direction {
	case "in":
		product, err = h.service.StockIn(ctx, id, req.Quantity)
	case "out":
		product, err = h.service.StockOut(ctx, id, req.Quantity)
	default:
		respondError(w, http.StatusBadRequest, `direction must be "in" or "out"`)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "stock adjustment failed",
			slog.String("product_id", id.String()),
			slog.String("direction", req.Direction),
			slog.Int("quantity", req.Quantity),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to adjust stock")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// ListCategories handles GET /api/v1/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.service.Categories(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// parseListParams parses query parameters for listing products.
func (h *ProductHandler) parseListParams(r *http.Request) ports.ListParams {
	params := ports.ListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			params.PageSize = l
		}
	}

	params.Search = r.URL.Query().Get("search")
	params.Category = r.URL.Query().Get("category")
	params.LowStockOnly = r.URL.Query().Get("low_stock") == "true"
	params.IncludeDeleted = r.URL.Query().Get("include_deleted") == "true"

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// ProductRequest is the body for creating or updating a product. Empty
// codes on create are generated server-side.
type ProductRequest struct {
	SKU          string          `json:"sku,omitempty"`
	Barcode      string          `json:"barcode,omitempty"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Description  string          `json:"description,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	CurrentStock int             `json:"current_stock"`
	LowStockAt   *int            `json:"low_stock_at,omitempty"`
}

// Validate validates the product request.
func (r *ProductRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.CostPrice.IsNegative() {
		return fmt.Errorf("cost_price cannot be negative")
	}
	if r.SalePrice.IsNegative() {
		return fmt.Errorf("sale_price cannot be negative")
	}
	if r.CurrentStock < 0 {
		return fmt.Errorf("current_stock cannot be negative")
	}
	if r.LowStockAt != nil && *r.LowStockAt < 0 {
		return fmt.Errorf("low_stock_at cannot be negative")
	}
	return nil
}

// ToDomain converts the request to a domain model.
func (r *ProductRequest) ToDomain() *domain.Product {
	p := &domain.Product{
		SKU:          domain.Code(r.SKU),
		Barcode:      domain.Code(r.Barcode),
		Name:         r.Name,
		Category:     r.Category,
		Description:  r.Description,
		CostPrice:    r.CostPrice,
		SalePrice:    r.SalePrice,
		CurrentStock: r.CurrentStock,
	}
	if r.LowStockAt != nil {
		p.LowStockAt = *r.LowStockAt
	}
	return p
}
