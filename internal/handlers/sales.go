// internal/handlers/sales.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/ports"
)

// SalesHandler handles the sales ledger.
type SalesHandler struct {
	service ports.ProductService
	logger  *slog.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(service ports.ProductService, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "sales")),
	}
}

// SaleRequest is the body for recording a sale. UnitPrice overrides the
// catalog sale price for this transaction only; omit it to sell at the
// listed price.
type SaleRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateSale handles POST /api/v1/sales
func (h *SalesHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		respondError(w, http.StatusBadRequest, "unit_price cannot be negative")
		return
	}

	sale, err := h.service.Sell(ctx, req.ProductID, req.Quantity, req.UnitPrice)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record sale",
			slog.String("product_id", req.ProductID.String()),
			slog.Int("quantity", req.Quantity),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to record sale")
		return
	}

	respondJSON(w, http.StatusCreated, sale)
}

// ListSales handles GET /api/v1/sales
func (h *SalesHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.SalesParams{Page: 1, PageSize: 50}

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
	if pid := r.URL.Query().Get("product_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product_id format")
			return
		}
		params.ProductID = id
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			params.From = t
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// Inclusive end of day.
			params.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	result, err := h.service.ListSales(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sales", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to list sales")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// DeleteSale handles DELETE /api/v1/sales/{id}. The sold quantity goes
// back to stock.
func (h *SalesHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	if err := h.service.DeleteSale(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete sale",
			slog.String("sale_id", id.String()),
			slog.Any("error", err))
		respondDomainError(w, err, "Failed to delete sale")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Sale deleted, stock restored",
		"id":      id.String(),
	})
}
