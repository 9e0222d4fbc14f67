// internal/core/domain/product.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold flags products running low on the dashboard
// and product reads when no per-product threshold is set.
const DefaultLowStockThreshold = 5

// Product is a retail catalog entry. SKU and Barcode are both normalized
// Codes and both resolve to the product; the barcode is what label
// printers encode, the SKU is what staff read out loud.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	SKU          Code            `json:"sku"`
	Barcode      Code            `json:"barcode"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Description  string          `json:"description,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	CurrentStock int             `json:"current_stock"`
	LowStockAt   int             `json:"low_stock_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
}

// Validate performs domain validation on the product.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if p.Barcode == "" {
		return fmt.Errorf("barcode is required")
	}
	if p.CostPrice.IsNegative() {
		return fmt.Errorf("cost_price cannot be negative")
	}
	if p.SalePrice.IsNegative() {
		return fmt.Errorf("sale_price cannot be negative")
	}
	if p.CurrentStock < 0 {
		return fmt.Errorf("current_stock cannot be negative")
	}
	if p.LowStockAt <= 0 {
		p.LowStockAt = DefaultLowStockThreshold
	}
	return nil
}

// Margin returns the per-unit profit margin.
func (p *Product) Margin() decimal.Decimal {
	return p.SalePrice.Sub(p.CostPrice)
}

// IsLowStock reports whether the product sits at or below its threshold.
func (p *Product) IsLowStock() bool {
	threshold := p.LowStockAt
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return p.CurrentStock <= threshold
}

// PrepareForStorage sets bookkeeping fields before persisting.
func (p *Product) PrepareForStorage() {
	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.LowStockAt <= 0 {
		p.LowStockAt = DefaultLowStockThreshold
	}
}
