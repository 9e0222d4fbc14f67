// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a completed point-of-sale transaction line. Revenue and Profit
// are computed at sale time from the product's prices so later price edits
// never rewrite history.
type Sale struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	SKU       Code            `json:"sku"`
	Name      string          `json:"product_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Revenue   decimal.Decimal `json:"revenue"`
	Profit    decimal.Decimal `json:"profit"`
	SoldAt    time.Time       `json:"sold_at"`
}

// NewSale builds a sale line for qty units of p. The unit price defaults
// to the product's current sale price; a non-nil unitPrice overrides it
// so staff can discount a single transaction without repricing the
// catalog. Profit is always measured against the product's cost price.
func NewSale(p *Product, qty int, unitPrice *decimal.Decimal, at time.Time) (*Sale, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	price := p.SalePrice
	if unitPrice != nil {
		if unitPrice.IsNegative() {
			return nil, fmt.Errorf("unit price cannot be negative")
		}
		price = *unitPrice
	}
	q := decimal.NewFromInt(int64(qty))
	return &Sale{
		ID:        uuid.New(),
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: price,
		Revenue:   price.Mul(q),
		Profit:    price.Sub(p.CostPrice).Mul(q),
		SoldAt:    at,
	}, nil
}
