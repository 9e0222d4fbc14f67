// internal/core/ports/product_service.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// ProductService defines the application service port for the catalog.
// Implemented by the application service; mutations are serialized per
// product by the dispatcher behind it.
type ProductService interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, p *domain.Product) error
	// Delete is soft by default; permanent deletion is refused for
	// products with recorded sales.
	Delete(ctx context.Context, id uuid.UUID, permanent bool) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Categories(ctx context.Context) ([]string, error)

	StockIn(ctx context.Context, id uuid.UUID, qty int) (*domain.Product, error)
	StockOut(ctx context.Context, id uuid.UUID, qty int) (*domain.Product, error)
	// Sell records a sale at unitPrice, or at the catalog sale price
	// when unitPrice is nil.
	Sell(ctx context.Context, id uuid.UUID, qty int, unitPrice *decimal.Decimal) (*domain.Sale, error)
	RegenerateCode(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	ListSales(ctx context.Context, params SalesParams) (*SalesResult, error)
	DeleteSale(ctx context.Context, saleID uuid.UUID) error
}

// ScanService resolves raw acquisition input into a scan verdict.
type ScanService interface {
	Resolve(ctx context.Context, raw string, method domain.DecodeMethod) (*domain.ScanResult, error)
}
