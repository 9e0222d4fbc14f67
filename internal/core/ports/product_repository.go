// internal/core/ports/product_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// ProductRepository defines the persistence port for the product catalog
// and its sales ledger. Implemented by the database adapter. Lookups that
// match nothing return (nil, nil); mutations that need a row return
// domain.ErrNotFound.
type ProductRepository interface {
	Save(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByBarcode(ctx context.Context, code domain.Code) (*domain.Product, error)
	// FindBySKU matches exactly first, then case-insensitively.
	FindBySKU(ctx context.Context, code domain.Code) (*domain.Product, error)
	FindAll(ctx context.Context, params ListParams) (*ListResult, error)
	// ListCodes returns every SKU and barcode currently assigned,
	// including soft-deleted products, for generator collision checks.
	ListCodes(ctx context.Context) (domain.CodeSet, error)
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)

	// AdjustStock applies delta to current stock. Negative deltas that
	// would drive stock below zero fail with domain.ErrInsufficientStock;
	// the update and the guard are one statement.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)

	// RecordSale atomically checks stock, writes the sale line and
	// decrements stock in a single transaction. A nil unitPrice sells at
	// the product's catalog sale price.
	RecordSale(ctx context.Context, productID uuid.UUID, qty int, unitPrice *decimal.Decimal, at time.Time) (*domain.Sale, error)
	// DeleteSale removes a sale line and restores its quantity to stock.
	DeleteSale(ctx context.Context, saleID uuid.UUID) error
	ListSales(ctx context.Context, params SalesParams) (*SalesResult, error)
	HasSales(ctx context.Context, productID uuid.UUID) (bool, error)

	SoftDelete(ctx context.Context, id uuid.UUID) error
	// Delete removes the row permanently. Products with recorded sales
	// refuse hard deletion.
	Delete(ctx context.Context, id uuid.UUID) error

	LowStock(ctx context.Context, limit int) ([]*domain.Product, error)
	SalesSummary(ctx context.Context, since time.Time) (*SalesSummary, error)
	TopSellers(ctx context.Context, since time.Time, limit int) ([]TopSeller, error)
	CategoryPerformance(ctx context.Context, since time.Time) ([]CategoryStat, error)
}

// ListParams holds parameters for listing products.
type ListParams struct {
	Search         string
	Category       string
	LowStockOnly   bool
	IncludeDeleted bool
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}

// ListResult holds a paginated product listing.
type ListResult struct {
	Products   []*domain.Product `json:"products"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

// SalesParams holds parameters for listing sales.
type SalesParams struct {
	ProductID uuid.UUID
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}

// SalesResult holds a paginated sales listing.
type SalesResult struct {
	Sales      []*domain.Sale `json:"sales"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
}

// SalesSummary aggregates the ledger for the dashboard.
type SalesSummary struct {
	TotalSales   int64           `json:"total_sales"`
	UnitsSold    int64           `json:"units_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
}

// TopSeller is one row of the best-sellers ranking.
type TopSeller struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       domain.Code     `json:"sku"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// CategoryStat is per-category sales performance.
type CategoryStat struct {
	Category string          `json:"category"`
	Products int64           `json:"products"`
	Revenue  decimal.Decimal `json:"revenue"`
	Profit   decimal.Decimal `json:"profit"`
}
