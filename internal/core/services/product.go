// internal/core/services/product.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

// ProductService is the application service behind the catalog API.
// Reads go straight to the repository; every mutation goes through the
// dispatcher so per-product serialization holds no matter which endpoint
// triggered it.
type ProductService struct {
	repo       ports.ProductRepository
	dispatcher *Dispatcher
	logger     *slog.Logger
}

var _ ports.ProductService = (*ProductService)(nil)

// NewProductService creates the catalog service.
func NewProductService(repo ports.ProductRepository, dispatcher *Dispatcher, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("service", "product")),
	}
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return s.dispatcher.CreateProduct(ctx, p)
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, p *domain.Product) error {
	return s.dispatcher.UpdateProduct(ctx, id, p)
}

// Delete soft-deletes by default. Permanent deletion is refused while the
// ledger references the product; sale history must stay reconstructible.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID, permanent bool) error {
	if !permanent {
		return s.repo.SoftDelete(ctx, id)
	}
	hasSales, err := s.repo.HasSales(ctx, id)
	if err != nil {
		return err
	}
	if hasSales {
		return fmt.Errorf("product %s has recorded sales and cannot be permanently deleted", id)
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 500 {
		params.PageSize = 50
	}
	return s.repo.FindAll(ctx, params)
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *ProductService) StockIn(ctx context.Context, id uuid.UUID, qty int) (*domain.Product, error) {
	return s.dispatcher.StockIn(ctx, id, qty)
}

func (s *ProductService) StockOut(ctx context.Context, id uuid.UUID, qty int) (*domain.Product, error) {
	return s.dispatcher.StockOut(ctx, id, qty)
}

func (s *ProductService) Sell(ctx context.Context, id uuid.UUID, qty int, unitPrice *decimal.Decimal) (*domain.Sale, error) {
	return s.dispatcher.Sell(ctx, id, qty, unitPrice)
}

func (s *ProductService) RegenerateCode(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.dispatcher.RegenerateCode(ctx, id)
}

func (s *ProductService) ListSales(ctx context.Context, params ports.SalesParams) (*ports.SalesResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 500 {
		params.PageSize = 50
	}
	return s.repo.ListSales(ctx, params)
}

// DeleteSale removes a mistaken sale line; the repository restores the
// sold quantity to stock in the same transaction.
func (s *ProductService) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	if err := s.repo.DeleteSale(ctx, saleID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "sale deleted, stock restored",
		slog.String("sale_id", saleID.String()))
	return nil
}
