// internal/core/services/dispatcher.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

// Dispatcher serializes catalog mutations per product: two mutations of
// the same product never interleave, while different products proceed
// concurrently. The sale path additionally relies on the repository's own
// transaction, so the invariant holds even against writers that bypass
// this process.
type Dispatcher struct {
	repo    ports.ProductRepository
	codegen *CodeGenerator
	cache   ports.CacheRepository // optional
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*productLock
}

type productLock struct {
	mu   sync.Mutex
	refs int
}

// NewDispatcher creates a dispatcher. cache may be nil.
func NewDispatcher(repo ports.ProductRepository, codegen *CodeGenerator, cache ports.CacheRepository, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:    repo,
		codegen: codegen,
		cache:   cache,
		logger:  logger.With(slog.String("service", "dispatcher")),
		locks:   make(map[uuid.UUID]*productLock),
	}
}

// StockIn adds qty units to the product.
func (d *Dispatcher) StockIn(ctx context.Context, id uuid.UUID, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("stock-in quantity must be positive, got %d", qty)
	}
	var p *domain.Product
	err := d.withProductLock(id, func() error {
		var err error
		p, err = d.repo.AdjustStock(ctx, id, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, p)
	d.logger.InfoContext(ctx, "stock in",
		slog.String("product_id", id.String()), slog.Int("qty", qty))
	return p, nil
}

// StockOut removes qty units; it fails with ErrInsufficientStock rather
// than driving stock negative.
func (d *Dispatcher) StockOut(ctx context.Context, id uuid.UUID, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("stock-out quantity must be positive, got %d", qty)
	}
	var p *domain.Product
	err := d.withProductLock(id, func() error {
		var err error
		p, err = d.repo.AdjustStock(ctx, id, -qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, p)
	d.logger.InfoContext(ctx, "stock out",
		slog.String("product_id", id.String()), slog.Int("qty", qty))
	return p, nil
}

// Sell records a sale atomically: stock check, ledger insert and stock
// decrement are one repository transaction. A nil unitPrice sells at the
// catalog price.
func (d *Dispatcher) Sell(ctx context.Context, id uuid.UUID, qty int, unitPrice *decimal.Decimal) (*domain.Sale, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("sale quantity must be positive, got %d", qty)
	}
	var (
		sale *domain.Sale
		p    *domain.Product
	)
	err := d.withProductLock(id, func() error {
		var err error
		sale, err = d.repo.RecordSale(ctx, id, qty, unitPrice, time.Now())
		if err != nil || d.cache == nil {
			return err
		}
		// Scan cache entries carry stock counts, so the product's own
		// keys must go too.
		if p, err = d.repo.FindByID(ctx, id); err != nil {
			d.logger.WarnContext(ctx, "post-sale lookup failed",
				slog.String("product_id", id.String()), slog.Any("error", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, p)
	d.logger.InfoContext(ctx, "sale recorded",
		slog.String("product_id", id.String()),
		slog.Int("qty", qty),
		slog.String("revenue", sale.Revenue.String()))
	return sale, nil
}

// CreateProduct fills in missing codes, validates and persists. Supplied
// codes are normalized; collisions surface as ErrDuplicateCode from the
// store's uniqueness constraints.
func (d *Dispatcher) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := d.assignCodes(ctx, p); err != nil {
		return nil, err
	}
	p.PrepareForStorage()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := d.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	d.invalidate(ctx, p)
	d.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID.String()),
		slog.String("sku", p.SKU.String()),
		slog.String("barcode", p.Barcode.String()))
	return p, nil
}

// UpdateProduct replaces the mutable fields of an existing product.
func (d *Dispatcher) UpdateProduct(ctx context.Context, id uuid.UUID, p *domain.Product) error {
	return d.withProductLock(id, func() error {
		existing, err := d.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if p.SKU == "" {
			p.SKU = existing.SKU
		}
		if p.Barcode == "" {
			p.Barcode = existing.Barcode
		}
		if err := d.normalizeCodes(p); err != nil {
			return err
		}
		p.UpdatedAt = time.Now()
		if err := p.Validate(); err != nil {
			return err
		}
		if err := d.repo.Update(ctx, p); err != nil {
			return err
		}
		d.invalidate(ctx, existing)
		d.invalidate(ctx, p)
		return nil
	})
}

// RegenerateCode assigns a fresh barcode to an existing product, freeing
// the old one.
func (d *Dispatcher) RegenerateCode(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var (
		p          *domain.Product
		oldBarcode domain.Code
	)
	err := d.withProductLock(id, func() error {
		existing, err := d.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		codes, err := d.repo.ListCodes(ctx)
		if err != nil {
			return err
		}
		barcode, err := d.codegen.GenerateBarcode(codes)
		if err != nil {
			return err
		}

		oldBarcode = existing.Barcode
		existing.Barcode = barcode
		existing.UpdatedAt = time.Now()
		if err := d.repo.Update(ctx, existing); err != nil {
			return err
		}

		d.logger.InfoContext(ctx, "barcode regenerated",
			slog.String("product_id", id.String()),
			slog.String("old", oldBarcode.String()),
			slog.String("new", barcode.String()))
		p = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Retire the released barcode from the scan cache along with the
	// product's current keys.
	d.invalidate(ctx, p, oldBarcode)
	return p, nil
}

// assignCodes normalizes supplied codes and generates the missing ones.
func (d *Dispatcher) assignCodes(ctx context.Context, p *domain.Product) error {
	if err := d.normalizeCodes(p); err != nil {
		return err
	}
	if p.SKU == "" {
		p.SKU = domain.Code(d.codegen.GenerateSKU(p.Category, p.Name, time.Now()))
	}
	if p.Barcode == "" {
		codes, err := d.repo.ListCodes(ctx)
		if err != nil {
			return err
		}
		barcode, err := d.codegen.GenerateBarcode(codes)
		if err != nil {
			return err
		}
		p.Barcode = barcode
	}
	return nil
}

func (d *Dispatcher) normalizeCodes(p *domain.Product) error {
	if p.SKU != "" {
		sku, err := domain.NormalizeCode(p.SKU.String())
		if err != nil {
			return fmt.Errorf("sku: %w", err)
		}
		p.SKU = sku
	}
	if p.Barcode != "" {
		barcode, err := domain.NormalizeCode(p.Barcode.String())
		if err != nil {
			return fmt.Errorf("barcode: %w", err)
		}
		p.Barcode = barcode
	}
	return nil
}

// withProductLock runs fn while holding the product's mutation lock.
// Lock entries are reference-counted so the map never grows beyond the
// products currently being mutated.
func (d *Dispatcher) withProductLock(id uuid.UUID, fn func() error) error {
	d.mu.Lock()
	l, ok := d.locks[id]
	if !ok {
		l = &productLock{}
		d.locks[id] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	err := fn()
	l.mu.Unlock()

	d.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(d.locks, id)
	}
	d.mu.Unlock()
	return err
}

// invalidate drops cached lookups touched by a mutation. p may be nil
// when only aggregates changed; released codes go in extra.
func (d *Dispatcher) invalidate(ctx context.Context, p *domain.Product, extra ...domain.Code) {
	if d.cache == nil {
		return
	}
	keys := []string{}
	if p != nil {
		keys = append(keys, scanCacheKey(p.SKU), scanCacheKey(p.Barcode))
	}
	for _, code := range extra {
		if code != "" {
			keys = append(keys, scanCacheKey(code))
		}
	}
	if len(keys) > 0 {
		if err := d.cache.Delete(ctx, keys...); err != nil {
			d.logger.WarnContext(ctx, "cache invalidation failed", slog.Any("error", err))
		}
	}
	if err := d.cache.DeletePattern(ctx, "dashboard:*"); err != nil {
		d.logger.WarnContext(ctx, "dashboard cache invalidation failed", slog.Any("error", err))
	}
}
