// internal/core/services/resolver.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

// scanCacheTTL bounds how stale a cached code lookup may go. Dispatch
// mutations invalidate eagerly; the TTL is the backstop.
const scanCacheTTL = 30 * time.Second

func scanCacheKey(code domain.Code) string {
	return "scan:code:" + code.String()
}

// Resolver turns raw acquisition input into a scan verdict. Resolution is
// total: malformed input and unknown codes are verdicts, not errors; only
// infrastructure failures (store, cache transport) surface as errors.
type Resolver struct {
	repo   ports.ProductRepository
	cache  ports.CacheRepository // optional
	logger *slog.Logger
}

var _ ports.ScanService = (*Resolver)(nil)

// NewResolver creates a resolver. cache may be nil.
func NewResolver(repo ports.ProductRepository, cache ports.CacheRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("service", "scan_resolver")),
	}
}

// Resolve classifies one reading.
func (r *Resolver) Resolve(ctx context.Context, raw string, method domain.DecodeMethod) (*domain.ScanResult, error) {
	now := time.Now()

	code, err := domain.NormalizeCode(raw)
	if err != nil {
		r.logger.DebugContext(ctx, "malformed scan input",
			slog.String("method", string(method)),
			slog.Any("error", err))
		return &domain.ScanResult{
			Status:     domain.ScanMalformed,
			Method:     method,
			Detail:     err.Error(),
			ResolvedAt: now,
		}, nil
	}

	product, err := r.lookupCached(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", code, err)
	}

	if product == nil {
		return &domain.ScanResult{
			Status:     domain.ScanUnknown,
			Code:       code,
			Method:     method,
			ResolvedAt: now,
		}, nil
	}

	r.logger.InfoContext(ctx, "scan resolved",
		slog.String("code", code.String()),
		slog.String("method", string(method)),
		slog.String("product_id", product.ID.String()))

	return &domain.ScanResult{
		Status:     domain.ScanFound,
		Code:       code,
		Product:    product,
		Method:     method,
		ResolvedAt: now,
	}, nil
}

func (r *Resolver) lookupCached(ctx context.Context, code domain.Code) (*domain.Product, error) {
	if r.cache == nil {
		return r.lookup(ctx, code)
	}

	var p domain.Product
	err := r.cache.GetOrSet(ctx, scanCacheKey(code), &p, func() (interface{}, error) {
		found, err := r.lookup(ctx, code)
		if err != nil {
			return nil, err
		}
		if found == nil {
			// Misses are never cached: a product created seconds later
			// must resolve immediately.
			return nil, domain.ErrNotFound
		}
		return found, nil
	}, scanCacheTTL)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// lookup tries the barcode first, then the SKU. The repository's SKU
// lookup already falls back to a case-insensitive match.
func (r *Resolver) lookup(ctx context.Context, code domain.Code) (*domain.Product, error) {
	p, err := r.repo.FindByBarcode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	return r.repo.FindBySKU(ctx, code)
}
