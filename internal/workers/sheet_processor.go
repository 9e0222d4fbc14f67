// internal/workers/sheet_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
	"github.com/monabeauty/pos-be/internal/label"
)

// sheetPageSize is the repository page size used when a sheet job spans
// the whole catalog.
const sheetPageSize = 500

// SheetProcessor renders printable code sheets. A sheet covers either an
// explicit product selection, one category, or the whole catalog.
type SheetProcessor struct {
	repo     ports.ProductRepository
	renderer *label.SheetRenderer
	store    storage.ArtifactStore
	logger   *slog.Logger
}

// NewSheetProcessor creates a new sheet processor.
func NewSheetProcessor(repo ports.ProductRepository, renderer *label.SheetRenderer, store storage.ArtifactStore, logger *slog.Logger) *SheetProcessor {
	return &SheetProcessor{
		repo:     repo,
		renderer: renderer,
		store:    store,
		logger:   logger.With(slog.String("processor", "sheet")),
	}
}

// ProcessSheet handles labels:sheet tasks. The resulting PDF lands at
// the key the API already promised the client.
func (p *SheetProcessor) ProcessSheet(ctx context.Context, t *asynq.Task) error {
	var payload SheetJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	products, err := p.selectProducts(ctx, payload)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		p.logger.WarnContext(ctx, "sheet job selected no products",
			slog.String("job_id", payload.JobID),
			slog.String("category", payload.Category))
		return fmt.Errorf("no products to render: %w", asynq.SkipRetry)
	}

	pdfBytes, err := p.renderer.RenderPDF(ctx, products)
	if err != nil {
		return fmt.Errorf("failed to render sheet: %w", err)
	}

	key := storage.SheetKey(payload.JobID)
	if _, err := p.store.Upload(ctx, key, bytes.NewReader(pdfBytes), "application/pdf"); err != nil {
		return fmt.Errorf("failed to store sheet %s: %w", key, err)
	}

	p.logger.InfoContext(ctx, "sheet job completed",
		slog.String("job_id", payload.JobID),
		slog.String("key", key),
		slog.Int("products", len(products)))

	return nil
}

func (p *SheetProcessor) selectProducts(ctx context.Context, payload SheetJobPayload) ([]*domain.Product, error) {
	if len(payload.ProductIDs) > 0 {
		products := make([]*domain.Product, 0, len(payload.ProductIDs))
		for _, id := range payload.ProductIDs {
			product, err := p.repo.FindByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load product %s: %w", id, err)
			}
			if product == nil {
				continue
			}
			products = append(products, product)
		}
		return products, nil
	}

	params := ports.ListParams{
		Category:  payload.Category,
		SortBy:    "sku",
		SortOrder: "asc",
		Page:      1,
		PageSize:  sheetPageSize,
	}

	var products []*domain.Product
	for {
		result, err := p.repo.FindAll(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog page %d: %w", params.Page, err)
		}
		products = append(products, result.Products...)

		if params.Page >= result.TotalPages {
			break
		}
		params.Page++
	}
	return products, nil
}
