// internal/workers/label_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/core/ports"
	"github.com/monabeauty/pos-be/internal/label"
)

// LabelProcessor renders product labels in the background and parks the
// PNGs in the artifact store, one object per product.
type LabelProcessor struct {
	repo      ports.ProductRepository
	generator *label.Generator
	store     storage.ArtifactStore
	logger    *slog.Logger
}

// NewLabelProcessor creates a new label processor.
func NewLabelProcessor(repo ports.ProductRepository, generator *label.Generator, store storage.ArtifactStore, logger *slog.Logger) *LabelProcessor {
	return &LabelProcessor{
		repo:      repo,
		generator: generator,
		store:     store,
		logger:    logger.With(slog.String("processor", "label")),
	}
}

// ProcessLabels handles labels:generate tasks. Products deleted between
// enqueue and processing are skipped, not failed: the job renders what
// still exists.
func (p *LabelProcessor) ProcessLabels(ctx context.Context, t *asynq.Task) error {
	var payload LabelJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	render := p.generator.Render
	switch payload.Format {
	case "", LabelFormatCode128:
	case LabelFormatQR:
		render = p.generator.RenderQR
	default:
		return fmt.Errorf("unknown label format %q: %w", payload.Format, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "rendering labels",
		slog.String("job_id", payload.JobID),
		slog.Int("products", len(payload.ProductIDs)))

	var rendered, skipped int
	for _, id := range payload.ProductIDs {
		product, err := p.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load product %s: %w", id, err)
		}
		if product == nil {
			p.logger.WarnContext(ctx, "product vanished before label render",
				slog.String("job_id", payload.JobID),
				slog.String("product_id", id.String()))
			skipped++
			continue
		}

		png, err := render(product)
		if err != nil {
			return fmt.Errorf("failed to render label for %s: %w", product.SKU, err)
		}

		key := storage.LabelKey(product.ID.String())
		if _, err := p.store.Upload(ctx, key, bytes.NewReader(png), "image/png"); err != nil {
			return fmt.Errorf("failed to store label %s: %w", key, err)
		}
		rendered++
	}

	p.logger.InfoContext(ctx, "label job completed",
		slog.String("job_id", payload.JobID),
		slog.Int("rendered", rendered),
		slog.Int("skipped", skipped))

	return nil
}
