// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
)

// cleanupPrefixes lists every artifact family subject to age-based
// retention. Delivery notes normally vanish when ingestion succeeds;
// the imports prefix here catches the ones whose jobs never completed.
var cleanupPrefixes = []string{
	storage.PrefixLabels,
	storage.PrefixSheets,
	storage.PrefixExports,
	storage.PrefixImports,
}

// CleanupProcessor prunes stale rendered and uploaded artifacts from the
// store.
type CleanupProcessor struct {
	store  storage.ArtifactStore
	maxAge time.Duration
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor.
func NewCleanupProcessor(store storage.ArtifactStore, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		store:  store,
		maxAge: maxAge,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupArtifacts handles cleanup:artifacts tasks.
func (p *CleanupProcessor) CleanupArtifacts(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-p.maxAge)

	var deleted int
	for _, prefix := range cleanupPrefixes {
		keys, err := p.store.ListOlderThan(ctx, prefix, cutoff)
		if err != nil {
			return fmt.Errorf("failed to list stale artifacts under %s: %w", prefix, err)
		}
		if len(keys) == 0 {
			continue
		}

		if err := p.store.DeleteMultiple(ctx, keys); err != nil {
			return fmt.Errorf("failed to delete stale artifacts under %s: %w", prefix, err)
		}
		deleted += len(keys)
	}

	p.logger.InfoContext(ctx, "artifact cleanup completed",
		slog.Int("deleted", deleted),
		slog.Time("cutoff", cutoff))

	return nil
}
