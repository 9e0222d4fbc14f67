// internal/workers/cleanup_processor_test.go
package workers_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/workers"
	"github.com/monabeauty/pos-be/test/helpers"
)

func TestCleanupProcessor_CleanupArtifacts(t *testing.T) {
	basePath := t.TempDir()
	store, err := storage.NewLocalStore(basePath, helpers.TestLogger())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Upload(ctx, "labels/fresh.png", bytes.NewReader([]byte("png")), "image/png")
	require.NoError(t, err)
	_, err = store.Upload(ctx, "sheets/stale.pdf", bytes.NewReader([]byte("pdf")), "application/pdf")
	require.NoError(t, err)
	_, err = store.Upload(ctx, "imports/orphan.pdf", bytes.NewReader([]byte("pdf")), "application/pdf")
	require.NoError(t, err)

	stale := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(basePath, "sheets", "stale.pdf"), stale, stale))
	require.NoError(t, os.Chtimes(filepath.Join(basePath, "imports", "orphan.pdf"), stale, stale))

	processor := workers.NewCleanupProcessor(store, 24*time.Hour, helpers.TestLogger())

	task := asynq.NewTask(workers.TypeArtifactCleanup, nil)
	require.NoError(t, processor.CleanupArtifacts(ctx, task))

	for key, wantKept := range map[string]bool{
		"labels/fresh.png":   true,
		"sheets/stale.pdf":   false,
		"imports/orphan.pdf": false,
	} {
		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, wantKept, exists, key)
	}
}
