// internal/workers/label_processor_test.go
package workers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/label"
	"github.com/monabeauty/pos-be/internal/pkg/config"
	"github.com/monabeauty/pos-be/internal/workers"
	"github.com/monabeauty/pos-be/test/helpers"
	"github.com/monabeauty/pos-be/test/mocks"
)

func testLabelsConfig() config.LabelsConfig {
	return config.LabelsConfig{
		BrandName: "MONA BEAUTY",
		WidthPx:   400,
		HeightPx:  180,
	}
}

func labelTask(t *testing.T, payload workers.LabelJobPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(workers.TypeLabelGenerate, raw)
}

func TestLabelProcessor_ProcessLabels(t *testing.T) {
	existing := helpers.CreateTestProduct()
	vanishedID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockProductRepository(ctrl)
	mockRepo.EXPECT().FindByID(gomock.Any(), existing.ID).Return(existing, nil)
	mockRepo.EXPECT().FindByID(gomock.Any(), vanishedID).Return(nil, nil)

	store, err := storage.NewLocalStore(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	generator := label.NewGenerator(testLabelsConfig(), helpers.TestLogger())
	processor := workers.NewLabelProcessor(mockRepo, generator, store, helpers.TestLogger())

	task := labelTask(t, workers.LabelJobPayload{
		JobID:      uuid.New().String(),
		ProductIDs: []uuid.UUID{existing.ID, vanishedID},
	})

	require.NoError(t, processor.ProcessLabels(context.Background(), task))

	// The surviving product got its label; the vanished one was skipped.
	ctx := context.Background()
	data, err := store.Download(ctx, storage.LabelKey(existing.ID.String()))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())

	exists, err := store.Exists(ctx, storage.LabelKey(vanishedID.String()))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLabelProcessor_ProcessLabels_QRFormat(t *testing.T) {
	product := helpers.CreateTestProduct()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockProductRepository(ctrl)
	mockRepo.EXPECT().FindByID(gomock.Any(), product.ID).Return(product, nil)

	store, err := storage.NewLocalStore(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	generator := label.NewGenerator(testLabelsConfig(), helpers.TestLogger())
	processor := workers.NewLabelProcessor(mockRepo, generator, store, helpers.TestLogger())

	task := labelTask(t, workers.LabelJobPayload{
		JobID:      uuid.New().String(),
		ProductIDs: []uuid.UUID{product.ID},
		Format:     workers.LabelFormatQR,
	})

	require.NoError(t, processor.ProcessLabels(context.Background(), task))

	data, err := store.Download(context.Background(), storage.LabelKey(product.ID.String()))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
}

func TestLabelProcessor_ProcessLabels_UnknownFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, err := storage.NewLocalStore(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	processor := workers.NewLabelProcessor(
		mocks.NewMockProductRepository(ctrl),
		label.NewGenerator(testLabelsConfig(), helpers.TestLogger()),
		store, helpers.TestLogger())

	task := labelTask(t, workers.LabelJobPayload{
		JobID:      uuid.New().String(),
		ProductIDs: []uuid.UUID{uuid.New()},
		Format:     "pdf417",
	})

	err = processor.ProcessLabels(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLabelProcessor_ProcessLabels_BadPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, err := storage.NewLocalStore(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	processor := workers.NewLabelProcessor(
		mocks.NewMockProductRepository(ctrl),
		label.NewGenerator(testLabelsConfig(), helpers.TestLogger()),
		store, helpers.TestLogger())

	task := asynq.NewTask(workers.TypeLabelGenerate, []byte("not json"))

	err = processor.ProcessLabels(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLabelProcessor_ProcessLabels_RenderFailureRetries(t *testing.T) {
	// A product without a barcode cannot be rendered; the task must fail
	// retryably so a later regenerate can unblock it.
	product := helpers.CreateTestProduct()
	product.Barcode = ""

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockProductRepository(ctrl)
	mockRepo.EXPECT().FindByID(gomock.Any(), product.ID).Return(product, nil)

	store, err := storage.NewLocalStore(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	processor := workers.NewLabelProcessor(mockRepo,
		label.NewGenerator(testLabelsConfig(), helpers.TestLogger()),
		store, helpers.TestLogger())

	task := labelTask(t, workers.LabelJobPayload{
		JobID:      uuid.New().String(),
		ProductIDs: []uuid.UUID{product.ID},
	})

	err = processor.ProcessLabels(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
