// internal/core/services/resolver_test.go
package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/monabeauty/pos-be/internal/adapters/redis_adapter"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/services"
	"github.com/monabeauty/pos-be/test/helpers"
	"github.com/monabeauty/pos-be/test/mocks"
)

func TestResolver_Resolve(t *testing.T) {
	product := helpers.CreateTestProduct()

	tests := []struct {
		name       string
		raw        string
		method     domain.DecodeMethod
		setupMocks func(repo *mocks.MockProductRepository)
		wantStatus domain.ScanStatus
		wantCode   domain.Code
	}{
		{
			name:   "barcode_hit",
			raw:    string(product.Barcode),
			method: domain.MethodKeystroke,
			setupMocks: func(repo *mocks.MockProductRepository) {
				repo.EXPECT().FindByBarcode(gomock.Any(), product.Barcode).Return(product, nil)
			},
			wantStatus: domain.ScanFound,
			wantCode:   product.Barcode,
		},
		{
			name:   "sku_fallback",
			raw:    "lip-matte0001-0601",
			method: domain.MethodManual,
			setupMocks: func(repo *mocks.MockProductRepository) {
				repo.EXPECT().FindByBarcode(gomock.Any(), domain.Code("LIP-MATTE0001-0601")).Return(nil, nil)
				repo.EXPECT().FindBySKU(gomock.Any(), domain.Code("LIP-MATTE0001-0601")).Return(product, nil)
			},
			wantStatus: domain.ScanFound,
			wantCode:   "LIP-MATTE0001-0601",
		},
		{
			name:   "unknown_code",
			raw:    "000000000000",
			method: domain.MethodStructured,
			setupMocks: func(repo *mocks.MockProductRepository) {
				repo.EXPECT().FindByBarcode(gomock.Any(), domain.Code("000000000000")).Return(nil, nil)
				repo.EXPECT().FindBySKU(gomock.Any(), domain.Code("000000000000")).Return(nil, nil)
			},
			wantStatus: domain.ScanUnknown,
			wantCode:   "000000000000",
		},
		{
			name:       "malformed_input_is_a_verdict",
			raw:        "bad code!",
			method:     domain.MethodKeystroke,
			setupMocks: func(repo *mocks.MockProductRepository) {},
			wantStatus: domain.ScanMalformed,
		},
		{
			name:       "empty_input_is_malformed",
			raw:        "   ",
			method:     domain.MethodManual,
			setupMocks: func(repo *mocks.MockProductRepository) {},
			wantStatus: domain.ScanMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockProductRepository(ctrl)
			tt.setupMocks(repo)

			resolver := services.NewResolver(repo, nil, helpers.TestLogger())

			result, err := resolver.Resolve(context.Background(), tt.raw, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.method, result.Method)
			assert.False(t, result.ResolvedAt.IsZero())
		})
	}
}

func TestResolver_Resolve_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockProductRepository(ctrl)
	repo.EXPECT().FindByBarcode(gomock.Any(), gomock.Any()).Return(nil, assert.AnError)

	resolver := services.NewResolver(repo, nil, helpers.TestLogger())

	_, err := resolver.Resolve(context.Background(), "123456789012", domain.MethodKeystroke)
	assert.Error(t, err)
}

func TestResolver_Resolve_CachesHits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	product := helpers.CreateTestProduct()

	repo := mocks.NewMockProductRepository(ctrl)
	repo.EXPECT().FindByBarcode(gomock.Any(), product.Barcode).Return(product, nil).Times(1)

	testRedis := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(testRedis.Client, time.Minute, helpers.TestLogger())

	resolver := services.NewResolver(repo, cache, helpers.TestLogger())

	for i := 0; i < 3; i++ {
		result, err := resolver.Resolve(context.Background(), string(product.Barcode), domain.MethodKeystroke)
		require.NoError(t, err)
		require.Equal(t, domain.ScanFound, result.Status)
		require.Equal(t, product.ID, result.Product.ID)
	}
}

func TestResolver_Resolve_NeverCachesMisses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockProductRepository(ctrl)
	repo.EXPECT().FindByBarcode(gomock.Any(), domain.Code("999999999999")).Return(nil, nil).Times(2)
	repo.EXPECT().FindBySKU(gomock.Any(), domain.Code("999999999999")).Return(nil, nil).Times(2)

	testRedis := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(testRedis.Client, time.Minute, helpers.TestLogger())

	resolver := services.NewResolver(repo, cache, helpers.TestLogger())

	for i := 0; i < 2; i++ {
		result, err := resolver.Resolve(context.Background(), "999999999999", domain.MethodStructured)
		require.NoError(t, err)
		require.Equal(t, domain.ScanUnknown, result.Status)
	}
}
