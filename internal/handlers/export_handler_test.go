// internal/handlers/export_handler_test.go
package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
	"github.com/monabeauty/pos-be/internal/handlers"
	"github.com/monabeauty/pos-be/test/helpers"
	"github.com/monabeauty/pos-be/test/mocks"
)

func TestExportHandler_ExportExcel(t *testing.T) {
	products := helpers.CreateTestProducts(3)
	sale := testSale(products[0].ID)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockProductRepository(ctrl)
	mockRepo.EXPECT().
		FindAll(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, params ports.ListParams) (*ports.ListResult, error) {
			assert.Equal(t, "sku", params.SortBy)
			assert.False(t, params.IncludeDeleted)
			return &ports.ListResult{
				Products:   products,
				Page:       1,
				PageSize:   params.PageSize,
				TotalCount: int64(len(products)),
				TotalPages: 1,
			}, nil
		})
	mockRepo.EXPECT().
		ListSales(gomock.Any(), gomock.Any()).
		Return(&ports.SalesResult{
			Sales:      []*domain.Sale{sale},
			Page:       1,
			PageSize:   500,
			TotalCount: 1,
		}, nil)

	handler := handlers.NewExportHandler(mockRepo, helpers.TestLogger())

	req := httptest.NewRequest("GET", "/api/v1/export/xlsx", nil)
	w := httptest.NewRecorder()

	handler.ExportExcel(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "catalog_export_")

	file, err := xlsx.OpenReaderAt(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)

	productSheet, ok := file.Sheet["Products"]
	require.True(t, ok)
	assert.Equal(t, 1+len(products), productSheet.MaxRow)

	salesSheet, ok := file.Sheet["Sales"]
	require.True(t, ok)
	assert.Equal(t, 2, salesSheet.MaxRow)

	row, err := productSheet.Row(1)
	require.NoError(t, err)
	assert.Equal(t, products[0].SKU.String(), row.GetCell(0).Value)
	assert.Equal(t, products[0].Name, row.GetCell(2).Value)
}

func TestExportHandler_ExportExcel_PaginatesCatalog(t *testing.T) {
	products := helpers.CreateTestProducts(4)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockProductRepository(ctrl)

	gomock.InOrder(
		mockRepo.EXPECT().
			FindAll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, params ports.ListParams) (*ports.ListResult, error) {
				assert.Equal(t, 1, params.Page)
				return &ports.ListResult{
					Products: products[:2], Page: 1, PageSize: params.PageSize,
					TotalCount: 4, TotalPages: 2,
				}, nil
			}),
		mockRepo.EXPECT().
			FindAll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, params ports.ListParams) (*ports.ListResult, error) {
				assert.Equal(t, 2, params.Page)
				return &ports.ListResult{
					Products: products[2:], Page: 2, PageSize: params.PageSize,
					TotalCount: 4, TotalPages: 2,
				}, nil
			}),
	)
	mockRepo.EXPECT().
		ListSales(gomock.Any(), gomock.Any()).
		Return(&ports.SalesResult{Page: 1, PageSize: 500}, nil)

	handler := handlers.NewExportHandler(mockRepo, helpers.TestLogger())

	w := httptest.NewRecorder()
	handler.ExportExcel(w, httptest.NewRequest("GET", "/api/v1/export/xlsx", nil))

	require.Equal(t, http.StatusOK, w.Code)

	file, err := xlsx.OpenReaderAt(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	assert.Equal(t, 5, file.Sheet["Products"].MaxRow)
}

func TestExportHandler_ExportExcel_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockProductRepository(ctrl)
	mockRepo.EXPECT().
		FindAll(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	handler := handlers.NewExportHandler(mockRepo, helpers.TestLogger())

	w := httptest.NewRecorder()
	handler.ExportExcel(w, httptest.NewRequest("GET", "/api/v1/export/xlsx", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
