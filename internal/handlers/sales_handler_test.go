// internal/handlers/sales_handler_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
	"github.com/monabeauty/pos-be/internal/handlers"
	"github.com/monabeauty/pos-be/test/helpers"
	"github.com/monabeauty/pos-be/test/mocks"
)

func testSale(productID uuid.UUID) *domain.Sale {
	return &domain.Sale{
		ID:        uuid.New(),
		ProductID: productID,
		SKU:       domain.Code("LIP-RUBY-0601"),
		Name:      "Matte Lipstick Ruby",
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(120),
		Revenue:   decimal.NewFromInt(240),
		Profit:    decimal.NewFromInt(150),
		SoldAt:    time.Now(),
	}
}

func TestSalesHandler_CreateSale(t *testing.T) {
	productID := uuid.New()
	sale := testSale(productID)

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "records_sale",
			body: `{"product_id":"` + productID.String() + `","quantity":2}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Sell(gomock.Any(), productID, 2, gomock.Nil()).
					Return(sale, nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Sale
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, sale.ID, response.ID)
				assert.True(t, response.Revenue.Equal(decimal.NewFromInt(240)))
			},
		},
		{
			name: "records_sale_at_override_price",
			body: `{"product_id":"` + productID.String() + `","quantity":2,"unit_price":80}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Sell(gomock.Any(), productID, 2, gomock.Any()).
					DoAndReturn(func(_ any, _ uuid.UUID, _ int, unitPrice *decimal.Decimal) (*domain.Sale, error) {
						require.NotNil(t, unitPrice)
						assert.True(t, unitPrice.Equal(decimal.NewFromInt(80)))
						return sale, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "rejects_negative_unit_price",
			body:           `{"product_id":"` + productID.String() + `","quantity":1,"unit_price":-5}`,
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "unit_price cannot be negative", response["error"])
			},
		},
		{
			name: "insufficient_stock",
			body: `{"product_id":"` + productID.String() + `","quantity":99}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Sell(gomock.Any(), productID, 99, gomock.Nil()).
					Return(nil, domain.ErrInsufficientStock)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "unknown_product",
			body: `{"product_id":"` + productID.String() + `","quantity":1}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Sell(gomock.Any(), productID, 1, gomock.Nil()).
					Return(nil, domain.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "rejects_missing_product_id",
			body:           `{"quantity":1}`,
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "product_id is required", response["error"])
			},
		},
		{
			name:           "rejects_non_positive_quantity",
			body:           `{"product_id":"` + productID.String() + `","quantity":0}`,
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			tt.setupMocks(mockService)

			handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/sales", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateSale(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestSalesHandler_ListSales(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		query          string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
	}{
		{
			name:  "filters_by_product_and_date_range",
			query: "?product_id=" + productID.String() + "&from=2026-08-01&to=2026-08-28&page=2&limit=20",
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					ListSales(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, params ports.SalesParams) (*ports.SalesResult, error) {
						assert.Equal(t, productID, params.ProductID)
						assert.Equal(t, 2, params.Page)
						assert.Equal(t, 20, params.PageSize)
						assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), params.From)
						// To covers the whole named day.
						assert.Equal(t, 28, params.To.Day())
						assert.Equal(t, 23, params.To.Hour())
						return &ports.SalesResult{
							Sales:      []*domain.Sale{testSale(productID)},
							Page:       2,
							PageSize:   20,
							TotalCount: 21,
						}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "rejects_invalid_product_id",
			query:          "?product_id=not-a-uuid",
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			tt.setupMocks(mockService)

			handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())

			req := httptest.NewRequest("GET", "/api/v1/sales"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.ListSales(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSalesHandler_DeleteSale(t *testing.T) {
	saleID := uuid.New()

	tests := []struct {
		name           string
		saleID         string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "deletes_sale_and_restores_stock",
			saleID: saleID.String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					DeleteSale(gomock.Any(), saleID).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Sale deleted, stock restored", response["message"])
			},
		},
		{
			name:   "sale_not_found",
			saleID: saleID.String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					DeleteSale(gomock.Any(), saleID).
					Return(domain.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Not found", response["error"])
			},
		},
		{
			name:           "invalid_sale_id",
			saleID:         "not-a-uuid",
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			tt.setupMocks(mockService)

			handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())

			req := httptest.NewRequest("DELETE", "/api/v1/sales/"+tt.saleID, nil)
			req.SetPathValue("id", tt.saleID)
			w := httptest.NewRecorder()

			handler.DeleteSale(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}
