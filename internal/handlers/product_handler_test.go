// internal/handlers/product_handler_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
	"github.com/monabeauty/pos-be/internal/handlers"
	"github.com/monabeauty/pos-be/test/helpers"
	"github.com/monabeauty/pos-be/test/mocks"
)

func TestProductHandler_GetProduct(t *testing.T) {
	testProduct := helpers.CreateTestProduct()

	tests := []struct {
		name           string
		productID      string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:      "successfully_retrieves_product",
			productID: testProduct.ID.String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					GetByID(gomock.Any(), testProduct.ID).
					Return(testProduct, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Product
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, testProduct.ID, response.ID)
				assert.Equal(t, testProduct.Name, response.Name)
			},
		},
		{
			name:           "invalid_uuid_format",
			productID:      "not-a-uuid",
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Invalid product ID format", response["error"])
			},
		},
		{
			name:      "product_not_found",
			productID: uuid.New().String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					GetByID(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:      "service_error",
			productID: testProduct.ID.String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					GetByID(gomock.Any(), testProduct.ID).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Failed to retrieve product", response["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			tt.setupMocks(mockService)

			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())

			req := httptest.NewRequest("GET", "/api/v1/products/"+tt.productID, nil)
			req.SetPathValue("id", tt.productID)
			w := httptest.NewRecorder()

			handler.GetProduct(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestProductHandler_CreateProduct(t *testing.T) {
	testProduct := helpers.CreateTestProduct()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "successfully_creates_product",
			body: `{"name":"Matte Lipstick Ruby","category":"Lips","cost_price":"45","sale_price":"120","current_stock":10}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, p *domain.Product) (*domain.Product, error) {
						assert.Equal(t, "Matte Lipstick Ruby", p.Name)
						assert.Empty(t, p.SKU)
						return testProduct, nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Product
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, testProduct.ID, response.ID)
				assert.NotEmpty(t, response.SKU)
			},
		},
		{
			name:           "rejects_missing_name",
			body:           `{"sale_price":"120"}`,
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "name is required", response["error"])
			},
		},
		{
			name:           "rejects_negative_price",
			body:           `{"name":"Serum","sale_price":"-5"}`,
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate_code_conflict",
			body: `{"name":"Serum","sku":"SER-DUP-0601","sale_price":"120"}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrDuplicateCode)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid_json_body",
			body:           `{"name":`,
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

			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/products", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateProduct(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestProductHandler_ListProducts(t *testing.T) {
	products := helpers.CreateTestProducts(3)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockProductService(ctrl)
	mockService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, params ports.ListParams) (*ports.ListResult, error) {
			assert.Equal(t, 2, params.Page)
			assert.Equal(t, 10, params.PageSize)
			assert.Equal(t, "Lips", params.Category)
			assert.True(t, params.LowStockOnly)
			assert.Equal(t, "name", params.SortBy)
			assert.Equal(t, "asc", params.SortOrder)
			return &ports.ListResult{
				Products:   products,
				TotalCount: 23,
				Page:       2,
				PageSize:   10,
				TotalPages: 3,
			}, nil
		})

	handler := handlers.NewProductHandler(mockService, helpers.TestLogger())

	req := httptest.NewRequest("GET", "/api/v1/products?page=2&limit=10&category=Lips&low_stock=true&sort=name&order=asc", nil)
	w := httptest.NewRecorder()

	handler.ListProducts(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result ports.ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.Products, 3)
	assert.Equal(t, int64(23), result.TotalCount)
}

func TestProductHandler_AdjustStock(t *testing.T) {
	testProduct := helpers.CreateTestProduct()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
	}{
		{
			name: "stock_in",
			body: `{"direction":"in","quantity":5}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					StockIn(gomock.Any(), testProduct.ID, 5).
					Return(testProduct, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "stock_out",
			body: `{"direction":"out","quantity":3}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					StockOut(gomock.Any(), testProduct.ID, 3).
					Return(testProduct, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "insufficient_stock",
			body: `{"direction":"out","quantity":99}`,
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					StockOut(gomock.Any(), testProduct.ID, 99).
					Return(nil, domain.ErrInsufficientStock)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "rejects_zero_quantity",
			body:           `{"direction":"in","quantity":0}`,
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rejects_unknown_direction",
			body:           `{"direction":"sideways","quantity":5}`,
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

			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/products/"+testProduct.ID.String()+"/stock", bytes.NewBufferString(tt.body))
			req.SetPathValue("id", testProduct.ID.String())
			w := httptest.NewRecorder()

			handler.AdjustStock(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestProductHandler_RegenerateCode(t *testing.T) {
	testProduct := helpers.CreateTestProduct()

	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
	}{
		{
			name: "regenerates_barcode",
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					RegenerateCode(gomock.Any(), testProduct.ID).
					Return(testProduct, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "generation_exhausted",
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					RegenerateCode(gomock.Any(), testProduct.ID).
					Return(nil, domain.ErrGenerationExhausted)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			tt.setupMocks(mockService)

			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/products/"+testProduct.ID.String()+"/regenerate-code", nil)
			req.SetPathValue("id", testProduct.ID.String())
			w := httptest.NewRecorder()

			handler.RegenerateCode(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	id := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockProductService(ctrl)
	mockService.EXPECT().
		Delete(gomock.Any(), id, true).
		Return(nil)

	handler := handlers.NewProductHandler(mockService, helpers.TestLogger())

	req := httptest.NewRequest("DELETE", "/api/v1/products/"+id.String()+"?permanent=true", nil)
	req.SetPathValue("id", id.String())
	w := httptest.NewRecorder()

	handler.DeleteProduct(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["permanent"])
}

func TestProductHandler_ListCategories(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockProductService(ctrl)
	mockService.EXPECT().
		Categories(gomock.Any()).
		Return([]string{"Eyes", "Lips", "Skincare"}, nil)

	handler := handlers.NewProductHandler(mockService, helpers.TestLogger())

	req := httptest.NewRequest("GET", "/api/v1/categories", nil)
	w := httptest.NewRecorder()

	handler.ListCategories(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"Eyes", "Lips", "Skincare"}, response["categories"])
}
