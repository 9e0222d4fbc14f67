//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/monabeauty/pos-be/internal/adapters/db"
	redis_a "github.com/monabeauty/pos-be/internal/adapters/redis_adapter"
	"github.com/monabeauty/pos-be/internal/core/services"
	"github.com/monabeauty/pos-be/internal/handlers"
	"github.com/monabeauty/pos-be/test/helpers"
)

// POSWorkflowSuite exercises the full register flow against a real
// PostgreSQL container and an in-process Redis: create a product, scan
// its barcode, sell it, and read the money back off the dashboard.
type POSWorkflowSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
}

func (s *POSWorkflowSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *POSWorkflowSuite) TearDownSuite() {
	s.server.Close()
}

func (s *POSWorkflowSuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()

	repo := db.NewProductRepository(s.testDB.Database, logger)
	cache := redis_a.NewCache(s.testRedis.Client, time.Minute, logger)
	codegen := services.NewCodeGenerator(nil, logger)
	dispatcher := services.NewDispatcher(repo, codegen, cache, logger)
	productService := services.NewProductService(repo, dispatcher, logger)
	resolver := services.NewResolver(repo, cache, logger)

	scanHandler := handlers.NewScanHandler(resolver, nil, 10, logger)
	productHandler := handlers.NewProductHandler(productService, logger)
	salesHandler := handlers.NewSalesHandler(productService, logger)
	dashboardHandler := handlers.NewDashboardHandler(repo, cache, logger)
	exportHandler := handlers.NewExportHandler(repo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/scan", scanHandler.PostScan)
	mux.HandleFunc("GET /api/v1/products", productHandler.ListProducts)
	mux.HandleFunc("POST /api/v1/products", productHandler.CreateProduct)
	mux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct)
	mux.HandleFunc("PUT /api/v1/products/{id}", productHandler.UpdateProduct)
	mux.HandleFunc("DELETE /api/v1/products/{id}", productHandler.DeleteProduct)
	mux.HandleFunc("POST /api/v1/products/{id}/regenerate-code", productHandler.RegenerateCode)
	mux.HandleFunc("POST /api/v1/products/{id}/stock", productHandler.AdjustStock)
	mux.HandleFunc("GET /api/v1/categories", productHandler.ListCategories)
	mux.HandleFunc("POST /api/v1/sales", salesHandler.CreateSale)
	mux.HandleFunc("GET /api/v1/sales", salesHandler.ListSales)
	mux.HandleFunc("DELETE /api/v1/sales/{id}", salesHandler.DeleteSale)
	mux.HandleFunc("GET /api/v1/dashboard", dashboardHandler.GetDashboard)
	mux.HandleFunc("GET /api/v1/export/xlsx", exportHandler.ExportExcel)

	return httptest.NewServer(mux)
}

func (s *POSWorkflowSuite) TestRegisterWorkflow() {
	// 1. Receive a new product; codes are assigned server-side.
	createReq := map[string]interface{}{
		"name":          "Velvet Lip Tint Coral",
		"category":      "Lips",
		"cost_price":    "38.00",
		"sale_price":    "105.00",
		"current_stock": 12,
	}

	resp := s.makeRequest("POST", "/products", createReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	s.decodeResponse(resp, &created)

	productID := created["id"].(string)
	barcode := created["barcode"].(string)
	s.NotEmpty(productID)
	s.Len(barcode, 12)

	// 2. The register scans the fresh barcode.
	resp = s.makeRequest("POST", "/scan", map[string]interface{}{
		"code":   barcode,
		"method": "keystroke",
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	var scan map[string]interface{}
	s.decodeResponse(resp, &scan)
	s.Equal("found", scan["status"])
	product := scan["product"].(map[string]interface{})
	s.Equal("Velvet Lip Tint Coral", product["name"])

	// 3. Sell two units.
	resp = s.makeRequest("POST", "/sales", map[string]interface{}{
		"product_id": productID,
		"quantity":   2,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var sale map[string]interface{}
	s.decodeResponse(resp, &sale)
	saleID := sale["id"].(string)
	s.NotEmpty(saleID)

	// 4. Stock reflects the sale.
	resp = s.makeRequest("GET", "/products/"+productID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var fetched map[string]interface{}
	s.decodeResponse(resp, &fetched)
	s.Equal(float64(10), fetched["current_stock"])

	// 5. Selling more than remains is refused.
	resp = s.makeRequest("POST", "/sales", map[string]interface{}{
		"product_id": productID,
		"quantity":   100,
	})
	s.Equal(http.StatusConflict, resp.StatusCode)

	// 6. The dashboard counts the sale.
	resp = s.makeRequest("GET", "/dashboard?period=7d", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var dashboard map[string]interface{}
	s.decodeResponse(resp, &dashboard)
	summary := dashboard["summary"].(map[string]interface{})
	s.GreaterOrEqual(summary["total_sales"].(float64), float64(1))

	// 7. Deleting the sale restores stock.
	resp = s.makeRequest("DELETE", "/sales/"+saleID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.makeRequest("GET", "/products/"+productID, nil)
	s.decodeResponse(resp, &fetched)
	s.Equal(float64(12), fetched["current_stock"])
}

func (s *POSWorkflowSuite) TestScanVerdicts() {
	resp := s.makeRequest("POST", "/scan", map[string]interface{}{
		"code":   "000000000000",
		"method": "manual",
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	var verdict map[string]interface{}
	s.decodeResponse(resp, &verdict)
	s.Equal("unknown", verdict["status"])

	resp = s.makeRequest("POST", "/scan", map[string]interface{}{
		"code":   "not a code!",
		"method": "manual",
	})
	s.Equal(http.StatusOK, resp.StatusCode)

	s.decodeResponse(resp, &verdict)
	s.Equal("malformed", verdict["status"])
}

func (s *POSWorkflowSuite) TestRegenerateCodeRetiresOldBarcode() {
	resp := s.makeRequest("POST", "/products", map[string]interface{}{
		"name":          "Brow Gel Clear",
		"category":      "Eyes",
		"cost_price":    "20.00",
		"sale_price":    "60.00",
		"current_stock": 5,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	s.decodeResponse(resp, &created)
	productID := created["id"].(string)
	oldBarcode := created["barcode"].(string)

	resp = s.makeRequest("POST", "/products/"+productID+"/regenerate-code", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var regenerated map[string]interface{}
	s.decodeResponse(resp, &regenerated)
	newBarcode := regenerated["barcode"].(string)
	s.NotEqual(oldBarcode, newBarcode)

	// The old barcode no longer resolves; the new one does.
	var verdict map[string]interface{}
	resp = s.makeRequest("POST", "/scan", map[string]interface{}{"code": oldBarcode, "method": "keystroke"})
	s.decodeResponse(resp, &verdict)
	s.Equal("unknown", verdict["status"])

	resp = s.makeRequest("POST", "/scan", map[string]interface{}{"code": newBarcode, "method": "keystroke"})
	s.decodeResponse(resp, &verdict)
	s.Equal("found", verdict["status"])
}

func (s *POSWorkflowSuite) TestConcurrentSalesNeverOversell() {
	resp := s.makeRequest("POST", "/products", map[string]interface{}{
		"name":          "Limited Edition Palette",
		"category":      "Eyes",
		"cost_price":    "90.00",
		"sale_price":    "250.00",
		"current_stock": 5,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	s.decodeResponse(resp, &created)
	productID := created["id"].(string)

	results := make(chan int, 10)
	for i := 0; i < 10; i++ {
		go func() {
			resp := s.makeRequest("POST", "/sales", map[string]interface{}{
				"product_id": productID,
				"quantity":   1,
			})
			resp.Body.Close()
			results <- resp.StatusCode
		}()
	}

	sold := 0
	for i := 0; i < 10; i++ {
		if <-results == http.StatusCreated {
			sold++
		}
	}
	s.Equal(5, sold, "exactly the available stock may be sold")

	var fetched map[string]interface{}
	resp = s.makeRequest("GET", "/products/"+productID, nil)
	s.decodeResponse(resp, &fetched)
	s.Equal(float64(0), fetched["current_stock"])
}

func (s *POSWorkflowSuite) TestExportContainsCatalog() {
	resp := s.makeRequest("GET", "/export/xlsx", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.NoError(err)
	s.NotEmpty(body)
}

func (s *POSWorkflowSuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.NoError(err)
	return resp
}

func (s *POSWorkflowSuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestPOSWorkflowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(POSWorkflowSuite))
}
