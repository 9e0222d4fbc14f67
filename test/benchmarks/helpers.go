// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

func benchLabelsConfig() config.LabelsConfig {
	return config.LabelsConfig{
		BrandName: "MONA BEAUTY",
		WidthPx:   400,
		HeightPx:  180,
	}
}

// benchProduct builds a product with a stable numeric barcode so label
// rendering and decoding stay comparable across runs.
func benchProduct(i int) *domain.Product {
	return &domain.Product{
		ID:           uuid.New(),
		SKU:          domain.Code(fmt.Sprintf("LIP-BENCH%04d-0601", i%10000)),
		Barcode:      domain.Code(fmt.Sprintf("%012d", 590000000000+int64(i))),
		Name:         fmt.Sprintf("Benchmark Lipstick %d", i),
		Category:     "Lips",
		CostPrice:    decimal.NewFromFloat(45.00),
		SalePrice:    decimal.NewFromFloat(120.00),
		CurrentStock: 10,
		LowStockAt:   5,
	}
}
