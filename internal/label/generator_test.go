package label

import (
	"bytes"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

func testGenerator(cfg config.LabelsConfig) *Generator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGenerator(cfg, logger)
}

func testProduct() *domain.Product {
	return &domain.Product{
		SKU:       "LIP-RUBY-0601",
		Barcode:   "400638133393",
		Name:      "Matte Lipstick Ruby",
		SalePrice: decimal.NewFromInt(120),
	}
}

func TestGenerator_Render(t *testing.T) {
	cfg := config.LabelsConfig{BrandName: "Mona Beauty Store", WidthPx: 400, HeightPx: 180}
	gen := testGenerator(cfg)

	data, err := gen.Render(testProduct())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, cfg.WidthPx, img.Bounds().Dx())
	assert.Equal(t, cfg.HeightPx, img.Bounds().Dy())
}

func TestGenerator_Render_Deterministic(t *testing.T) {
	cfg := config.LabelsConfig{BrandName: "Mona Beauty Store", WidthPx: 400, HeightPx: 180}
	gen := testGenerator(cfg)

	first, err := gen.Render(testProduct())
	require.NoError(t, err)
	second, err := gen.Render(testProduct())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerator_RenderQR(t *testing.T) {
	cfg := config.LabelsConfig{BrandName: "Mona Beauty Store", WidthPx: 400, HeightPx: 300}
	gen := testGenerator(cfg)

	data, err := gen.RenderQR(testProduct())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, cfg.WidthPx, img.Bounds().Dx())
	assert.Equal(t, cfg.HeightPx, img.Bounds().Dy())
}

func TestGenerator_RenderQR_NoBarcode(t *testing.T) {
	gen := testGenerator(config.LabelsConfig{WidthPx: 400, HeightPx: 300})

	product := testProduct()
	product.Barcode = ""

	_, err := gen.RenderQR(product)
	assert.Error(t, err)
}

func TestGenerator_Render_NoBarcode(t *testing.T) {
	gen := testGenerator(config.LabelsConfig{WidthPx: 400, HeightPx: 180})

	product := testProduct()
	product.Barcode = ""

	_, err := gen.Render(product)
	assert.Error(t, err)

	_, err = gen.Render(nil)
	assert.Error(t, err)
}

func TestGenerator_Render_TooSmall(t *testing.T) {
	gen := testGenerator(config.LabelsConfig{BrandName: "Mona", WidthPx: 40, HeightPx: 50})

	_, err := gen.Render(testProduct())
	assert.Error(t, err)
}

func TestGenerator_Render_LongNameTruncated(t *testing.T) {
	cfg := config.LabelsConfig{BrandName: "Mona Beauty Store", WidthPx: 400, HeightPx: 180}
	gen := testGenerator(cfg)

	product := testProduct()
	product.Name = "Ultra Hydrating Overnight Repair Mask With Hyaluronic Acid And Ceramides"

	data, err := gen.Render(product)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
