// Package label renders printable barcode artifacts: single product
// labels as PNGs and multi-product code sheets as PDFs.
package label

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

const (
	brandBandHeight = 28
	captionHeight   = 34
	sidePadding     = 12
)

var (
	bandColor = color.RGBA{R: 0x2d, G: 0x1b, B: 0x3d, A: 0xff} // deep plum
	inkColor  = color.RGBA{A: 0xff}
)

// Generator renders a product into a printable label image with the
// store's brand band on top, a Code-128 symbol in the middle and a
// human-readable caption underneath.
type Generator struct {
	cfg    config.LabelsConfig
	logger *slog.Logger
}

// NewGenerator creates a label generator.
func NewGenerator(cfg config.LabelsConfig, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: logger.With(slog.String("service", "label_generator")),
	}
}

// Render produces the PNG bytes of a Code-128 label for the product's
// barcode.
func (g *Generator) Render(product *domain.Product) ([]byte, error) {
	if product == nil || product.Barcode == "" {
		return nil, fmt.Errorf("product has no barcode to render")
	}

	width, height := g.cfg.WidthPx, g.cfg.HeightPx
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid label dimensions %dx%d", width, height)
	}

	symbol, err := code128.Encode(string(product.Barcode))
	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode %s: %w", product.Barcode, err)
	}

	symbolWidth := width - 2*sidePadding
	symbolHeight := height - brandBandHeight - captionHeight
	if symbolWidth < symbol.Bounds().Dx() || symbolHeight < 20 {
		return nil, fmt.Errorf("label %dx%d too small for barcode", width, height)
	}

	scaled, err := barcode.Scale(symbol, symbolWidth, symbolHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	symbolRect := image.Rect(sidePadding, brandBandHeight, sidePadding+symbolWidth, brandBandHeight+symbolHeight)
	return g.compose(product, scaled, symbolRect)
}

// RenderQR produces the PNG bytes of a QR label for the product's
// barcode, for shelves scanned by phone cameras rather than wedge
// scanners. Same band and caption layout with a square symbol.
func (g *Generator) RenderQR(product *domain.Product) ([]byte, error) {
	if product == nil || product.Barcode == "" {
		return nil, fmt.Errorf("product has no barcode to render")
	}

	width, height := g.cfg.WidthPx, g.cfg.HeightPx
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid label dimensions %dx%d", width, height)
	}

	symbol, err := qr.Encode(string(product.Barcode), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR %s: %w", product.Barcode, err)
	}

	side := min(width-2*sidePadding, height-brandBandHeight-captionHeight)
	if side < symbol.Bounds().Dx() {
		return nil, fmt.Errorf("label %dx%d too small for QR", width, height)
	}

	scaled, err := barcode.Scale(symbol, side, side)
	if err != nil {
		return nil, fmt.Errorf("failed to scale QR: %w", err)
	}

	left := (width - side) / 2
	symbolRect := image.Rect(left, brandBandHeight, left+side, brandBandHeight+side)
	return g.compose(product, scaled, symbolRect)
}

// compose draws the brand band, the scaled symbol and the caption onto a
// fresh canvas and encodes it.
func (g *Generator) compose(product *domain.Product, scaled image.Image, symbolRect image.Rectangle) ([]byte, error) {
	width, height := g.cfg.WidthPx, g.cfg.HeightPx

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	// Brand band.
	band := image.Rect(0, 0, width, brandBandHeight)
	draw.Draw(canvas, band, image.NewUniform(bandColor), image.Point{}, draw.Src)
	drawCenteredText(canvas, g.cfg.BrandName, width/2, brandBandHeight/2+basicfont.Face7x13.Ascent/2-2, color.White)

	// Symbol.
	draw.Draw(canvas, symbolRect, scaled, image.Point{}, draw.Src)

	// Caption: the code digits on one line, name and price on the next.
	captionTop := symbolRect.Max.Y
	drawCenteredText(canvas, string(product.Barcode), width/2, captionTop+13, inkColor)
	caption := fmt.Sprintf("%s  $%s", truncate(product.Name, 32), product.SalePrice.StringFixed(2))
	drawCenteredText(canvas, caption, width/2, captionTop+28, inkColor)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode label PNG: %w", err)
	}

	g.logger.Debug("label rendered",
		slog.String("barcode", string(product.Barcode)),
		slog.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func drawCenteredText(dst draw.Image, text string, cx, baseline int, col color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(cx - width/2),
			Y: fixed.I(baseline),
		},
	}
	d.DrawString(text)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
