// internal/label/sheet.go
package label

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

// sheetTemplate lays the labels out in a print-friendly grid. Gotenberg
// renders it with Chromium, so plain CSS is enough.
const sheetTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  @page { size: A4; margin: 10mm; }
  body { font-family: sans-serif; margin: 0; }
  h1 { font-size: 14px; margin: 0 0 8px 0; }
  .grid { display: flex; flex-wrap: wrap; gap: 6mm; }
  .cell { border: 1px solid #ccc; padding: 2mm; page-break-inside: avoid; }
  .cell img { display: block; }
</style>
</head>
<body>
<h1>{{.BrandName}} code sheet, {{.GeneratedAt.Format "2006-01-02 15:04"}}</h1>
<div class="grid">
{{range .Labels}}
  <div class="cell"><img src="data:image/png;base64,{{.}}" alt=""></div>
{{end}}
</div>
</body>
</html>`

// SheetRenderer composes single labels into a printable PDF sheet via a
// Gotenberg-compatible HTML-to-PDF service.
type SheetRenderer struct {
	generator *Generator
	brand     string
	client    *http.Client
	baseURL   string
	tmpl      *template.Template
	logger    *slog.Logger
}

// NewSheetRenderer creates a sheet renderer talking to the configured
// rendering service.
func NewSheetRenderer(generator *Generator, labels config.LabelsConfig, render config.RenderConfig, logger *slog.Logger) *SheetRenderer {
	return &SheetRenderer{
		generator: generator,
		brand:     labels.BrandName,
		client:    &http.Client{Timeout: render.Timeout},
		baseURL:   render.GotenbergURL,
		tmpl:      template.Must(template.New("sheet").Parse(sheetTemplate)),
		logger:    logger.With(slog.String("service", "sheet_renderer")),
	}
}

// RenderHTML renders every product's label and embeds them in the sheet
// markup. Exposed separately so tests can check the layout without a
// rendering service.
func (r *SheetRenderer) RenderHTML(products []*domain.Product) ([]byte, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("no products to lay out")
	}

	labels := make([]string, 0, len(products))
	for _, product := range products {
		data, err := r.generator.Render(product)
		if err != nil {
			return nil, fmt.Errorf("failed to render label for %s: %w", product.SKU, err)
		}
		labels = append(labels, base64.StdEncoding.EncodeToString(data))
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		BrandName   string
		GeneratedAt time.Time
		Labels      []string
	}{
		BrandName:   r.brand,
		GeneratedAt: time.Now(),
		Labels:      labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute sheet template: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderPDF renders the sheet and converts it to PDF.
func (r *SheetRenderer) RenderPDF(ctx context.Context, products []*domain.Product) ([]byte, error) {
	html, err := r.RenderHTML(products)
	if err != nil {
		return nil, err
	}

	pdf, err := r.convert(ctx, html)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "code sheet rendered",
		slog.Int("products", len(products)),
		slog.Int("pdf_bytes", len(pdf)))

	return pdf, nil
}

// convert posts the markup to Gotenberg's Chromium route.
func (r *SheetRenderer) convert(ctx context.Context, html []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// Gotenberg requires the entry file to be named index.html.
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to build conversion request: %w", err)
	}
	if _, err := part.Write(html); err != nil {
		return nil, fmt.Errorf("failed to build conversion request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build conversion request: %w", err)
	}

	url := r.baseURL + "/forms/chromium/convert/html"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rendering service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rendering service returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered PDF: %w", err)
	}

	return pdf, nil
}
