// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/monabeauty/pos-be/internal/core/ports"
)

// exportPageSize is the repository page size used when draining the
// catalog and ledger for a workbook.
const exportPageSize = 500

// ExportHandler produces spreadsheet exports of the catalog and the
// sales ledger.
type ExportHandler struct {
	repo   ports.ProductRepository
	logger *slog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(repo ports.ProductRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		repo:   repo,
		logger: logger.With(slog.String("handler", "export")),
	}
}

// ExportExcel handles GET /api/v1/export/xlsx: a two-sheet workbook with
// the product catalog and the sales ledger.
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	data, err := h.generateWorkbook(ctx, includeDeleted)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate workbook", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	filename := fmt.Sprintf("catalog_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response", slog.Any("error", err))
		return
	}

	h.logger.InfoContext(ctx, "export completed", slog.String("filename", filename))
}

func (h *ExportHandler) generateWorkbook(ctx context.Context, includeDeleted bool) ([]byte, error) {
	file := xlsx.NewFile()

	if err := h.addProductSheet(ctx, file, includeDeleted); err != nil {
		return nil, err
	}
	if err := h.addSalesSheet(ctx, file); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (h *ExportHandler) addProductSheet(ctx context.Context, file *xlsx.File, includeDeleted bool) error {
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to add products sheet: %w", err)
	}

	addHeaderRow(sheet,
		"SKU", "Barcode", "Name", "Category", "Description",
		"Cost Price", "Sale Price", "Current Stock", "Low Stock At",
		"Created At", "Updated At", "Deleted At")

	params := ports.ListParams{
		IncludeDeleted: includeDeleted,
		SortBy:         "sku",
		SortOrder:      "asc",
		Page:           1,
		PageSize:       exportPageSize,
	}

	for {
		result, err := h.repo.FindAll(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to load products page %d: %w", params.Page, err)
		}

		for _, p := range result.Products {
			row := sheet.AddRow()
			row.AddCell().Value = p.SKU.String()
			row.AddCell().Value = p.Barcode.String()
			row.AddCell().Value = p.Name
			row.AddCell().Value = p.Category
			row.AddCell().Value = p.Description
			row.AddCell().Value = p.CostPrice.StringFixed(2)
			row.AddCell().Value = p.SalePrice.StringFixed(2)
			row.AddCell().Value = strconv.Itoa(p.CurrentStock)
			row.AddCell().Value = strconv.Itoa(p.LowStockAt)
			row.AddCell().Value = p.CreatedAt.Format("2006-01-02 15:04:05")
			row.AddCell().Value = p.UpdatedAt.Format("2006-01-02 15:04:05")
			row.AddCell().Value = formatOptionalTime(p.DeletedAt)
		}

		if params.Page >= result.TotalPages {
			break
		}
		params.Page++
	}

	for i := 0; i < 12; i++ {
		sheet.SetColWidth(i, i, 18)
	}
	return nil
}

func (h *ExportHandler) addSalesSheet(ctx context.Context, file *xlsx.File) error {
	sheet, err := file.AddSheet("Sales")
	if err != nil {
		return fmt.Errorf("failed to add sales sheet: %w", err)
	}

	addHeaderRow(sheet,
		"Sold At", "SKU", "Product", "Quantity",
		"Unit Price", "Revenue", "Profit")

	params := ports.SalesParams{Page: 1, PageSize: exportPageSize}

	for {
		result, err := h.repo.ListSales(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to load sales page %d: %w", params.Page, err)
		}

		for _, s := range result.Sales {
			row := sheet.AddRow()
			row.AddCell().Value = s.SoldAt.Format("2006-01-02 15:04:05")
			row.AddCell().Value = s.SKU.String()
			row.AddCell().Value = s.Name
			row.AddCell().Value = strconv.Itoa(s.Quantity)
			row.AddCell().Value = s.UnitPrice.StringFixed(2)
			row.AddCell().Value = s.Revenue.StringFixed(2)
			row.AddCell().Value = s.Profit.StringFixed(2)
		}

		if int64(params.Page)*int64(params.PageSize) >= result.TotalCount {
			break
		}
		params.Page++
	}

	for i := 0; i < 7; i++ {
		sheet.SetColWidth(i, i, 18)
	}
	return nil
}

func addHeaderRow(sheet *xlsx.Sheet, headers ...string) {
	row := sheet.AddRow()
	for _, header := range headers {
		cell := row.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
