// internal/workers/import_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

// ImportResult summarizes one delivery note ingestion.
type ImportResult struct {
	LinesParsed     int      `json:"lines_parsed"`
	ProductsCreated int      `json:"products_created"`
	StockedIn       int      `json:"stocked_in"`
	Errors          []string `json:"errors,omitempty"`
}

// ImportProcessor ingests supplier delivery notes. Lines whose SKU is
// already in the catalog book stock in; unknown lines become new
// products priced at cost until staff reprice them.
type ImportProcessor struct {
	repo    ports.ProductRepository
	service ports.ProductService
	store   storage.ArtifactStore
	logger  *slog.Logger
}

// NewImportProcessor creates a new delivery note processor.
func NewImportProcessor(repo ports.ProductRepository, service ports.ProductService, store storage.ArtifactStore, logger *slog.Logger) *ImportProcessor {
	return &ImportProcessor{
		repo:    repo,
		service: service,
		store:   store,
		logger:  logger.With(slog.String("processor", "import")),
	}
}

// ProcessDeliveryNote handles import:delivery_note tasks. The uploaded
// PDF is removed from the artifact store once ingestion succeeds; on
// retryable failure it stays put for the next attempt.
func (p *ImportProcessor) ProcessDeliveryNote(ctx context.Context, t *asynq.Task) error {
	var payload ImportJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "processing delivery note",
		slog.String("job_id", payload.JobID),
		slog.String("supplier", payload.Supplier))

	data, err := p.store.Download(ctx, payload.ArtifactKey)
	if err != nil {
		return fmt.Errorf("failed to download delivery note %s: %w", payload.ArtifactKey, err)
	}

	lines, err := p.extractLines(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to read delivery note: %v: %w", err, asynq.SkipRetry)
	}

	entries := parseDeliveryLines(lines)
	if len(entries) == 0 {
		p.logger.WarnContext(ctx, "delivery note contained no parseable lines",
			slog.String("job_id", payload.JobID))
		return fmt.Errorf("no delivery lines found: %w", asynq.SkipRetry)
	}

	result, err := p.ingestAll(ctx, payload.JobID, entries)
	if err != nil {
		return err
	}

	if err := p.store.Delete(ctx, payload.ArtifactKey); err != nil {
		p.logger.WarnContext(ctx, "failed to remove ingested delivery note",
			slog.String("key", payload.ArtifactKey),
			slog.Any("error", err))
	}

	p.logger.InfoContext(ctx, "delivery note ingested",
		slog.String("job_id", payload.JobID),
		slog.Int("lines", result.LinesParsed),
		slog.Int("created", result.ProductsCreated),
		slog.Int("stocked_in", result.StockedIn))

	return nil
}

// ingestAll applies every parsed line. Line failures are collected, not
// aborted on, so one bad row never blocks the rest of the shipment. They
// still fail the task with SkipRetry: the good lines already stocked in,
// so a retry would apply them twice, and the bad rows are data errors
// that never heal.
func (p *ImportProcessor) ingestAll(ctx context.Context, jobID string, entries []deliveryLine) (ImportResult, error) {
	result := ImportResult{LinesParsed: len(entries)}
	for _, entry := range entries {
		stockedIn, err := p.ingestLine(ctx, entry)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if stockedIn {
			result.StockedIn++
		} else {
			result.ProductsCreated++
		}
	}

	if len(result.Errors) > 0 {
		return result, fmt.Errorf("delivery note %s: %d of %d lines failed: %s: %w",
			jobID, len(result.Errors), result.LinesParsed,
			strings.Join(result.Errors, "; "), asynq.SkipRetry)
	}
	return result, nil
}

func (p *ImportProcessor) extractLines(ctx context.Context, data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var lines []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to extract text from page",
				slog.Int("page", pageNum),
				slog.Any("error", err))
			continue
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return lines, nil
}

type deliveryLine struct {
	sku      string
	name     string
	quantity int
	unitCost decimal.Decimal
}

var (
	deliveryHeaderRe = regexp.MustCompile(`(?i)(SKU|ARTICLE|ITEM).*(QTY|QUANTITY).*(COST|PRICE)`)
	deliveryFooterRe = regexp.MustCompile(`(?i)(SUBTOTAL|TOTAL|SIGNATURE|RECEIVED BY)`)
	deliveryLineRe   = regexp.MustCompile(`^(?:([A-Z0-9][A-Z0-9-]{2,})\s+)?(.+?)\s+(\d+)\s+\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\s*$`)
)

// parseDeliveryLines extracts product rows from the note body. Rows
// carry an optional SKU, a description, a quantity and a unit cost;
// everything outside the header/footer window is ignored.
func parseDeliveryLines(lines []string) []deliveryLine {
	startIdx := 0
	for i, line := range lines {
		if deliveryHeaderRe.MatchString(line) {
			startIdx = i + 1
			break
		}
	}

	var entries []deliveryLine
	for _, line := range lines[startIdx:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if deliveryFooterRe.MatchString(line) {
			break
		}

		m := deliveryLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		quantity, err := strconv.Atoi(m[3])
		if err != nil || quantity <= 0 {
			continue
		}
		unitCost, err := decimal.NewFromString(strings.ReplaceAll(m[4], ",", ""))
		if err != nil {
			continue
		}

		entries = append(entries, deliveryLine{
			sku:      m[1],
			name:     strings.TrimSpace(m[2]),
			quantity: quantity,
			unitCost: unitCost,
		})
	}
	return entries
}

func (p *ImportProcessor) ingestLine(ctx context.Context, entry deliveryLine) (bool, error) {
	if entry.sku != "" {
		existing, err := p.repo.FindBySKU(ctx, domain.Code(entry.sku))
		if err != nil {
			return false, fmt.Errorf("lookup %s: %w", entry.sku, err)
		}
		if existing != nil {
			if _, err := p.service.StockIn(ctx, existing.ID, entry.quantity); err != nil {
				return false, fmt.Errorf("stock in %s: %w", entry.sku, err)
			}
			return true, nil
		}
	}

	product := &domain.Product{
		SKU:          domain.Code(entry.sku),
		Name:         entry.name,
		CostPrice:    entry.unitCost,
		SalePrice:    entry.unitCost,
		CurrentStock: entry.quantity,
	}
	if _, err := p.service.Create(ctx, product); err != nil {
		return false, fmt.Errorf("create %q: %w", entry.name, err)
	}
	return false, nil
}
