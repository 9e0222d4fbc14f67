// internal/core/services/codegen.go
package services

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// maxBarcodeAttempts bounds collision re-draws before the generator gives
// up with ErrGenerationExhausted.
const maxBarcodeAttempts = 1000

// CodeGenerator mints SKUs and numeric barcodes for new products. SKU
// generation is deterministic for a given name, category and date;
// barcode generation is random with collision re-draw against the live
// code set.
type CodeGenerator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *slog.Logger
}

// NewCodeGenerator creates a generator. Pass a fixed source for
// deterministic tests; nil seeds from the clock.
func NewCodeGenerator(src rand.Source, logger *slog.Logger) *CodeGenerator {
	if src == nil {
		now := time.Now()
		src = rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix()))
	}
	return &CodeGenerator{
		rng:    rand.New(src),
		logger: logger.With(slog.String("service", "code_generator")),
	}
}

// GenerateSKU derives a structured SKU: up to three alphanumerics of the
// category, up to eight of the name, and the MMDD creation date, joined
// with dashes. An empty category drops its segment entirely.
func (g *CodeGenerator) GenerateSKU(category, name string, on time.Time) string {
	catPart := alnumPrefix(category, 3)
	namePart := alnumPrefix(name, 8)
	if namePart == "" {
		namePart = "ITEM"
	}
	datePart := on.Format("0102")

	if catPart == "" {
		return fmt.Sprintf("%s-%s", namePart, datePart)
	}
	return fmt.Sprintf("%s-%s-%s", catPart, namePart, datePart)
}

// GenerateBarcode draws a fresh 12-digit code not present in existing.
func (g *CodeGenerator) GenerateBarcode(existing domain.CodeSet) (domain.Code, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 1; attempt <= maxBarcodeAttempts; attempt++ {
		code := domain.Code(fmt.Sprintf("%012d", g.rng.Uint64N(1_000_000_000_000)))
		if !existing.Has(code) {
			if attempt > 1 {
				g.logger.Debug("barcode collision re-draw",
					slog.Int("attempts", attempt))
			}
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: after %d attempts", domain.ErrGenerationExhausted, maxBarcodeAttempts)
}

// alnumPrefix keeps the first n letters and digits of s, uppercased.
func alnumPrefix(s string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= n {
				break
			}
		}
	}
	return b.String()
}
