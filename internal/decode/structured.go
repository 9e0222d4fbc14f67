// internal/decode/structured.go
package decode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// StructuredDecoder reads real symbologies (EAN/UPC/Code-128/QR) out of
// a frame. Probe is the once-per-session capability check: a decoder that
// cannot round-trip a known label is treated as absent and the adapter
// downgrades to the geometric fallback.
type StructuredDecoder interface {
	Decode(ctx context.Context, f *Frame) (domain.Code, error)
	Probe(ctx context.Context) error
}

// probeCode is a known-good payload used for the capability check.
const probeCode = "123456789012"

type zxingDecoder struct {
	oned   gozxing.Reader
	qr     gozxing.Reader
	logger *slog.Logger
}

// NewStructuredDecoder builds the zxing-backed reader. Row-scan
// symbologies are tried first since label barcodes dominate the scan
// traffic; QR runs as a second pass for supplier codes.
func NewStructuredDecoder(logger *slog.Logger) StructuredDecoder {
	return &zxingDecoder{
		oned:   oned.NewCode128Reader(),
		qr:     qrcode.NewQRCodeReader(),
		logger: logger.With(slog.String("service", "structured_decoder")),
	}
}

// Decode runs the symbology reader over the frame. Reader panics are
// loader-level failures and surface as domain.ErrDecoderUnavailable so
// the adapter can downgrade.
func (d *zxingDecoder) Decode(ctx context.Context, f *Frame) (code domain.Code, err error) {
	if f.Empty() {
		return "", fmt.Errorf("%w: empty frame", domain.ErrNoCandidateRegion)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "structured decoder panicked",
				slog.Any("panic", r), slog.Uint64("frame_seq", f.Seq))
			code, err = "", fmt.Errorf("%w: reader panic: %v", domain.ErrDecoderUnavailable, r)
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(f.Gray())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecoderUnavailable, err)
	}

	result, onedErr := d.oned.Decode(bmp, nil)
	if onedErr != nil {
		result, err = d.qr.Decode(bmp, nil)
		if err != nil {
			return "", classifyReadError(onedErr)
		}
	}
	normalized, err := domain.NormalizeCode(result.GetText())
	if err != nil {
		return "", err
	}
	return normalized, nil
}

// Probe renders a known Code-128 label in memory and requires the reader
// to round-trip it.
func (d *zxingDecoder) Probe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: probe panic: %v", domain.ErrDecoderUnavailable, r)
		}
	}()

	bc, err := code128.Encode(probeCode)
	if err != nil {
		return fmt.Errorf("%w: probe render: %v", domain.ErrDecoderUnavailable, err)
	}
	scaled, err := barcode.Scale(bc, 240, 60)
	if err != nil {
		return fmt.Errorf("%w: probe scale: %v", domain.ErrDecoderUnavailable, err)
	}

	code, err := d.Decode(ctx, FrameFromImage(scaled))
	if err != nil {
		return fmt.Errorf("%w: probe decode: %v", domain.ErrDecoderUnavailable, err)
	}
	if code != domain.Code(probeCode) {
		return fmt.Errorf("%w: probe mismatch, got %s", domain.ErrDecoderUnavailable, code)
	}
	return nil
}

// classifyReadError maps zxing read failures onto the pipeline taxonomy:
// nothing bar-like in frame vs. bars that would not read consistently.
func classifyReadError(err error) error {
	switch err.(type) {
	case gozxing.NotFoundException:
		return fmt.Errorf("%w: %v", domain.ErrNoCandidateRegion, err)
	case gozxing.FormatException, gozxing.ChecksumException:
		return fmt.Errorf("%w: %v", domain.ErrAmbiguousPattern, err)
	default:
		return fmt.Errorf("structured decode: %w", err)
	}
}
