// internal/decode/adapter.go
package decode

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// Adapter fronts the two decode paths. It prefers the structured decoder
// and downgrades to the geometric fallback when the structured path fails
// at the loader level: failed startup probe, absent decoder, or an
// ErrDecoderUnavailable mid-session. The downgrade is sticky for the
// process lifetime and announced exactly once; ordinary decode misses
// never trigger it.
type Adapter struct {
	structured StructuredDecoder
	fallback   *FallbackDecoder
	degraded   atomic.Bool
	announce   sync.Once
	logger     *slog.Logger
}

// NewAdapter wires the decode paths and probes the structured decoder
// once. Pass a nil structured decoder to start degraded (headless
// deployments without the symbology reader).
func NewAdapter(ctx context.Context, structured StructuredDecoder, fallback *FallbackDecoder, logger *slog.Logger) *Adapter {
	a := &Adapter{
		structured: structured,
		fallback:   fallback,
		logger:     logger.With(slog.String("service", "decoder_adapter")),
	}
	if structured == nil {
		a.downgrade(ctx, "structured decoder not configured")
		return a
	}
	if err := structured.Probe(ctx); err != nil {
		a.downgrade(ctx, err.Error())
	}
	return a
}

// Degraded reports whether the adapter has fallen back for good.
func (a *Adapter) Degraded() bool {
	return a.degraded.Load()
}

// Decode reads one code out of the frame, reporting which path produced
// it.
func (a *Adapter) Decode(ctx context.Context, f *Frame) (domain.Code, domain.DecodeMethod, error) {
	if !a.degraded.Load() {
		code, err := a.structured.Decode(ctx, f)
		if err == nil {
			return code, domain.MethodStructured, nil
		}
		if !errors.Is(err, domain.ErrDecoderUnavailable) {
			return "", domain.MethodStructured, err
		}
		// Loader-level failure: downgrade and retry this same frame on
		// the fallback path so the scan is not lost.
		a.downgrade(ctx, err.Error())
	}

	code, err := a.fallback.Decode(ctx, f)
	return code, domain.MethodFallback, err
}

func (a *Adapter) downgrade(ctx context.Context, reason string) {
	a.degraded.Store(true)
	a.announce.Do(func() {
		a.logger.WarnContext(ctx, "structured decoder unavailable, using geometric fallback for the rest of the session",
			slog.String("reason", reason))
	})
}
