// internal/capture/source.go

// Package capture owns the acquisition channels that feed the scan
// pipeline: a camera loop, one-shot still images, and HID keystroke
// scanners. Sources emit raw readings; normalization and resolution
// happen downstream in the resolver.
package capture

import (
	"context"
	"time"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// Scan is one acquired reading on its way to the resolver.
type Scan struct {
	// Raw is the reading as acquired. Camera scans carry the decoded
	// code text; keystroke scans carry the typed burst before trimming.
	Raw        string
	Method     domain.DecodeMethod
	FrameSeq   uint64
	AcquiredAt time.Time
}

// Source is a continuous acquisition channel. Start is idempotent; Stop
// releases the underlying device and discards in-flight work. Next blocks
// until a scan arrives, the context ends, or the source stops.
type Source interface {
	Start(ctx context.Context) error
	Stop()
	Next(ctx context.Context) (*Scan, error)
}
