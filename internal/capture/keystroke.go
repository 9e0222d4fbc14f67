// internal/capture/keystroke.go
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// keystrokeBuffer bounds how many un-collected bursts a scanner can queue
// before the oldest is dropped. HID scanners fire in bursts when staff
// scan a stack of items, so unlike the camera this source queues.
const keystrokeBuffer = 32

// KeystrokeSource reads HID barcode scanners that present as keyboards:
// each trigger pull types the code followed by Enter. Bursts are emitted
// raw; the resolver's normalization strips the CR/LF framing.
type KeystrokeSource struct {
	r      io.Reader
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc

	scans   chan *Scan
	done    chan struct{}
	dropped uint64
}

var _ Source = (*KeystrokeSource)(nil)

// NewKeystrokeSource wraps the scanner's input stream.
func NewKeystrokeSource(r io.Reader, logger *slog.Logger) *KeystrokeSource {
	return &KeystrokeSource{
		r:      r,
		logger: logger.With(slog.String("service", "keystroke_source")),
		scans:  make(chan *Scan, keystrokeBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the line reader. Idempotent on a running source.
func (s *KeystrokeSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started && !s.stopped {
		return nil
	}
	if s.stopped {
		return fmt.Errorf("%w: source already stopped", domain.ErrCaptureUnavailable)
	}
	if s.r == nil {
		return fmt.Errorf("%w: no scanner stream", domain.ErrCaptureUnavailable)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.started = true
	go s.read(loopCtx)
	return nil
}

// Stop ends the reader. The underlying stream is owned by the caller and
// is not closed here.
func (s *KeystrokeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return
	}
	s.stopped = true
	s.cancel()
	close(s.done)
}

// Next returns the oldest queued burst.
func (s *KeystrokeSource) Next(ctx context.Context) (*Scan, error) {
	select {
	case scan := <-s.scans:
		return scan, nil
	case <-s.done:
		// Drain bursts queued before the stop.
		select {
		case scan := <-s.scans:
			return scan, nil
		default:
			return nil, fmt.Errorf("%w: source stopped", domain.ErrCaptureUnavailable)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *KeystrokeSource) read(ctx context.Context) {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		burst := scanner.Text()
		if burst == "" {
			continue
		}
		scan := &Scan{
			Raw:        burst,
			Method:     domain.MethodKeystroke,
			AcquiredAt: time.Now(),
		}
		select {
		case s.scans <- scan:
		default:
			// Queue full: drop the oldest so fresh scans still land.
			select {
			case <-s.scans:
				s.mu.Lock()
				s.dropped++
				s.mu.Unlock()
			default:
			}
			select {
			case s.scans <- scan:
			default:
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.ErrorContext(ctx, "scanner stream failed", slog.Any("error", err))
	}
}
