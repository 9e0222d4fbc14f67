// internal/capture/camera.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/decode"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

// FrameProvider abstracts the camera device. Open failures mean the
// channel is unusable, not that a frame was missed.
type FrameProvider interface {
	Open(ctx context.Context) error
	NextFrame(ctx context.Context) (*decode.Frame, error)
	Close() error
}

// Decoder is the decode entry point the camera loop feeds frames into.
// Satisfied by *decode.Adapter.
type Decoder interface {
	Decode(ctx context.Context, f *decode.Frame) (domain.Code, domain.DecodeMethod, error)
}

// CameraConfig tunes the acquisition loop.
type CameraConfig struct {
	// FrameRate bounds how many frames per second are pulled from the
	// provider.
	FrameRate float64
	// DecodeEvery submits every Nth pulled frame to the decoder; the
	// rest are dropped unexamined.
	DecodeEvery int
	// DebounceWindow suppresses repeat readings of the same code inside
	// the window, so one label held under the camera produces one scan.
	DebounceWindow time.Duration
}

// DefaultCameraConfig returns the production tuning.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		FrameRate:      30,
		DecodeEvery:    10,
		DebounceWindow: 1500 * time.Millisecond,
	}
}

// CameraConfigFrom maps the service configuration onto the loop tuning,
// falling back to the defaults for unset fields.
func CameraConfigFrom(cfg config.CaptureConfig) CameraConfig {
	out := DefaultCameraConfig()
	if cfg.FrameRate > 0 {
		out.FrameRate = cfg.FrameRate
	}
	if cfg.DecodeEvery > 0 {
		out.DecodeEvery = cfg.DecodeEvery
	}
	if cfg.DebounceWindow > 0 {
		out.DebounceWindow = cfg.DebounceWindow
	}
	return out
}

// CameraSource runs the continuous camera acquisition loop. Decoding
// happens inline in the loop goroutine, so frames arriving while a decode
// is in progress are never queued; results land in a single-slot mailbox
// where the newest scan overwrites an uncollected one.
type CameraSource struct {
	provider FrameProvider
	dec      Decoder
	cfg      CameraConfig
	logger   *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	slot    *Scan
	started bool
	stopped bool

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

var _ Source = (*CameraSource)(nil)

// NewCameraSource wires the camera loop. Start must be called before
// Next.
func NewCameraSource(provider FrameProvider, dec Decoder, cfg CameraConfig, logger *slog.Logger) *CameraSource {
	if cfg.DecodeEvery <= 0 {
		cfg.DecodeEvery = 1
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultCameraConfig().FrameRate
	}
	s := &CameraSource{
		provider: provider,
		dec:      dec,
		cfg:      cfg,
		logger:   logger.With(slog.String("service", "camera_source")),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start opens the device and launches the acquisition loop. Calling Start
// on a running source is a no-op.
func (s *CameraSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started && !s.stopped {
		return nil
	}
	if s.stopped {
		return fmt.Errorf("%w: source already stopped", domain.ErrCaptureUnavailable)
	}

	if err := s.provider.Open(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCaptureUnavailable, err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.started = true
	s.wg.Add(1)
	go s.loop(loopCtx)
	return nil
}

// Stop shuts the loop down, releases the device and wakes any blocked
// Next callers. In-flight decode results are discarded. Idempotent.
func (s *CameraSource) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
	if err := s.provider.Close(); err != nil {
		s.logger.Warn("closing frame provider", slog.Any("error", err))
	}
}

// Next blocks until a scan is available. It returns
// domain.ErrCaptureUnavailable once the source has stopped.
func (s *CameraSource) Next(ctx context.Context) (*Scan, error) {
	wake := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer wake()

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.slot == nil {
		if s.stopped {
			return nil, fmt.Errorf("%w: source stopped", domain.ErrCaptureUnavailable)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.cond.Wait()
	}
	scan := s.slot
	s.slot = nil
	return scan, nil
}

// Dropped reports how many scans were overwritten in the mailbox before
// anyone collected them.
func (s *CameraSource) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *CameraSource) loop(ctx context.Context) {
	defer s.wg.Done()

	limiter := rate.NewLimiter(rate.Limit(s.cfg.FrameRate), 1)
	var (
		seq      uint64
		lastCode domain.Code
		lastAt   time.Time
	)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		frame, err := s.provider.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, domain.ErrCaptureUnavailable) {
				if ctx.Err() == nil {
					s.logger.ErrorContext(ctx, "frame provider failed", slog.Any("error", err))
				}
				return
			}
			s.logger.DebugContext(ctx, "frame read failed", slog.Any("error", err))
			continue
		}

		seq++
		if seq%uint64(s.cfg.DecodeEvery) != 0 {
			continue
		}
		frame.Seq = seq

		code, method, err := s.dec.Decode(ctx, frame)
		if err != nil {
			// Decode misses are routine while nothing is under the
			// camera.
			continue
		}

		now := time.Now()
		if code == lastCode && now.Sub(lastAt) < s.cfg.DebounceWindow {
			lastAt = now
			continue
		}
		lastCode, lastAt = code, now

		s.publish(&Scan{
			Raw:        code.String(),
			Method:     method,
			FrameSeq:   seq,
			AcquiredAt: now,
		})
	}
}

func (s *CameraSource) publish(scan *Scan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.slot != nil {
		s.dropped.Add(1)
	}
	s.slot = scan
	s.cond.Broadcast()
}
