// internal/capture/mjpeg.go
package capture

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"sync"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/decode"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

// JPEG frame markers.
var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// MJPEGProvider reads motion-JPEG frames from a byte stream: a capture
// device in MJPEG mode, or a FIFO fed by an external grabber. Frames are
// delimited by the JPEG start/end markers; bytes between frames are
// discarded.
type MJPEGProvider struct {
	open   func() (io.ReadCloser, error)
	cfg    config.CaptureConfig
	logger *slog.Logger

	mu     sync.Mutex
	stream io.ReadCloser
	buf    *bufio.Reader
}

var _ FrameProvider = (*MJPEGProvider)(nil)

// NewMJPEGProvider builds a provider over the configured capture device.
// The device is not touched until Open.
func NewMJPEGProvider(cfg config.CaptureConfig, open func() (io.ReadCloser, error), logger *slog.Logger) *MJPEGProvider {
	return &MJPEGProvider{
		open:   open,
		cfg:    cfg,
		logger: logger.With(slog.String("service", "mjpeg_provider")),
	}
}

// Open connects to the device stream.
func (p *MJPEGProvider) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return nil
	}
	stream, err := p.open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrCaptureUnavailable, p.cfg.Device, err)
	}
	p.stream = stream
	p.buf = bufio.NewReaderSize(stream, 64<<10)
	p.logger.Info("capture stream opened", slog.String("device", p.cfg.Device))
	return nil
}

// NextFrame reads one JPEG frame off the stream and rasterizes it.
func (p *MJPEGProvider) NextFrame(ctx context.Context) (*decode.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.buf == nil {
		return nil, fmt.Errorf("%w: stream not open", domain.ErrCaptureUnavailable)
	}

	raw, err := p.readFrame()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: stream ended", domain.ErrCaptureUnavailable)
		}
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("corrupt frame: %w", err)
	}

	bounds := img.Bounds()
	if p.cfg.FrameWidth > 0 && bounds.Dx() > p.cfg.FrameWidth ||
		p.cfg.FrameHeight > 0 && bounds.Dy() > p.cfg.FrameHeight {
		return nil, fmt.Errorf("frame %dx%d exceeds configured %dx%d",
			bounds.Dx(), bounds.Dy(), p.cfg.FrameWidth, p.cfg.FrameHeight)
	}

	return decode.FrameFromImage(img), nil
}

// Close releases the stream. Safe on a never-opened provider.
func (p *MJPEGProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}
	err := p.stream.Close()
	p.stream, p.buf = nil, nil
	return err
}

// readFrame scans to the next SOI marker and accumulates bytes up to and
// including the matching EOI. The frame size is bounded so a corrupt
// stream cannot grow the buffer without limit.
func (p *MJPEGProvider) readFrame() ([]byte, error) {
	// Generous bound for a single frame at the configured dimensions.
	maxFrame := 8 << 20

	if err := p.seekMarker(jpegSOI); err != nil {
		return nil, err
	}

	frame := make([]byte, 0, 32<<10)
	frame = append(frame, jpegSOI...)
	var prev byte
	for {
		b, err := p.buf.ReadByte()
		if err != nil {
			return nil, err
		}
		frame = append(frame, b)
		if prev == jpegEOI[0] && b == jpegEOI[1] {
			return frame, nil
		}
		if len(frame) > maxFrame {
			return nil, fmt.Errorf("frame exceeds %d bytes without end marker", maxFrame)
		}
		prev = b
	}
}

func (p *MJPEGProvider) seekMarker(marker []byte) error {
	var prev byte
	for {
		b, err := p.buf.ReadByte()
		if err != nil {
			return err
		}
		if prev == marker[0] && b == marker[1] {
			return nil
		}
		prev = b
	}
}
