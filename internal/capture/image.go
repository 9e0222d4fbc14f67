// internal/capture/image.go
package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"time"

	"github.com/monabeauty/pos-be/internal/decode"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// ImageSource decodes uploaded stills on demand. Unlike the camera loop
// it has no lifecycle: each call is one shot.
type ImageSource struct {
	dec    Decoder
	logger *slog.Logger
}

// NewImageSource creates a still-image acquisition channel.
func NewImageSource(dec Decoder, logger *slog.Logger) *ImageSource {
	return &ImageSource{
		dec:    dec,
		logger: logger.With(slog.String("service", "image_source")),
	}
}

// Decode reads one image (PNG or JPEG) and extracts a single code from
// it. Bytes that are not a decodable image mean the channel itself is
// unusable for this request and surface as ErrCaptureUnavailable.
func (s *ImageSource) Decode(ctx context.Context, r io.Reader) (*Scan, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image: %v", domain.ErrCaptureUnavailable, err)
	}

	frame := decode.FrameFromImage(img)
	code, method, err := s.dec.Decode(ctx, frame)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "still image decoded",
		slog.String("format", format),
		slog.String("method", string(method)))

	return &Scan{
		Raw:        code.String(),
		Method:     method,
		AcquiredAt: time.Now(),
	}, nil
}
