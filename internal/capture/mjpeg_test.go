// internal/capture/mjpeg_test.go
package capture_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monabeauty/pos-be/internal/capture"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewGray(image.Rect(0, 0, width, height))
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func streamOf(chunks ...[]byte) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(bytes.Join(chunks, nil))), nil
	}
}

func captureConfig() config.CaptureConfig {
	return config.CaptureConfig{
		Enabled:     true,
		Device:      "/dev/video0",
		FrameWidth:  640,
		FrameHeight: 480,
	}
}

func TestMJPEGProvider_ReadsConsecutiveFrames(t *testing.T) {
	stream := streamOf(encodeJPEG(t, 64, 48), encodeJPEG(t, 64, 48))
	p := capture.NewMJPEGProvider(captureConfig(), stream, testLogger())
	require.NoError(t, p.Open(context.Background()))
	defer p.Close()

	for i := 0; i < 2; i++ {
		frame, err := p.NextFrame(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 64, frame.Width)
		assert.Equal(t, 48, frame.Height)
	}

	_, err := p.NextFrame(context.Background())
	assert.ErrorIs(t, err, domain.ErrCaptureUnavailable)
}

func TestMJPEGProvider_SkipsInterFrameNoise(t *testing.T) {
	noise := []byte{0x00, 0x01, 0x02, 0x03}
	stream := streamOf(noise, encodeJPEG(t, 32, 32))
	p := capture.NewMJPEGProvider(captureConfig(), stream, testLogger())
	require.NoError(t, p.Open(context.Background()))
	defer p.Close()

	frame, err := p.NextFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 32, frame.Width)
}

func TestMJPEGProvider_RejectsOversizedFrame(t *testing.T) {
	cfg := captureConfig()
	cfg.FrameWidth = 32
	cfg.FrameHeight = 32
	stream := streamOf(encodeJPEG(t, 64, 48))
	p := capture.NewMJPEGProvider(cfg, stream, testLogger())
	require.NoError(t, p.Open(context.Background()))
	defer p.Close()

	_, err := p.NextFrame(context.Background())
	assert.ErrorContains(t, err, "exceeds configured")
}

func TestMJPEGProvider_NextFrameBeforeOpen(t *testing.T) {
	p := capture.NewMJPEGProvider(captureConfig(), streamOf(), testLogger())
	_, err := p.NextFrame(context.Background())
	assert.ErrorIs(t, err, domain.ErrCaptureUnavailable)
}

func TestMJPEGProvider_OpenFailure(t *testing.T) {
	open := func() (io.ReadCloser, error) {
		return nil, errors.New("no such device")
	}
	p := capture.NewMJPEGProvider(captureConfig(), open, testLogger())
	err := p.Open(context.Background())
	assert.ErrorIs(t, err, domain.ErrCaptureUnavailable)
}

func TestCameraConfigFrom(t *testing.T) {
	defaults := capture.DefaultCameraConfig()

	got := capture.CameraConfigFrom(config.CaptureConfig{})
	assert.Equal(t, defaults, got)

	got = capture.CameraConfigFrom(config.CaptureConfig{
		FrameRate:      15,
		DecodeEvery:    2,
		DebounceWindow: 3 * time.Second,
	})
	assert.Equal(t, float64(15), got.FrameRate)
	assert.Equal(t, 2, got.DecodeEvery)
	assert.Equal(t, 3*time.Second, got.DebounceWindow)
}
