// internal/capture/keystroke_test.go
package capture_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monabeauty/pos-be/internal/capture"
	"github.com/monabeauty/pos-be/internal/core/domain"
)

func TestKeystrokeSource_EmitsBurstsInOrder(t *testing.T) {
	input := strings.NewReader("123456789012\r\nlas-lashkit-0601\r\n")
	src := capture.NewKeystrokeSource(input, testLogger())
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", first.Raw)
	assert.Equal(t, domain.MethodKeystroke, first.Method)

	second, err := src.Next(ctx)
	require.NoError(t, err)
	// Raw is emitted untrimmed of case; normalization happens in the
	// resolver.
	assert.Equal(t, "las-lashkit-0601", second.Raw)
}

func TestKeystrokeSource_SkipsEmptyLines(t *testing.T) {
	input := strings.NewReader("\n\n123456789012\n")
	src := capture.NewKeystrokeSource(input, testLogger())
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	scan, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", scan.Raw)
}

func TestKeystrokeSource_NilStream(t *testing.T) {
	src := capture.NewKeystrokeSource(nil, testLogger())
	err := src.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrCaptureUnavailable)
}

func TestKeystrokeSource_StopDrainsThenFails(t *testing.T) {
	input := strings.NewReader("111111111111\n222222222222\n")
	src := capture.NewKeystrokeSource(input, testLogger())
	require.NoError(t, src.Start(context.Background()))

	// Give the reader time to queue both bursts, then stop.
	time.Sleep(50 * time.Millisecond)
	src.Stop()

	ctx := context.Background()
	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "111111111111", first.Raw)

	second, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "222222222222", second.Raw)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrCaptureUnavailable)
}

func TestKeystrokeSource_NextHonorsContext(t *testing.T) {
	blocked, w := newBlockedReader()
	defer w()

	src := capture.NewKeystrokeSource(blocked, testLogger())
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// newBlockedReader returns a reader that never delivers data and a
// release func.
func newBlockedReader() (*blockingReader, func()) {
	r := &blockingReader{ch: make(chan struct{})}
	return r, func() { close(r.ch) }
}

type blockingReader struct{ ch chan struct{} }

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.ch
	return 0, context.Canceled
}
