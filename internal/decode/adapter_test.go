// internal/decode/adapter_test.go
package decode_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/decode"
)

type fakeStructured struct {
	probeErr    error
	decodeFn    func(ctx context.Context, f *decode.Frame) (domain.Code, error)
	decodeCalls int
}

func (s *fakeStructured) Probe(ctx context.Context) error {
	return s.probeErr
}

func (s *fakeStructured) Decode(ctx context.Context, f *decode.Frame) (domain.Code, error) {
	s.decodeCalls++
	return s.decodeFn(ctx, f)
}

func barFrame() *decode.Frame {
	f := decode.NewFrame(640, 480)
	drawBars(f, 100, 200, 40, barPatternA)
	return f
}

func TestAdapter_PrefersStructured(t *testing.T) {
	structured := &fakeStructured{
		decodeFn: func(context.Context, *decode.Frame) (domain.Code, error) {
			return "123456789012", nil
		},
	}
	fallback := decode.NewFallbackDecoder(decode.DefaultFallbackConfig(), testLogger())
	a := decode.NewAdapter(context.Background(), structured, fallback, testLogger())

	require.False(t, a.Degraded())

	code, method, err := a.Decode(context.Background(), barFrame())
	require.NoError(t, err)
	assert.Equal(t, domain.Code("123456789012"), code)
	assert.Equal(t, domain.MethodStructured, method)
}

func TestAdapter_NilStructuredStartsDegraded(t *testing.T) {
	fallback := decode.NewFallbackDecoder(decode.DefaultFallbackConfig(), testLogger())
	a := decode.NewAdapter(context.Background(), nil, fallback, testLogger())

	assert.True(t, a.Degraded())

	code, method, err := a.Decode(context.Background(), barFrame())
	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, method)
	assert.True(t, code.IsNumeric())
}

func TestAdapter_ProbeFailureStartsDegraded(t *testing.T) {
	structured := &fakeStructured{
		probeErr: fmt.Errorf("%w: probe mismatch", domain.ErrDecoderUnavailable),
		decodeFn: func(context.Context, *decode.Frame) (domain.Code, error) {
			return "123456789012", nil
		},
	}
	fallback := decode.NewFallbackDecoder(decode.DefaultFallbackConfig(), testLogger())
	a := decode.NewAdapter(context.Background(), structured, fallback, testLogger())

	assert.True(t, a.Degraded())

	_, method, err := a.Decode(context.Background(), barFrame())
	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, method)
	assert.Zero(t, structured.decodeCalls, "degraded adapter must not consult the structured path")
}

func TestAdapter_StickyDowngradeMidSession(t *testing.T) {
	structured := &fakeStructured{
		decodeFn: func(context.Context, *decode.Frame) (domain.Code, error) {
			return "", fmt.Errorf("%w: reader panic", domain.ErrDecoderUnavailable)
		},
	}
	fallback := decode.NewFallbackDecoder(decode.DefaultFallbackConfig(), testLogger())
	a := decode.NewAdapter(context.Background(), structured, fallback, testLogger())

	require.False(t, a.Degraded())

	// The failing call itself retries the frame on the fallback path.
	code, method, err := a.Decode(context.Background(), barFrame())
	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, method)
	assert.True(t, code.IsNumeric())
	assert.True(t, a.Degraded())

	// Later calls never consult the structured path again.
	calls := structured.decodeCalls
	_, _, err = a.Decode(context.Background(), barFrame())
	require.NoError(t, err)
	assert.Equal(t, calls, structured.decodeCalls)
}

func TestAdapter_MissDoesNotDowngrade(t *testing.T) {
	structured := &fakeStructured{
		decodeFn: func(context.Context, *decode.Frame) (domain.Code, error) {
			return "", fmt.Errorf("%w: nothing bar-like", domain.ErrNoCandidateRegion)
		},
	}
	fallback := decode.NewFallbackDecoder(decode.DefaultFallbackConfig(), testLogger())
	a := decode.NewAdapter(context.Background(), structured, fallback, testLogger())

	_, method, err := a.Decode(context.Background(), barFrame())
	assert.ErrorIs(t, err, domain.ErrNoCandidateRegion)
	assert.Equal(t, domain.MethodStructured, method)
	assert.False(t, a.Degraded(), "ordinary misses must not downgrade")
}

func TestStructuredDecoder_ProbeRoundTrip(t *testing.T) {
	d := decode.NewStructuredDecoder(testLogger())
	require.NoError(t, d.Probe(context.Background()))
}

func TestStructuredDecoder_ReadsQR(t *testing.T) {
	symbol, err := qr.Encode("590123412345", qr.M, qr.Auto)
	require.NoError(t, err)
	scaled, err := barcode.Scale(symbol, 240, 240)
	require.NoError(t, err)

	d := decode.NewStructuredDecoder(testLogger())
	code, err := d.Decode(context.Background(), decode.FrameFromImage(scaled))
	require.NoError(t, err)
	assert.Equal(t, domain.Code("590123412345"), code)
}
