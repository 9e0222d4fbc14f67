// internal/decode/fallback.go
package decode

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"

	"github.com/monabeauty/pos-be/internal/core/domain"
)

// FallbackConfig tunes the geometric decoder. Defaults are calibrated for
// label stock printed by the label renderer and webcam frames around
// 640x480.
type FallbackConfig struct {
	// BinarizeThreshold splits luminance into dark/light.
	BinarizeThreshold uint8
	// GapBridge merges dark runs on a row separated by fewer than this
	// many light pixels, so adjacent bars form one candidate box.
	GapBridge int

	// Candidate box filters.
	MinRegionWidth  int
	MinRegionHeight int
	MinAspectRatio  float64 // width over height
	MaxWidthFrac    float64 // of frame width
	MaxHeightFrac   float64 // of frame height

	// Bar pattern validity.
	MinRuns           int
	MaxRuns           int
	MinDistinctRuns   int
	MaxEqualStreak    int
	MaxRunRatio       float64
	MinContrastStdDev float64
	VerticalDominance float64

	// KeyRuns is how many leading run widths feed the repeatable key.
	KeyRuns int
}

// DefaultFallbackConfig returns the production tuning.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		BinarizeThreshold: 127,
		GapBridge:         8,
		MinRegionWidth:    150,
		MinRegionHeight:   30,
		MinAspectRatio:    3,
		MaxWidthFrac:      0.8,
		MaxHeightFrac:     0.3,
		MinRuns:           15,
		MaxRuns:           100,
		MinDistinctRuns:   3,
		MaxEqualStreak:    2,
		MaxRunRatio:       10,
		MinContrastStdDev: 30,
		VerticalDominance: 2,
		KeyRuns:           20,
	}
}

// FallbackDecoder extracts bar-like patterns geometrically and derives a
// repeatable 12-digit key from the run-length sequence. The key is not a
// symbology payload: the same physical label always hashes to the same
// key, so degraded-mode codes resolve against the store like any other
// code, but they cannot be exchanged with external systems.
type FallbackDecoder struct {
	cfg    FallbackConfig
	logger *slog.Logger
}

// NewFallbackDecoder creates a geometric decoder.
func NewFallbackDecoder(cfg FallbackConfig, logger *slog.Logger) *FallbackDecoder {
	return &FallbackDecoder{
		cfg:    cfg,
		logger: logger.With(slog.String("service", "fallback_decoder")),
	}
}

// Decode scans the frame for exactly one readable bar pattern.
func (d *FallbackDecoder) Decode(ctx context.Context, f *Frame) (domain.Code, error) {
	if f.Empty() {
		return "", fmt.Errorf("%w: empty frame", domain.ErrNoCandidateRegion)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dark := d.binarize(f)
	boxes := d.candidateRegions(f, dark)
	if len(boxes) == 0 {
		return "", fmt.Errorf("%w: no box passed geometry filters", domain.ErrNoCandidateRegion)
	}

	codes := make(map[domain.Code]int)
	for _, b := range boxes {
		runs, ok := d.barRuns(f, dark, b)
		if !ok {
			continue
		}
		codes[d.runKey(runs)]++
	}

	switch len(codes) {
	case 0:
		return "", fmt.Errorf("%w: %d boxes, none with a valid bar pattern",
			domain.ErrNoCandidateRegion, len(boxes))
	case 1:
		for code := range codes {
			d.logger.DebugContext(ctx, "fallback decode",
				slog.String("code", code.String()),
				slog.Uint64("frame_seq", f.Seq))
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %d conflicting readings", domain.ErrAmbiguousPattern, len(codes))
}

func (d *FallbackDecoder) binarize(f *Frame) []bool {
	dark := make([]bool, f.Width*f.Height)
	for i := 0; i < f.Width*f.Height; i++ {
		dark[i] = f.Pixels[i] < d.cfg.BinarizeThreshold
	}
	return dark
}

type box struct {
	x0, y0, x1, y1 int // inclusive bounds
}

func (b box) width() int  { return b.x1 - b.x0 + 1 }
func (b box) height() int { return b.y1 - b.y0 + 1 }

// candidateRegions finds connected dark components on a horizontally
// closed copy of the mask (bars bridged into solid blocks) and keeps the
// boxes that look like label stock.
func (d *FallbackDecoder) candidateRegions(f *Frame, dark []bool) []box {
	closed := d.closeHorizontal(f, dark)

	w, h := f.Width, f.Height
	labels := make([]int, w*h)
	var boxes []box
	next := 0

	var queue []int
	for start := 0; start < w*h; start++ {
		if !closed[start] || labels[start] != 0 {
			continue
		}
		next++
		b := box{x0: start % w, y0: start / w, x1: start % w, y1: start / w}
		labels[start] = next
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w

			if x < b.x0 {
				b.x0 = x
			}
			if x > b.x1 {
				b.x1 = x
			}
			if y < b.y0 {
				b.y0 = y
			}
			if y > b.y1 {
				b.y1 = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= w*h {
					continue
				}
				// no wrap across row edges
				if (n == idx-1 && x == 0) || (n == idx+1 && x == w-1) {
					continue
				}
				if closed[n] && labels[n] == 0 {
					labels[n] = next
					queue = append(queue, n)
				}
			}
		}

		if d.boxLooksLikeLabel(f, b) {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

func (d *FallbackDecoder) boxLooksLikeLabel(f *Frame, b box) bool {
	bw, bh := b.width(), b.height()
	switch {
	case bw <= d.cfg.MinRegionWidth:
		return false
	case bh <= d.cfg.MinRegionHeight:
		return false
	case float64(bw) <= d.cfg.MinAspectRatio*float64(bh):
		return false
	case float64(bw) >= d.cfg.MaxWidthFrac*float64(f.Width):
		return false
	case float64(bh) >= d.cfg.MaxHeightFrac*float64(f.Height):
		return false
	}
	return true
}

// closeHorizontal bridges sub-GapBridge light gaps on each row. Only the
// region search reads the closed mask; run analysis reads the original.
func (d *FallbackDecoder) closeHorizontal(f *Frame, dark []bool) []bool {
	w, h := f.Width, f.Height
	closed := make([]bool, len(dark))
	copy(closed, dark)

	for y := 0; y < h; y++ {
		row := closed[y*w : (y+1)*w]
		lastDark := -1
		for x := 0; x < w; x++ {
			if !row[x] {
				continue
			}
			if lastDark >= 0 && x-lastDark > 1 && x-lastDark-1 < d.cfg.GapBridge {
				for i := lastDark + 1; i < x; i++ {
					row[i] = true
				}
			}
			lastDark = x
		}
	}
	return closed
}

// barRuns extracts the dark/light run-length sequence across the box and
// applies the pattern validity checks.
func (d *FallbackDecoder) barRuns(f *Frame, dark []bool, b box) ([]int, bool) {
	bw, bh := b.width(), b.height()

	// Column profile over the original mask: a column is dark when most
	// of its pixels inside the box are.
	profile := make([]bool, bw)
	for x := 0; x < bw; x++ {
		count := 0
		for y := b.y0; y <= b.y1; y++ {
			if dark[y*f.Width+b.x0+x] {
				count++
			}
		}
		profile[x] = count*2 >= bh
	}

	var runs []int
	runStart := 0
	for x := 1; x <= bw; x++ {
		if x == bw || profile[x] != profile[runStart] {
			runs = append(runs, x-runStart)
			runStart = x
		}
	}

	if len(runs) <= d.cfg.MinRuns || len(runs) > d.cfg.MaxRuns {
		return nil, false
	}

	distinct := make(map[int]struct{}, len(runs))
	minRun, maxRun := runs[0], runs[0]
	streak, maxStreak := 1, 1
	for i, r := range runs {
		distinct[r] = struct{}{}
		if r < minRun {
			minRun = r
		}
		if r > maxRun {
			maxRun = r
		}
		if i > 0 {
			if runs[i-1] == r {
				streak++
				if streak > maxStreak {
					maxStreak = streak
				}
			} else {
				streak = 1
			}
		}
	}

	switch {
	case len(distinct) < d.cfg.MinDistinctRuns:
		return nil, false
	case maxStreak > d.cfg.MaxEqualStreak:
		return nil, false
	case minRun == 0 || float64(maxRun)/float64(minRun) > d.cfg.MaxRunRatio:
		return nil, false
	case d.contrastStdDev(f, b) < d.cfg.MinContrastStdDev:
		return nil, false
	case !d.verticallyDominant(f, b):
		return nil, false
	}
	return runs, true
}

// contrastStdDev measures luminance spread inside the box. Real bar
// patterns are strongly bimodal; flat regions wash out.
func (d *FallbackDecoder) contrastStdDev(f *Frame, b box) float64 {
	n := float64(b.width() * b.height())
	var sum, sumSq float64
	for y := b.y0; y <= b.y1; y++ {
		for x := b.x0; x <= b.x1; x++ {
			v := float64(f.At(x, y))
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / n
	return math.Sqrt(sumSq/n - mean*mean)
}

// verticallyDominant checks that structure runs along columns (column
// means vary, row means are flat), which separates bar patterns from
// text lines.
func (d *FallbackDecoder) verticallyDominant(f *Frame, b box) bool {
	colMeans := make([]float64, b.width())
	rowMeans := make([]float64, b.height())
	for y := b.y0; y <= b.y1; y++ {
		for x := b.x0; x <= b.x1; x++ {
			v := float64(f.At(x, y))
			colMeans[x-b.x0] += v
			rowMeans[y-b.y0] += v
		}
	}
	for i := range colMeans {
		colMeans[i] /= float64(b.height())
	}
	for i := range rowMeans {
		rowMeans[i] /= float64(b.width())
	}
	return variance(colMeans) > d.cfg.VerticalDominance*variance(rowMeans)
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var v float64
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return v / float64(len(xs))
}

// runKey hashes the leading run widths into a 12-digit code. FNV-1a keeps
// the key stable across processes and restarts.
func (d *FallbackDecoder) runKey(runs []int) domain.Code {
	if len(runs) > d.cfg.KeyRuns {
		runs = runs[:d.cfg.KeyRuns]
	}
	h := fnv.New64a()
	var buf [2]byte
	for _, r := range runs {
		buf[0] = byte(r)
		buf[1] = byte(r >> 8)
		h.Write(buf[:])
	}
	return domain.Code(fmt.Sprintf("%012d", h.Sum64()%1_000_000_000_000))
}
