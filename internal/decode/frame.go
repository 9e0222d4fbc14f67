// internal/decode/frame.go
package decode

import (
	"image"
	"image/color"
	"time"
)

// Frame is a single grayscale capture frame. Pixels is row-major
// luminance, len == Width*Height. Frames are value carriers; decoders
// never mutate them.
type Frame struct {
	Pixels    []uint8
	Width     int
	Height    int
	Seq       uint64
	Timestamp time.Time
}

// NewFrame allocates a blank (white) frame.
func NewFrame(width, height int) *Frame {
	px := make([]uint8, width*height)
	for i := range px {
		px[i] = 0xff
	}
	return &Frame{Pixels: px, Width: width, Height: height}
}

// FrameFromImage converts any image to a luminance frame using the
// standard Rec. 601 weights.
func FrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	f := &Frame{
		Pixels: make([]uint8, w*h),
		Width:  w,
		Height: h,
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			f.Pixels[y*w+x] = c.Y
		}
	}
	return f
}

// At returns the luminance at (x, y). Callers keep coordinates in range.
func (f *Frame) At(x, y int) uint8 {
	return f.Pixels[y*f.Width+x]
}

// Set writes the luminance at (x, y).
func (f *Frame) Set(x, y int, v uint8) {
	f.Pixels[y*f.Width+x] = v
}

// Empty reports whether the frame has no pixel data.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pixels) < f.Width*f.Height
}

// Gray renders the frame as an image.Gray for decoders that speak the
// standard image interfaces.
func (f *Frame) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	copy(img.Pix, f.Pixels[:f.Width*f.Height])
	return img
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	px := make([]uint8, len(f.Pixels))
	copy(px, f.Pixels)
	return &Frame{
		Pixels:    px,
		Width:     f.Width,
		Height:    f.Height,
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
	}
}
