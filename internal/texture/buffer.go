package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// SamplingMode describes how a buffer is read when displayed.
type SamplingMode int

const (
	// SamplingNearestClamp reads the nearest texel and clamps coordinates to the edge.
	SamplingNearestClamp SamplingMode = iota
)

// String returns the mode name.
func (m SamplingMode) String() string {
	switch m {
	case SamplingNearestClamp:
		return "nearest-clamp"
	default:
		return fmt.Sprintf("SamplingMode(%d)", int(m))
	}
}

// Buffer is an RGBA8 pixel buffer, row-major top to bottom, of fixed size.
// Pix always holds exactly Width*Height*4 bytes.
type Buffer struct {
	img        *image.RGBA
	sampling   SamplingMode
	generation uint64
}

// NewBuffer allocates a zeroed width×height buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %dx%d", width, height)
	}
	return &Buffer{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		sampling: SamplingNearestClamp,
	}, nil
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Rect.Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Pix exposes the raw RGBA bytes. Callers outside a regeneration must treat it as read-only.
func (b *Buffer) Pix() []byte { return b.img.Pix }

// Image returns the buffer as an image. The image aliases Pix.
func (b *Buffer) Image() *image.RGBA { return b.img }

// Sampling returns the sampling mode displays should use.
func (b *Buffer) Sampling() SamplingMode { return b.sampling }

// Generation returns the regeneration number whose output the buffer holds,
// or 0 if it was never generated.
func (b *Buffer) Generation() uint64 { return b.generation }

// SameSize reports whether b and o have identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return o != nil && b.Width() == o.Width() && b.Height() == o.Height()
}

// Equal reports whether b and o hold byte-identical pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	return b.SameSize(o) && bytes.Equal(b.img.Pix, o.img.Pix)
}

// Snapshot returns a copy of the pixel bytes.
func (b *Buffer) Snapshot() []byte {
	out := make([]byte, len(b.img.Pix))
	copy(out, b.img.Pix)
	return out
}

// SampleAt returns the texel under normalized coordinates (u, v), where (0,0)
// is the top-left corner. Coordinates outside [0,1] clamp to the edge.
func (b *Buffer) SampleAt(u, v float64) color.RGBA {
	x := clampIndex(int(u*float64(b.Width())), b.Width())
	y := clampIndex(int(v*float64(b.Height())), b.Height())
	return b.img.RGBAAt(x, y)
}

// ScaleTo draws the whole buffer into r of dst using nearest-neighbor sampling.
func (b *Buffer) ScaleTo(dst draw.Image, r image.Rectangle) {
	xdraw.NearestNeighbor.Scale(dst, r, b.img, b.img.Bounds(), xdraw.Src, nil)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
