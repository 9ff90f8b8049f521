package texture

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
)

// MaxPreviewScale bounds Enlarge so a request cannot allocate unbounded memory.
const MaxPreviewScale = 16

// Enlarge returns a copy of buf scaled by an integer factor with nearest-neighbor
// resampling, so individual texels stay crisp. Scales below 1 return a 1:1 copy.
func Enlarge(buf *Buffer, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	if scale > MaxPreviewScale {
		scale = MaxPreviewScale
	}

	g := gift.New(gift.Resize(buf.Width()*scale, buf.Height()*scale, gift.NearestNeighborResampling))
	dst := image.NewRGBA(g.Bounds(buf.Image().Bounds()))
	g.Draw(dst, buf.Image())
	return dst
}

// ParsePNGCompression maps a flag value to a png.CompressionLevel.
func ParsePNGCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("unknown png compression %q (default, speed, best, none)", s)
	}
}

// EncodePNG writes img to w.
func EncodePNG(w io.Writer, img image.Image, level png.CompressionLevel) error {
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WritePNG writes img to path, creating parent directories.
func WritePNG(path string, img image.Image, level png.CompressionLevel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodePNG(file, img, level); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
