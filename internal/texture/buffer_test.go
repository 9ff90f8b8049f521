package texture

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func checkerBuffer(t *testing.T) *Buffer {
	t.Helper()
	buf, err := NewBuffer(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	img := buf.Image()
	img.SetRGBA(0, 0, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 20, G: 20, B: 20, A: 255})
	img.SetRGBA(0, 1, color.RGBA{R: 30, G: 30, B: 30, A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 40, G: 40, B: 40, A: 255})
	return buf
}

func TestNewBufferLayout(t *testing.T) {
	buf, err := NewBuffer(5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf.Pix()) != 5*3*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(buf.Pix()), 5*3*4)
	}
	if buf.Image().Stride != 5*4 {
		t.Fatalf("Stride = %d, want %d", buf.Image().Stride, 20)
	}
	if buf.Sampling() != SamplingNearestClamp {
		t.Fatalf("Sampling = %s", buf.Sampling())
	}
	if buf.Generation() != 0 {
		t.Fatalf("new buffer generation = %d", buf.Generation())
	}
}

func TestNewBufferRejectsEmpty(t *testing.T) {
	if _, err := NewBuffer(0, 4); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestSampleAtClampsToEdge(t *testing.T) {
	buf := checkerBuffer(t)

	tests := []struct {
		u, v float64
		want uint8
	}{
		{0, 0, 10},
		{0.75, 0.25, 20},
		{0.25, 0.75, 30},
		{1, 1, 40},
		{-3, -3, 10},
		{7, 0.1, 20},
		{0.1, 9, 30},
	}
	for _, tt := range tests {
		if got := buf.SampleAt(tt.u, tt.v).R; got != tt.want {
			t.Errorf("SampleAt(%v,%v) = %d, want %d", tt.u, tt.v, got, tt.want)
		}
	}
}

func TestScaleToNearestNeighbor(t *testing.T) {
	buf := checkerBuffer(t)
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))

	buf.ScaleTo(dst, dst.Bounds())

	if got := dst.RGBAAt(1, 1).R; got != 10 {
		t.Errorf("dst(1,1) = %d, want 10", got)
	}
	if got := dst.RGBAAt(2, 0).R; got != 20 {
		t.Errorf("dst(2,0) = %d, want 20", got)
	}
	if got := dst.RGBAAt(3, 3).R; got != 40 {
		t.Errorf("dst(3,3) = %d, want 40", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	buf := checkerBuffer(t)
	snap := buf.Snapshot()
	buf.Pix()[0] = 99

	if snap[0] != 10 {
		t.Fatalf("snapshot aliased buffer memory")
	}
	if bytes.Equal(snap, buf.Pix()) {
		t.Fatalf("snapshot should differ after mutation")
	}
}

func TestEqualAndSameSize(t *testing.T) {
	a := checkerBuffer(t)
	b := checkerBuffer(t)
	if !a.Equal(b) {
		t.Fatal("identical buffers reported unequal")
	}

	other, _ := NewBuffer(2, 3)
	if a.SameSize(other) || a.Equal(other) {
		t.Fatal("buffers of different size reported equal")
	}
	if a.SameSize(nil) {
		t.Fatal("nil buffer reported same size")
	}
}
