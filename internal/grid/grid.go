// Package grid maps between tile, world, pixel and noise-sample coordinates.
package grid

import "fmt"

// Defaults matching the sandbox's startup grid.
const (
	DefaultSize     = 250
	DefaultTileSize = 10.0
	DefaultPanSpeed = 1.0
)

// Grid is a square grid of Size×Size tiles, each TileSize world units wide.
// The grid is centered on the world origin.
type Grid struct {
	Size     int
	TileSize float64
}

// New validates and returns a Grid.
func New(size int, tileSize float64) (Grid, error) {
	if size <= 0 {
		return Grid{}, fmt.Errorf("grid size must be positive, got %d", size)
	}
	if tileSize <= 0 {
		return Grid{}, fmt.Errorf("tile size must be positive, got %v", tileSize)
	}
	return Grid{Size: size, TileSize: tileSize}, nil
}

// Default returns the startup grid.
func Default() Grid {
	return Grid{Size: DefaultSize, TileSize: DefaultTileSize}
}

// String returns the grid as "{size}x{size}@{tileSize}".
func (g Grid) String() string {
	return fmt.Sprintf("%dx%d@%g", g.Size, g.Size, g.TileSize)
}

// WorldSize returns the edge length of the grid in world units.
func (g Grid) WorldSize() float64 {
	return float64(g.Size) * g.TileSize
}

// TextureSize returns the texture edge length in pixels at one pixel per world unit.
func (g Grid) TextureSize() (width, height int) {
	s := int(g.WorldSize())
	return s, s
}

// TileEdgeToWorld returns the world coordinate of the lower edge of tile i.
func (g Grid) TileEdgeToWorld(i int) float64 {
	return float64(i)*g.TileSize - float64(g.Size)/2*g.TileSize
}

// TileCenterToWorld returns the world coordinate of the center of tile i.
func (g Grid) TileCenterToWorld(i int) float64 {
	return g.TileEdgeToWorld(i) + g.TileSize/2
}

// Lines calls fn for every interior and border grid line, in world units.
// Horizontal lines come first, then vertical ones.
func (g Grid) Lines(fn func(x0, y0, x1, y1 float64)) {
	lo := g.TileEdgeToWorld(0)
	hi := g.TileEdgeToWorld(g.Size)
	for i := 0; i <= g.Size; i++ {
		y := g.TileEdgeToWorld(i)
		fn(lo, y, hi, y)
	}
	for i := 0; i <= g.Size; i++ {
		x := g.TileEdgeToWorld(i)
		fn(x, lo, x, hi)
	}
}
