package grid

import (
	"fmt"

	"github.com/MeKo-Tech/noisesandbox/internal/noise"
)

// Mapper converts texture pixel indices into noise-sample coordinates.
//
// Pixels are first scaled to world units (so the texture resolution does not
// change what is sampled), shifted by the pan offset, then expressed in tile
// units and multiplied by the base frequency.
type Mapper struct {
	grid     Grid
	width    int
	height   int
	panSpeed float64

	worldPerPixelX float64
	worldPerPixelY float64
}

// NewMapper creates a mapper for a width×height texture covering g.
// panSpeed scales how far one tile of offset moves the sampled region.
func NewMapper(g Grid, width, height int, panSpeed float64) (Mapper, error) {
	if g.Size <= 0 || g.TileSize <= 0 {
		return Mapper{}, fmt.Errorf("invalid grid %s", g)
	}
	if width <= 0 || height <= 0 {
		return Mapper{}, fmt.Errorf("texture size must be positive, got %dx%d", width, height)
	}
	return Mapper{
		grid:           g,
		width:          width,
		height:         height,
		panSpeed:       panSpeed,
		worldPerPixelX: g.WorldSize() / float64(width),
		worldPerPixelY: g.WorldSize() / float64(height),
	}, nil
}

// Grid returns the grid the mapper covers.
func (m Mapper) Grid() Grid { return m.grid }

// Size returns the texture size the mapper was built for.
func (m Mapper) Size() (width, height int) { return m.width, m.height }

// PanSpeed returns the pan multiplier.
func (m Mapper) PanSpeed() float64 { return m.panSpeed }

// PanWorld returns the world-space shift produced by the offsets in p.
func (m Mapper) PanWorld(p noise.Params) (dx, dy float64) {
	dx = float64(p.OffsetX) * m.grid.TileSize * m.panSpeed
	dy = float64(p.OffsetY) * m.grid.TileSize * m.panSpeed
	return dx, dy
}

// Map returns the noise-sample coordinate for pixel (x, y).
func (m Mapper) Map(x, y int, p noise.Params) (nx, ny float64) {
	dx, dy := m.PanWorld(p)
	worldX := float64(x)*m.worldPerPixelX + dx
	worldY := float64(y)*m.worldPerPixelY + dy
	nx = worldX / m.grid.TileSize * p.Frequency
	ny = worldY / m.grid.TileSize * p.Frequency
	return nx, ny
}
