// Package viewer shows the active sandbox texture in a window and maps key
// presses onto parameter changes.
package viewer

import (
	"github.com/MeKo-Tech/noisesandbox/internal/grid"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
)

// Action is a user command independent of the input device.
type Action int

const (
	ActionNone Action = iota
	ActionRandomizeSeed
	ActionPanLeft
	ActionPanRight
	ActionPanUp
	ActionPanDown
	ActionFrequencyUp
	ActionFrequencyDown
	ActionOctavesUp
	ActionOctavesDown
	ActionToggleGrid
)

// FrequencyStep is the multiplicative step of the frequency keys.
const FrequencyStep = 1.25

// Controller applies actions to a sandbox and holds view-only state.
type Controller struct {
	sb       *sandbox.Sandbox
	showGrid bool
}

// NewController creates a controller for sb.
func NewController(sb *sandbox.Sandbox) *Controller {
	return &Controller{sb: sb}
}

// ShowGrid reports whether grid lines are drawn over the texture.
func (c *Controller) ShowGrid() bool { return c.showGrid }

// Handle applies a. Parameter changes go through the sandbox setters, so they
// are clamped and raise a regeneration request.
func (c *Controller) Handle(a Action) {
	switch a {
	case ActionRandomizeSeed:
		c.sb.RandomizeSeed()
	case ActionPanLeft:
		c.sb.Pan(-1, 0)
	case ActionPanRight:
		c.sb.Pan(1, 0)
	case ActionPanUp:
		c.sb.Pan(0, -1)
	case ActionPanDown:
		c.sb.Pan(0, 1)
	case ActionFrequencyUp:
		c.sb.Update(func(p *noise.Params) { p.Frequency *= FrequencyStep })
	case ActionFrequencyDown:
		c.sb.Update(func(p *noise.Params) { p.Frequency /= FrequencyStep })
	case ActionOctavesUp:
		c.sb.Update(func(p *noise.Params) { p.Octaves++ })
	case ActionOctavesDown:
		c.sb.Update(func(p *noise.Params) { p.Octaves-- })
	case ActionToggleGrid:
		c.showGrid = !c.showGrid
	}
}

// Line is a segment in texture pixel coordinates.
type Line struct {
	X0, Y0, X1, Y1 float32
}

// GridLines returns the tile borders of g in the pixel space of a
// width×height texture.
func GridLines(g grid.Grid, width, height int) []Line {
	origin := g.TileEdgeToWorld(0)
	sx := float64(width) / g.WorldSize()
	sy := float64(height) / g.WorldSize()

	lines := make([]Line, 0, 2*(g.Size+1))
	g.Lines(func(x0, y0, x1, y1 float64) {
		lines = append(lines, Line{
			X0: float32((x0 - origin) * sx),
			Y0: float32((y0 - origin) * sy),
			X1: float32((x1 - origin) * sx),
			Y1: float32((y1 - origin) * sy),
		})
	})
	return lines
}
