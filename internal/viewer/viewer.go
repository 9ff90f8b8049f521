//go:build ebiten

package viewer

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/MeKo-Tech/noisesandbox/internal/doublebuffer"
	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var keymap = map[ebiten.Key]Action{
	ebiten.KeySpace:          ActionRandomizeSeed,
	ebiten.KeyArrowLeft:      ActionPanLeft,
	ebiten.KeyArrowRight:     ActionPanRight,
	ebiten.KeyArrowUp:        ActionPanUp,
	ebiten.KeyArrowDown:      ActionPanDown,
	ebiten.KeyEqual:          ActionFrequencyUp,
	ebiten.KeyNumpadAdd:      ActionFrequencyUp,
	ebiten.KeyMinus:          ActionFrequencyDown,
	ebiten.KeyNumpadSubtract: ActionFrequencyDown,
	ebiten.KeyBracketRight:   ActionOctavesUp,
	ebiten.KeyBracketLeft:    ActionOctavesDown,
	ebiten.KeyG:              ActionToggleGrid,
}

var gridColor = color.RGBA{R: 255, G: 64, B: 64, A: 160}

// Game adapts a sandbox to the ebiten.Game interface. Update runs one sandbox
// cycle per frame; Draw uploads the active buffer only when it changed.
type Game struct {
	sb    *sandbox.Sandbox
	ctrl  *Controller
	img   *ebiten.Image
	lines []Line
	w, h  int

	active   doublebuffer.Handle
	uploaded uint64
}

// New constructs a Game for a started sandbox.
func New(sb *sandbox.Sandbox) *Game {
	w, h := sb.Buffers().Size()
	g := &Game{
		sb:    sb,
		ctrl:  NewController(sb),
		img:   ebiten.NewImage(w, h),
		lines: GridLines(sb.Mapper().Grid(), w, h),
		w:     w,
		h:     h,
	}
	sb.Register(g)
	return g
}

// SetActive records the newly active buffer. It is called from Update, on
// the same goroutine as Draw.
func (g *Game) SetActive(h doublebuffer.Handle) {
	g.active = h
}

// Update handles input and advances the sandbox by one cycle.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	for key, action := range keymap {
		if inpututil.IsKeyJustPressed(key) {
			g.ctrl.Handle(action)
		}
	}

	g.sb.Tick(context.Background())
	return nil
}

// Draw renders the active texture and the optional grid overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.active.Generation != g.uploaded {
		if buf := g.active.Buffer(); buf != nil {
			g.img.WritePixels(buf.Pix())
			g.uploaded = g.active.Generation
		}
	}

	screen.DrawImage(g.img, &ebiten.DrawImageOptions{})

	if g.ctrl.ShowGrid() {
		for _, l := range g.lines {
			vector.StrokeLine(screen, l.X0, l.Y0, l.X1, l.Y1, 1, gridColor, false)
		}
	}
}

// Layout uses the texture as the logical screen; ebiten scales it to the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w, g.h
}

// Run opens a window and blocks until it is closed.
func Run(sb *sandbox.Sandbox, opts Options) error {
	if !sb.ActiveBuffer().Valid() {
		return fmt.Errorf("sandbox must be started before opening the viewer")
	}

	opts = opts.withDefaults()
	ebiten.SetWindowTitle(fmt.Sprintf("%s (seed %d)", opts.Title, sb.Params().Seed))
	ebiten.SetWindowSize(opts.WindowWidth, opts.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenFilterEnabled(false)
	ebiten.SetTPS(opts.TPS)

	if err := ebiten.RunGame(New(sb)); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
