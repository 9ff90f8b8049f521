// Package sandbox wires noise parameters, the regeneration trigger and the
// double-buffered texture into the per-frame API used by input and display
// collaborators.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/noisesandbox/internal/doublebuffer"
	"github.com/MeKo-Tech/noisesandbox/internal/grid"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/texture"
	"github.com/MeKo-Tech/noisesandbox/internal/trigger"
)

// Config configures a sandbox.
type Config struct {
	Grid grid.Grid

	// TextureWidth and TextureHeight default to the grid's texture size.
	TextureWidth  int
	TextureHeight int
	PanSpeed      float64

	// Workers is the regeneration parallelism; 0 uses one per CPU.
	Workers int

	// Params left at the zero value select the defaults with a random seed.
	Params noise.Params
}

// DefaultConfig returns the startup configuration with a random seed.
func DefaultConfig() Config {
	return Config{
		Grid:     grid.Default(),
		PanSpeed: grid.DefaultPanSpeed,
		Params:   noise.DefaultParams(noise.RandomSeed()),
	}
}

// Stats is a point-in-time summary for status displays.
type Stats struct {
	Cycles        uint64       `json:"cycles"`
	Regenerations uint64       `json:"regenerations"`
	Swaps         uint64       `json:"swaps"`
	Missed        uint64       `json:"missed"`
	Requested     uint64       `json:"requested"`
	Coalesced     uint64       `json:"coalesced"`
	Pending       bool         `json:"pending"`
	ActiveIndex   int          `json:"active_index"`
	Generation    uint64       `json:"generation"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Params        noise.Params `json:"params"`
}

// Sandbox owns the noise parameters and the double-buffered texture.
// Parameter setters may be called from any goroutine; Start and Tick are
// meant to be driven by a single frame loop.
type Sandbox struct {
	mu     sync.Mutex
	params noise.Params

	trigger trigger.Trigger
	regen   *texture.Regenerator
	swapper *doublebuffer.Swapper
	logger  *slog.Logger

	cycles atomic.Uint64
}

// New allocates both texture buffers. Call Start before the first display read.
func New(cfg Config, logger *slog.Logger) (*Sandbox, error) {
	if cfg.Grid == (grid.Grid{}) {
		cfg.Grid = grid.Default()
	}
	if cfg.TextureWidth <= 0 || cfg.TextureHeight <= 0 {
		cfg.TextureWidth, cfg.TextureHeight = cfg.Grid.TextureSize()
	}
	if cfg.PanSpeed == 0 {
		cfg.PanSpeed = grid.DefaultPanSpeed
	}
	if cfg.Params == (noise.Params{}) {
		cfg.Params = noise.DefaultParams(noise.RandomSeed())
	}

	mapper, err := grid.NewMapper(cfg.Grid, cfg.TextureWidth, cfg.TextureHeight, cfg.PanSpeed)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinate mapper: %w", err)
	}

	buffers, err := doublebuffer.Allocate(cfg.TextureWidth, cfg.TextureHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate texture buffers: %w", err)
	}

	regen := texture.NewRegenerator(mapper, cfg.Workers, logger)

	return &Sandbox{
		params:  cfg.Params.Clamped(),
		regen:   regen,
		swapper: doublebuffer.NewSwapper(buffers, regen, logger),
		logger:  logger,
	}, nil
}

// Start runs the initial generation of both buffers and publishes the first
// active buffer. Requests raised before Start are folded into it.
func (s *Sandbox) Start(ctx context.Context) (doublebuffer.Handle, error) {
	s.trigger.Consume()
	return s.swapper.InitialGeneration(ctx, s.Params())
}

// Tick runs one update cycle: the trigger is checked and cleared once, and
// at most one regeneration and swap happens.
func (s *Sandbox) Tick(ctx context.Context) (doublebuffer.Handle, bool) {
	s.cycles.Add(1)
	pending := s.trigger.Consume()
	return s.swapper.OnTrigger(ctx, pending, s.Params())
}

// ActiveBuffer returns the handle of the display-ready buffer.
func (s *Sandbox) ActiveBuffer() doublebuffer.Handle {
	return s.swapper.Active()
}

// RequestRegeneration asks for a regeneration on the next Tick. Idempotent within a cycle.
func (s *Sandbox) RequestRegeneration() {
	s.trigger.Request()
}

// Register adds a display consumer notified on every swap.
func (s *Sandbox) Register(c doublebuffer.Consumer) {
	s.swapper.Register(c)
}

// Buffers returns the double buffer, mainly for collaborators that own the
// texture lifetime.
func (s *Sandbox) Buffers() *doublebuffer.DoubleBuffer {
	return s.swapper.Buffers()
}

// Mapper returns the coordinate mapper the textures are sampled through.
func (s *Sandbox) Mapper() grid.Mapper {
	return s.regen.Mapper()
}

// Params returns a copy of the current parameters.
func (s *Sandbox) Params() noise.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Update applies fn to the parameters, clamps the result and requests a
// regeneration if anything changed. It returns the stored parameters.
func (s *Sandbox) Update(fn func(p *noise.Params)) noise.Params {
	s.mu.Lock()
	before := s.params
	next := before
	fn(&next)
	clamped := next.Clamped()
	s.params = clamped
	s.mu.Unlock()

	if clamped != next {
		s.log().Debug("Clamped out-of-range noise parameters", "requested", fmt.Sprintf("%+v", next), "stored", fmt.Sprintf("%+v", clamped))
	}
	if clamped != before {
		s.RequestRegeneration()
	}
	return clamped
}

// SetSeed sets the permutation seed.
func (s *Sandbox) SetSeed(seed uint32) noise.Params {
	return s.Update(func(p *noise.Params) { p.Seed = seed })
}

// RandomizeSeed picks a new random seed. It always requests a regeneration.
func (s *Sandbox) RandomizeSeed() noise.Params {
	p := s.SetSeed(noise.RandomSeed())
	s.RequestRegeneration()
	return p
}

// SetFrequency sets the base frequency, clamped to its valid range.
func (s *Sandbox) SetFrequency(f float64) noise.Params {
	return s.Update(func(p *noise.Params) { p.Frequency = f })
}

// SetOctaves sets the octave count, clamped to its valid range.
func (s *Sandbox) SetOctaves(n int) noise.Params {
	return s.Update(func(p *noise.Params) { p.Octaves = n })
}

// SetLacunarity sets the per-octave frequency multiplier.
func (s *Sandbox) SetLacunarity(l float64) noise.Params {
	return s.Update(func(p *noise.Params) { p.Lacunarity = l })
}

// SetPersistence sets the per-octave amplitude multiplier.
func (s *Sandbox) SetPersistence(v float64) noise.Params {
	return s.Update(func(p *noise.Params) { p.Persistence = v })
}

// SetOffset sets the absolute pan offset in tiles.
func (s *Sandbox) SetOffset(x, y int32) noise.Params {
	return s.Update(func(p *noise.Params) {
		p.OffsetX = x
		p.OffsetY = y
	})
}

// Pan moves the pan offset by (dx, dy) tiles. Offsets saturate at the int32
// limits instead of wrapping to the far side of the field.
func (s *Sandbox) Pan(dx, dy int32) noise.Params {
	return s.Update(func(p *noise.Params) {
		p.OffsetX = addSaturated(p.OffsetX, dx)
		p.OffsetY = addSaturated(p.OffsetY, dy)
	})
}

func addSaturated(a, b int32) int32 {
	sum := int64(a) + int64(b)
	if sum > math.MaxInt32 {
		return math.MaxInt32
	}
	if sum < math.MinInt32 {
		return math.MinInt32
	}
	return int32(sum)
}

// SetBasis selects the noise primitive.
func (s *Sandbox) SetBasis(b noise.Basis) noise.Params {
	return s.Update(func(p *noise.Params) { p.Basis = b })
}

// Stats returns counters describing the sandbox.
func (s *Sandbox) Stats() Stats {
	requested, coalesced := s.trigger.Stats()
	active := s.ActiveBuffer()
	w, h := s.Buffers().Size()
	return Stats{
		Cycles:        s.cycles.Load(),
		Regenerations: s.regen.Regenerations(),
		Swaps:         s.swapper.Swaps(),
		Missed:        s.swapper.Missed(),
		Requested:     requested,
		Coalesced:     coalesced,
		Pending:       s.trigger.Pending(),
		ActiveIndex:   active.Index,
		Generation:    active.Generation,
		Width:         w,
		Height:        h,
		Params:        s.Params(),
	}
}

func (s *Sandbox) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
