package noise

import (
	"math"
	"math/rand"
)

// Parameter bounds. Setters clamp into these ranges instead of failing.
const (
	MinFrequency   = 0.001
	MaxFrequency   = 1.0
	MinOctaves     = 1
	MaxOctaves     = 8
	MinLacunarity  = 1.0
	MaxLacunarity  = 4.0
	MinPersistence = 0.0
	MaxPersistence = 1.0
)

// Defaults used when a sandbox starts without explicit configuration.
const (
	DefaultFrequency   = 0.01
	DefaultOctaves     = 4
	DefaultLacunarity  = 2.0
	DefaultPersistence = 0.5
)

// Params configures the fractal noise field.
type Params struct {
	Seed        uint32  `json:"seed"`
	Frequency   float64 `json:"frequency"`
	Octaves     int     `json:"octaves"`
	Lacunarity  float64 `json:"lacunarity"`
	Persistence float64 `json:"persistence"`
	// OffsetX and OffsetY pan the sampled region, in tile units.
	OffsetX int32 `json:"offset_x"`
	OffsetY int32 `json:"offset_y"`
	Basis   Basis `json:"basis"`
}

// DefaultParams returns the startup parameters with the given seed.
func DefaultParams(seed uint32) Params {
	return Params{
		Seed:        seed,
		Frequency:   DefaultFrequency,
		Octaves:     DefaultOctaves,
		Lacunarity:  DefaultLacunarity,
		Persistence: DefaultPersistence,
		Basis:       BasisPerlin,
	}
}

// RandomSeed draws a fresh seed for the "randomize" action.
func RandomSeed() uint32 {
	return rand.Uint32()
}

// Clamped returns a copy of p with every field forced into its valid range.
func (p Params) Clamped() Params {
	p.Frequency = ClampFrequency(p.Frequency)
	p.Octaves = ClampOctaves(p.Octaves)
	p.Lacunarity = ClampLacunarity(p.Lacunarity)
	p.Persistence = ClampPersistence(p.Persistence)
	p.Basis = ParseBasis(string(p.Basis))
	return p
}

// ClampFrequency keeps frequency strictly positive and bounded.
func ClampFrequency(f float64) float64 {
	return clampFloat(f, MinFrequency, MaxFrequency, DefaultFrequency)
}

// ClampOctaves keeps the octave count within [MinOctaves, MaxOctaves].
func ClampOctaves(n int) int {
	if n < MinOctaves {
		return MinOctaves
	}
	if n > MaxOctaves {
		return MaxOctaves
	}
	return n
}

// ClampLacunarity keeps lacunarity within [MinLacunarity, MaxLacunarity].
func ClampLacunarity(l float64) float64 {
	return clampFloat(l, MinLacunarity, MaxLacunarity, DefaultLacunarity)
}

// ClampPersistence keeps persistence within [MinPersistence, MaxPersistence].
func ClampPersistence(p float64) float64 {
	return clampFloat(p, MinPersistence, MaxPersistence, DefaultPersistence)
}

func clampFloat(x, lo, hi, fallback float64) float64 {
	if math.IsNaN(x) {
		return fallback
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
