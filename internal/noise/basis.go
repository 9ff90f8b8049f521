package noise

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Basis names the single-octave primitive the fractal sum is built from.
type Basis string

const (
	BasisPerlin  Basis = "perlin"
	BasisSimplex Basis = "simplex"
)

// ParseBasis maps a configuration string to a Basis.
// Unknown or empty names select Perlin.
func ParseBasis(s string) Basis {
	switch Basis(strings.ToLower(strings.TrimSpace(s))) {
	case BasisSimplex:
		return BasisSimplex
	default:
		return BasisPerlin
	}
}

// LookupBasis is the strict form of ParseBasis used for user input.
// An empty name selects Perlin.
func LookupBasis(s string) (Basis, error) {
	switch b := Basis(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BasisPerlin:
		return BasisPerlin, nil
	case BasisSimplex:
		return BasisSimplex, nil
	default:
		return BasisPerlin, fmt.Errorf("unknown noise basis %q (perlin, simplex)", s)
	}
}

// primitive is a seeded 2D gradient noise returning values roughly in [-1,1].
type primitive interface {
	Eval2(x, y float64) float64
}

// perlinPrimitive samples a single go-perlin octave. The fractal sum is done by
// Field so octave count, persistence and lacunarity stay under our control.
type perlinPrimitive struct {
	p *perlin.Perlin
}

// perlinPeriod is the lattice period of go-perlin's permutation table.
const perlinPeriod = 256

// Eval2 wraps the coordinates into one lattice period first. go-perlin offsets
// by 4096 and truncates, which breaks down for coordinates below -4096.
func (p perlinPrimitive) Eval2(x, y float64) float64 {
	return p.p.Noise2D(wrapPeriod(x), wrapPeriod(y))
}

func wrapPeriod(v float64) float64 {
	v = math.Mod(v, perlinPeriod)
	if v < 0 {
		v += perlinPeriod
	}
	return v
}

func newPrimitive(seed uint32, basis Basis) primitive {
	switch basis {
	case BasisSimplex:
		return opensimplex.New(int64(seed))
	default:
		// alpha and beta only matter across octaves; with n=1 Noise2D is the raw lattice noise.
		return perlinPrimitive{p: perlin.NewPerlin(2.0, 2.0, 1, int64(seed))}
	}
}
