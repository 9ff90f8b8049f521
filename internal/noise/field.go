// Package noise computes fractal Brownian motion over a seeded gradient noise.
package noise

// Field is a seeded fBm noise field. Build one per seed and reuse it for every
// sample of a regeneration pass; construction shuffles the permutation table.
type Field struct {
	seed  uint32
	basis Basis
	prim  primitive
}

// NewField creates the noise field for seed using the given basis.
func NewField(seed uint32, basis Basis) *Field {
	basis = ParseBasis(string(basis))
	return &Field{
		seed:  seed,
		basis: basis,
		prim:  newPrimitive(seed, basis),
	}
}

// Seed returns the seed the permutation table was built from.
func (f *Field) Seed() uint32 { return f.seed }

// Basis returns the primitive the field sums.
func (f *Field) Basis() Basis { return f.basis }

// Matches reports whether f was built for the seed and basis of p.
func (f *Field) Matches(p Params) bool {
	return f.seed == p.Seed && f.basis == ParseBasis(string(p.Basis))
}

// Sample returns the fractal noise value at (nx, ny) in [0,1].
// Coordinates are expected to already carry the base frequency; octaves
// multiply it further by lacunarity. Zero octaves yields a flat 0.5.
func (f *Field) Sample(nx, ny float64, p Params) float64 {
	value := 0.0
	amplitude := 1.0
	frequency := 1.0
	for i := 0; i < p.Octaves; i++ {
		value += f.prim.Eval2(nx*frequency, ny*frequency) * amplitude
		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}
	// Map [-1,1] to [0,1]; a large persistence can push the sum past the
	// primitive's range, which saturates like an 8-bit channel would.
	return clamp01((value + 1) / 2)
}
