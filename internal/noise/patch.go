package noise

// Patch is a partial update of Params decoded from JSON; nil fields are left
// unchanged.
type Patch struct {
	Seed        *uint32  `json:"seed"`
	Frequency   *float64 `json:"frequency"`
	Octaves     *int     `json:"octaves"`
	Lacunarity  *float64 `json:"lacunarity"`
	Persistence *float64 `json:"persistence"`
	OffsetX     *int32   `json:"offset_x"`
	OffsetY     *int32   `json:"offset_y"`
	Basis       *string  `json:"basis"`
}

// Apply writes the set fields into p without clamping.
func (pp Patch) Apply(p *Params) {
	if pp.Seed != nil {
		p.Seed = *pp.Seed
	}
	if pp.Frequency != nil {
		p.Frequency = *pp.Frequency
	}
	if pp.Octaves != nil {
		p.Octaves = *pp.Octaves
	}
	if pp.Lacunarity != nil {
		p.Lacunarity = *pp.Lacunarity
	}
	if pp.Persistence != nil {
		p.Persistence = *pp.Persistence
	}
	if pp.OffsetX != nil {
		p.OffsetX = *pp.OffsetX
	}
	if pp.OffsetY != nil {
		p.OffsetY = *pp.OffsetY
	}
	if pp.Basis != nil {
		p.Basis = ParseBasis(*pp.Basis)
	}
}
