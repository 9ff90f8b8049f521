package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/noisesandbox/internal/grid"
	"github.com/MeKo-Tech/noisesandbox/internal/noise"
	"github.com/MeKo-Tech/noisesandbox/internal/sandbox"
	"github.com/spf13/viper"
)

// NOISESANDBOX_NOISE_FREQUENCY maps to noise.frequency.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// sandboxConfig builds a sandbox configuration from the bound flags,
// config file and environment.
func sandboxConfig(v *viper.Viper) (sandbox.Config, error) {
	g, err := grid.New(v.GetInt("grid.size"), v.GetFloat64("grid.tile_size"))
	if err != nil {
		return sandbox.Config{}, err
	}

	panSpeed := v.GetFloat64("grid.pan_speed")
	if panSpeed <= 0 || math.IsNaN(panSpeed) {
		return sandbox.Config{}, fmt.Errorf("pan speed must be positive, got %g", panSpeed)
	}

	seed, err := parseSeed(v.GetInt64("noise.seed"))
	if err != nil {
		return sandbox.Config{}, err
	}

	basis, err := noise.LookupBasis(v.GetString("noise.basis"))
	if err != nil {
		return sandbox.Config{}, err
	}

	p := noise.Params{
		Seed:        seed,
		Frequency:   v.GetFloat64("noise.frequency"),
		Octaves:     v.GetInt("noise.octaves"),
		Lacunarity:  v.GetFloat64("noise.lacunarity"),
		Persistence: v.GetFloat64("noise.persistence"),
		OffsetX:     v.GetInt32("noise.offset_x"),
		OffsetY:     v.GetInt32("noise.offset_y"),
		Basis:       basis,
	}

	return sandbox.Config{
		Grid:     g,
		PanSpeed: panSpeed,
		Workers:  v.GetInt("noise.workers"),
		Params:   p,
	}, nil
}

// parseSeed maps a flag value to a seed; negative values pick a random one.
func parseSeed(v int64) (uint32, error) {
	if v < 0 {
		return noise.RandomSeed(), nil
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("seed %d does not fit in 32 bits", v)
	}
	return uint32(v), nil
}

// parseSize parses "WxH" into positive dimensions.
func parseSize(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("size must be WxH, got %q", s)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size must be positive, got %q", s)
	}
	return w, h, nil
}
