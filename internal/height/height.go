// Package height provides the height functions patches are sampled from.
package height

import (
	"fmt"

	"terrainstream/internal/noise"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Source maps a position in patch-grid units to a height, nominally [0,1].
// Callers clamp. Implementations must be safe for use from one goroutine at a
// time and must be deterministic.
type Source interface {
	Height(x, z float64) float64
}

// FBMParams are the octave settings for the default source.
type FBMParams struct {
	Octaves    int
	Frequency  float64
	Lacunarity float64
	Amplitude  float64
	Gain       float64
}

// DefaultFBMParams returns the generation parameters used for streamed patches.
func DefaultFBMParams() FBMParams {
	return FBMParams{
		Octaves:    6,
		Frequency:  1.5,
		Lacunarity: 1.2,
		Amplitude:  0.5,
		Gain:       0.5,
	}
}

// FBM samples fractal value noise.
type FBM struct {
	seed   uint32
	params FBMParams
}

// NewFBM creates an FBM source.
func NewFBM(seed uint32, params FBMParams) *FBM {
	return &FBM{seed: seed, params: params}
}

// Height implements Source.
func (f *FBM) Height(x, z float64) float64 {
	p := f.params
	return noise.Fbm2D(f.seed, x, z, p.Frequency, p.Lacunarity, p.Amplitude, p.Gain, p.Octaves)
}

// Simplex samples normalized OpenSimplex noise.
type Simplex struct {
	noise opensimplex.Noise
	scale float64
}

// NewSimplex creates a simplex source. The 32-bit seed is widened through the
// noise RNG so nearby seeds give unrelated fields.
func NewSimplex(seed uint32, scale float64) *Simplex {
	return &Simplex{
		noise: opensimplex.NewNormalized(noise.NewRng(seed).Int64()),
		scale: scale,
	}
}

// Height implements Source.
func (s *Simplex) Height(x, z float64) float64 {
	return s.noise.Eval2(x*s.scale, z*s.scale)
}

// Perlin samples classic Perlin noise remapped from [-1,1] to [0,1].
type Perlin struct {
	noise *perlin.Perlin
	scale float64
}

// NewPerlin creates a perlin source with 4 octaves.
func NewPerlin(seed uint32, scale float64) *Perlin {
	return &Perlin{
		noise: perlin.NewPerlin(2, 2, 4, noise.NewRng(seed).Int64()),
		scale: scale,
	}
}

// Height implements Source.
func (p *Perlin) Height(x, z float64) float64 {
	return p.noise.Noise2D(x*p.scale, z*p.scale)*0.5 + 0.5
}

// Flat returns the same height everywhere.
type Flat float64

// Height implements Source.
func (f Flat) Height(x, z float64) float64 {
	return float64(f)
}

// New selects a procedural source by name. "file" sources are opened by the
// loader package and are not known here.
func New(name string, seed uint32) (Source, error) {
	switch name {
	case "", "fbm":
		return NewFBM(seed, DefaultFBMParams()), nil
	case "simplex":
		return NewSimplex(seed, 1.5), nil
	case "perlin":
		return NewPerlin(seed, 1.5), nil
	default:
		return nil, fmt.Errorf("unknown height source %q", name)
	}
}
