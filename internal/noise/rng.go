package noise

import "math"

// Rng is a noise based random stream: each draw hashes the cursor position.
// Two streams with the same seed produce the same sequence.
type Rng struct {
	Seed     uint32
	Position int
}

// NewRng returns a stream positioned at 0.
func NewRng(seed uint32) *Rng {
	return &Rng{Seed: seed}
}

// Uint32 returns the next value and advances the cursor.
func (r *Rng) Uint32() uint32 {
	v := Noise1D(r.Position, r.Seed)
	r.Position++
	return v
}

// Int64 combines two draws.
func (r *Rng) Int64() int64 {
	hi := uint64(r.Uint32())
	lo := uint64(r.Uint32())
	return int64(hi<<32 | lo)
}

// Float01 returns the next value in [0,1].
func (r *Rng) Float01() float64 {
	return U32ToFloat(r.Uint32())
}

// Range returns the next value in [min,max].
func (r *Rng) Range(min, max float64) float64 {
	return min + (max-min)*r.Float01()
}

// U32ToFloat maps the full uint32 range onto [0,1].
func U32ToFloat(u uint32) float64 {
	return float64(u) / float64(math.MaxUint32)
}
