package noise

import (
	"math"
)

// Deterministic lattice noise built on integer hashing.
// All arithmetic wraps at 32 bits so results are stable across platforms.

// xxHash32 primes
const (
	prime32_1 uint32 = 2654435761
	prime32_2 uint32 = 2246822519
	prime32_3 uint32 = 3266489917
	prime32_4 uint32 = 668265263
	prime32_5 uint32 = 374761393
)

// hash32 is the xxHash32 avalanche applied to a single lane.
func hash32(v uint32, seed uint32) uint32 {
	h := v + prime32_5
	h += seed
	h ^= h >> 15
	h *= prime32_2
	h ^= h >> 13
	h *= prime32_3
	h ^= h >> 16
	return h
}

// Squirrel3 is an alternate lattice hash with cheaper mixing than hash32.
func Squirrel3(x int, seed uint32) uint32 {
	const (
		bitNoise1 uint32 = 0xB5297A4D
		bitNoise2 uint32 = 0x68E31DA4
		bitNoise3 uint32 = 0x1B56C4E9
	)
	h := uint32(x)
	h *= bitNoise1
	h += seed
	h ^= h >> 8
	h += bitNoise2
	h ^= h << 8
	h *= bitNoise3
	h ^= h >> 8
	return h
}

// Noise1D returns a pseudo-random 32-bit value for lattice position x.
func Noise1D(x int, seed uint32) uint32 {
	return hash32(uint32(x), seed)
}

// Noise2D folds z into x with a large odd prime before hashing.
// The fold is not symmetric: Noise2D(a, b) != Noise2D(b, a) in general.
func Noise2D(x, z int, seed uint32) uint32 {
	return hash32(uint32(x)+prime32_4*uint32(z), seed)
}

// Noise3D folds y and z into x the same way Noise2D does.
func Noise3D(x, y, z int, seed uint32) uint32 {
	return hash32(uint32(x)+prime32_4*uint32(y)+prime32_1*uint32(z), seed)
}

func mix(a, b, t float64) float64 {
	return a + (b-a)*t
}

// smoothstep easing 3t^2 - 2t^3
func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// Noise2Df is C1 continuous value noise in [0,1]. The four lattice corners
// around (x, z) are blended with a smoothstep curve on each axis.
func Noise2Df(x, z float64, seed uint32) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	xi, zi := int(x0), int(z0)

	tx := smoothstep(x - x0)
	tz := smoothstep(z - z0)

	h0 := U32ToFloat(Noise2D(xi, zi, seed))
	h1 := U32ToFloat(Noise2D(xi+1, zi, seed))
	h2 := U32ToFloat(Noise2D(xi, zi+1, seed))
	h3 := U32ToFloat(Noise2D(xi+1, zi+1, seed))

	return mix(h0, h1, tx) + (h2-h0)*tz*(1-tx) + (h3-h1)*tx*tz
}

// Fbm2D sums octaves of Noise2Df. Each octave samples at the running
// coordinates, then scales them by frequency (which grows by lacunarity) and
// scales the amplitude by gain. The sum is not normalized.
func Fbm2D(seed uint32, x, z, frequency, lacunarity, amplitude, gain float64, octaves int) float64 {
	sum := 0.0
	for range octaves {
		sum += Noise2Df(x, z, seed) * amplitude
		x *= frequency
		z *= frequency
		frequency *= lacunarity
		amplitude *= gain
	}
	return sum
}
