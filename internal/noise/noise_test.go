package noise

import (
	"math"
	"math/rand"
	"testing"
)

// TestNoise1DDeterministic verifies Noise1D returns identical results for same inputs
func TestNoise1DDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 1000; i++ {
		x := rng.Intn(1<<20) - 1<<19
		seed := rng.Uint32()
		a := Noise1D(x, seed)
		b := Noise1D(x, seed)
		if a != b {
			t.Fatalf("Noise1D(%d, %d) not deterministic: %d != %d", x, seed, a, b)
		}
	}
}

// TestNoise1DDifferentInputs verifies neighbours and seeds decorrelate
func TestNoise1DDifferentInputs(t *testing.T) {
	if Noise1D(1, 42) == Noise1D(2, 42) {
		t.Errorf("Noise1D should differ for different x")
	}
	if Noise1D(1, 100) == Noise1D(1, 200) {
		t.Errorf("Noise1D should differ for different seed")
	}
}

// TestNoise1DDistribution checks the output covers the 32-bit range roughly uniformly
func TestNoise1DDistribution(t *testing.T) {
	const samples = 1 << 16
	var buckets [16]int
	for x := 0; x < samples; x++ {
		buckets[Noise1D(x, 7)>>28]++
	}
	expected := samples / len(buckets)
	for i, n := range buckets {
		if n < expected*8/10 || n > expected*12/10 {
			t.Errorf("bucket %d has %d samples, expected about %d", i, n, expected)
		}
	}
}

// TestHashKnownValues pins both hashes so generated terrain stays stable across releases
func TestHashKnownValues(t *testing.T) {
	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"Noise1D(0,0)", Noise1D(0, 0), 46947589},
		{"Noise1D(1,1234567)", Noise1D(1, 1234567), 2718124191},
		{"Squirrel3(0,0)", Squirrel3(0, 0), 436901570},
		{"Squirrel3(1,0)", Squirrel3(1, 0), 725778245},
		{"Squirrel3(-1,42)", Squirrel3(-1, 42), 2454880541},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

// TestNoise2DAxisSwap ensures the axes are not interchangeable
func TestNoise2DAxisSwap(t *testing.T) {
	const seed = 1234567
	a := Noise2D(3, 5, seed)
	b := Noise2D(5, 3, seed)
	if a == b {
		t.Errorf("Noise2D(3,5)=%d == Noise2D(5,3)=%d, expected different values", a, b)
	}
}

func TestNoise3DDifferentInputs(t *testing.T) {
	seed := uint32(42)
	if Noise3D(1, 2, 3, seed) == Noise3D(3, 2, 1, seed) {
		t.Errorf("Noise3D should differ for axis swap")
	}
	if Noise3D(0, 0, 1, seed) == Noise3D(0, 0, 2, seed) {
		t.Errorf("Noise3D should differ for different z")
	}
}

// TestNoise2DfRange verifies Noise2Df outputs are in [0,1]
func TestNoise2DfRange(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 1000; i++ {
		x := rng.Float64()*200 - 100
		z := rng.Float64()*200 - 100
		v := Noise2Df(x, z, 42)
		if v < 0 || v > 1 {
			t.Errorf("Noise2Df(%f, %f) = %f, expected in [0,1]", x, z, v)
		}
	}
}

// TestNoise2DfLattice checks that integer coordinates return the corner hash
func TestNoise2DfLattice(t *testing.T) {
	seed := uint32(99)
	for _, c := range [][2]int{{0, 0}, {-3, 7}, {12, -1}} {
		got := Noise2Df(float64(c[0]), float64(c[1]), seed)
		want := U32ToFloat(Noise2D(c[0], c[1], seed))
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Noise2Df at lattice %v = %f, want %f", c, got, want)
		}
	}
}

// TestNoise2DfContinuity samples pairs eps apart, including across lattice lines
func TestNoise2DfContinuity(t *testing.T) {
	const eps = 1e-4
	// |d/dx| <= 1.5 * 2 for smoothstep-blended corners in [0,1]
	const tolerance = 4 * eps
	seed := uint32(1234567)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		x := rng.Float64()*64 - 32
		z := rng.Float64()*64 - 32
		if i%10 == 0 {
			x = math.Floor(x) - eps/2 // straddle a lattice line
		}
		a := Noise2Df(x, z, seed)
		b := Noise2Df(x+eps, z, seed)
		if d := math.Abs(a - b); d > tolerance {
			t.Fatalf("Noise2Df not continuous at (%f,%f): diff %g > %g", x, z, d, tolerance)
		}
		c := Noise2Df(x, z+eps, seed)
		if d := math.Abs(a - c); d > tolerance {
			t.Fatalf("Noise2Df not continuous along z at (%f,%f): diff %g > %g", x, z, d, tolerance)
		}
	}
}

// TestFbm2DSingleOctave matches a plain scaled sample
func TestFbm2DSingleOctave(t *testing.T) {
	got := Fbm2D(5, 1.25, -0.5, 1.5, 1.2, 0.5, 0.5, 1)
	want := 0.5 * Noise2Df(1.25, -0.5, 5)
	if got != want {
		t.Errorf("Fbm2D with one octave = %f, want %f", got, want)
	}
}

// TestFbm2DOctaves recomputes the running coordinate recurrence by hand
func TestFbm2DOctaves(t *testing.T) {
	seed := uint32(1234567)
	x, z := 0.3, 2.7
	freq, lac, amp, gain := 1.5, 1.2, 0.5, 0.5

	want := 0.0
	sx, sz, f, a := x, z, freq, amp
	for i := 0; i < 6; i++ {
		want += Noise2Df(sx, sz, seed) * a
		sx *= f
		sz *= f
		f *= lac
		a *= gain
	}

	got := Fbm2D(seed, x, z, freq, lac, amp, gain, 6)
	if got != want {
		t.Errorf("Fbm2D = %f, want %f", got, want)
	}
	if Fbm2D(seed, x, z, freq, lac, amp, gain, 0) != 0 {
		t.Errorf("Fbm2D with zero octaves should be 0")
	}
}

func BenchmarkNoise2Df(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Noise2Df(float64(i)*0.37, float64(i)*0.11, 42)
	}
}

func BenchmarkFbm2D(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Fbm2D(42, float64(i%512)/512, float64(i/512%512)/512, 1.5, 1.2, 0.5, 0.5, 6)
	}
}
