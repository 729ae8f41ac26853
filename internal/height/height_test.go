package height

import (
	"math/rand"
	"testing"

	"terrainstream/internal/noise"
)

func TestFBMMatchesNoise(t *testing.T) {
	p := DefaultFBMParams()
	src := NewFBM(1234567, p)
	got := src.Height(-0.25, 1.75)
	want := noise.Fbm2D(1234567, -0.25, 1.75, p.Frequency, p.Lacunarity, p.Amplitude, p.Gain, p.Octaves)
	if got != want {
		t.Errorf("FBM.Height = %f, want %f", got, want)
	}
}

func TestDefaultFBMParams(t *testing.T) {
	p := DefaultFBMParams()
	if p.Octaves != 6 {
		t.Errorf("expected 6 octaves, got %d", p.Octaves)
	}
	if p.Frequency != 1.5 || p.Lacunarity != 1.2 {
		t.Errorf("expected frequency 1.5 lacunarity 1.2, got %f %f", p.Frequency, p.Lacunarity)
	}
	if p.Amplitude != 0.5 || p.Gain != 0.5 {
		t.Errorf("expected amplitude 0.5 gain 0.5, got %f %f", p.Amplitude, p.Gain)
	}
}

func TestNewByName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"fbm", false},
		{"simplex", false},
		{"perlin", false},
		{"file", true},
		{"bogus", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.name, 42)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) failed: %v", tt.name, err)
			}
			if src == nil {
				t.Fatalf("New(%q) returned nil source", tt.name)
			}
		})
	}
}

// TestSourcesDeterministic verifies two sources with the same seed agree
func TestSourcesDeterministic(t *testing.T) {
	for _, name := range []string{"fbm", "simplex", "perlin"} {
		a, _ := New(name, 77)
		b, _ := New(name, 77)
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 100; i++ {
			x := rng.Float64()*10 - 5
			z := rng.Float64()*10 - 5
			if a.Height(x, z) != b.Height(x, z) {
				t.Fatalf("%s source not deterministic at (%f,%f)", name, x, z)
			}
		}
	}
}

func TestSimplexRange(t *testing.T) {
	src := NewSimplex(5, 1.5)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		v := src.Height(rng.Float64()*100, rng.Float64()*100)
		if v < 0 || v > 1 {
			t.Fatalf("simplex height %f out of [0,1]", v)
		}
	}
}

func TestFlat(t *testing.T) {
	var src Source = Flat(0.25)
	if h := src.Height(100, -3); h != 0.25 {
		t.Errorf("expected 0.25, got %f", h)
	}
}
