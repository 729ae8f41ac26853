package terrain

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraFromView(t *testing.T) {
	eye := mgl32.Vec3{100.02, 30, -70.01}
	view := mgl32.LookAtV(eye, eye.Add(mgl32.Vec3{0, 0, -1}), mgl32.Vec3{0, 1, 0})
	pos, fwd := cameraFromView(view)

	want := mgl32.Vec3{100, 30, -70}
	for i := range pos {
		if math.Abs(float64(pos[i]-want[i])) > 1e-3 {
			t.Errorf("position %v, want %v", pos, want)
			break
		}
	}
	if !fwd.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("forward %v, want (0,0,-1)", fwd)
	}
}

func TestSnap(t *testing.T) {
	tests := []struct{ in, want float32 }{
		{0.02, 0},
		{0.03, 0.05},
		{-0.07, -0.05},
		{511.99, 512},
	}
	for _, tt := range tests {
		got := snap(mgl32.Vec3{tt.in, 0, 0}).X()
		if math.Abs(float64(got-tt.want)) > 1e-4 {
			t.Errorf("snap(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestNegativePatchCoord(t *testing.T) {
	w := newInlineWorld(t, &eventLog{}, nil)
	tests := []struct {
		x, z   float32
		px, pz int
	}{
		{0, 0, 0, 0},
		{-0.05, 0, -1, 0},
		{-512, -513, -1, -2},
		{1024, 511.9, 2, 0},
	}
	for _, tt := range tests {
		px, pz := w.WorldToPatchCoord(mgl32.Vec3{tt.x, 0, tt.z}, 0)
		if px != tt.px || pz != tt.pz {
			t.Errorf("WorldToPatchCoord(%g,%g) = (%d,%d), want (%d,%d)", tt.x, tt.z, px, pz, tt.px, tt.pz)
		}
	}
}
