package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFrustumPlanes(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	planes := extractFrustumPlanes(proj.Mul4(view))

	inside := mgl32.Vec3{0, 0, -10}
	for i, p := range planes {
		if d := p.Distance(inside); d <= 0 {
			t.Errorf("plane %d: point in front of the camera is outside (%f)", i, d)
		}
		n := mgl32.Vec3{p.A, p.B, p.C}
		if l := n.Len(); l < 0.999 || l > 1.001 {
			t.Errorf("plane %d normal not unit length: %f", i, l)
		}
	}
	if d := planes[PlaneNear].Distance(mgl32.Vec3{0, 0, 5}); d >= 0 {
		t.Errorf("point behind the camera should be outside the near plane")
	}
	if d := planes[PlaneFar].Distance(mgl32.Vec3{0, 0, -200}); d >= 0 {
		t.Errorf("point past the far plane should be outside")
	}
	if d := planes[PlaneLeft].Distance(mgl32.Vec3{-50, 0, -10}); d >= 0 {
		t.Errorf("point far left should be outside the left plane")
	}
}

func TestWorldFrustumFollowsUpdate(t *testing.T) {
	log := &eventLog{}
	w := newInlineWorld(t, log, nil)
	before := w.FrustumPlanes()

	proj := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9, 0.1, 2000)
	view := mgl32.LookAtV(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 10, 0}, mgl32.Vec3{0, 1, 0})
	if err := w.Update(UpdateParams{View: view, Proj: proj}); err != nil {
		t.Fatal(err)
	}
	after := w.FrustumPlanes()
	if pos, fwd := w.Camera(); pos != (mgl32.Vec3{0, 10, 0}) || !fwd.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("camera = %v facing %v, want (0,10,0) facing +X", pos, fwd)
	}
	if before == after {
		t.Errorf("planes did not change after turning the camera")
	}
	if d := after[PlaneNear].Distance(mgl32.Vec3{50, 10, 0}); d <= 0 {
		t.Errorf("point ahead on +X should be in front of the near plane")
	}
}

func TestNormalizeZeroPlane(t *testing.T) {
	if p := planeFrom(mgl32.Vec4{}); p != (Plane{}) {
		t.Errorf("zero plane changed: %v", p)
	}
}
