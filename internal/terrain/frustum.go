package terrain

import "github.com/go-gl/mathgl/mgl32"

// Plane is ax + by + cz + d = 0 with a unit normal pointing into the frustum.
type Plane struct {
	A, B, C, D float32
}

// Distance returns the signed distance from v to the plane.
func (p Plane) Distance(v mgl32.Vec3) float32 {
	return p.A*v.X() + p.B*v.Y() + p.C*v.Z() + p.D
}

// Frustum plane order.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// extractFrustumPlanes builds six planes from the combined projection*view
// matrix. A clip-space point is inside when -w <= x,y,z <= w, so each plane
// is the w row plus or minus one of the x, y, z rows.
func extractFrustumPlanes(clip mgl32.Mat4) [6]Plane {
	rw := clip.Row(3)
	var pl [6]Plane
	for axis := 0; axis < 3; axis++ {
		r := clip.Row(axis)
		pl[2*axis] = planeFrom(rw.Add(r))
		pl[2*axis+1] = planeFrom(rw.Sub(r))
	}
	return pl
}

// planeFrom scales v so the plane normal has unit length. A degenerate row
// is returned unscaled.
func planeFrom(v mgl32.Vec4) Plane {
	if l := v.Vec3().Len(); l != 0 {
		v = v.Mul(1 / l)
	}
	return Plane{v[0], v[1], v[2], v[3]}
}

// FrustumPlanes returns the planes of the last camera passed to Create or Update.
// Nothing is culled against them yet.
func (w *World) FrustumPlanes() [6]Plane {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.planes
}
