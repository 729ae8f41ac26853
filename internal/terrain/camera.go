package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// cameraSnap is the grid camera positions are rounded to, so float jitter in
// the view matrix does not flip the anchor back and forth.
const cameraSnap = 0.05

// cameraFromView returns the camera position and forward direction encoded
// in a view matrix.
func cameraFromView(view mgl32.Mat4) (pos, forward mgl32.Vec3) {
	inv := view.Inv()
	pos = snap(inv.Col(3).Vec3())
	forward = inv.Col(2).Vec3().Mul(-1)
	if l := forward.Len(); l > 0 {
		forward = forward.Mul(1 / l)
	}
	return pos, forward
}

func snap(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		v[i] = float32(math.Round(float64(v[i])/cameraSnap) * cameraSnap)
	}
	return v
}

// PatchSize returns the world edge length of a patch at lod.
func (w *World) PatchSize(lod int) float32 {
	return w.sizes[lod]
}

// LODLevels returns the number of grids.
func (w *World) LODLevels() int {
	return len(w.sizes)
}

// WorldToPatchCoord returns the grid coordinate containing pos.
func (w *World) WorldToPatchCoord(pos mgl32.Vec3, lod int) (x, z int) {
	size := float64(w.sizes[lod])
	x = int(math.Floor(float64(pos.X()) / size))
	z = int(math.Floor(float64(pos.Z()) / size))
	return x, z
}

// PatchToWorldCoord returns the world position of a patch origin.
func (w *World) PatchToWorldCoord(x, z, lod int) mgl32.Vec3 {
	size := w.sizes[lod]
	return mgl32.Vec3{float32(x) * size, 0, float32(z) * size}
}

func patchSizes(base, levels int) []float32 {
	sizes := make([]float32, levels)
	for lod := range sizes {
		sizes[lod] = float32(base << lod)
	}
	return sizes
}
