package terrain

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// GridCells is the number of patches kept per LOD.
const GridCells = 9

// PatchGrid is the 3x3 window of patches tracked around the camera for one LOD.
type PatchGrid struct {
	lod  int
	size float32

	// anchor is guarded by World.mu
	anchorX, anchorZ int

	patches [GridCells]*Patch
}

// cellIndex maps a neighborhood offset in [-1,1]^2 to a cell, x-major.
func cellIndex(dx, dz int) int {
	return (dx+1)*3 + (dz + 1)
}

func cellOffset(i int) (dx, dz int) {
	return i/3 - 1, i%3 - 1
}

func inRange(x, z, ax, az int) bool {
	if x == unassigned || z == unassigned {
		return false
	}
	dx, dz := x-ax, z-az
	return dx >= -1 && dx <= 1 && dz >= -1 && dz <= 1
}

// occupancy marks the cells around the anchor that already hold a patch.
// Only the worker mutates coordinates, so it may call this without the lock.
func (g *PatchGrid) occupancy(ax, az int) [GridCells]bool {
	var occ [GridCells]bool
	for _, p := range g.patches {
		if inRange(p.x, p.z, ax, az) {
			occ[cellIndex(p.x-ax, p.z-az)] = true
		}
	}
	return occ
}

// freeCell returns the first unoccupied cell in the given order.
func freeCell(occ [GridCells]bool, order [GridCells]int) (int, bool) {
	for _, i := range order {
		if !occ[i] {
			return i, true
		}
	}
	return 0, false
}

// AssignPolicy decides which free neighborhood cell an idle patch fills first.
type AssignPolicy interface {
	Order(forward mgl32.Vec3) [GridCells]int
}

// ScanOrder fills cells x-major from (-1,-1) to (1,1).
type ScanOrder struct{}

// Order implements AssignPolicy.
func (ScanOrder) Order(mgl32.Vec3) [GridCells]int {
	return [GridCells]int{0, 1, 2, 3, 4, 5, 6, 7, 8}
}

// CenterFirstOrder fills the camera cell, then the edge neighbours, then the corners.
type CenterFirstOrder struct{}

// Order implements AssignPolicy.
func (CenterFirstOrder) Order(mgl32.Vec3) [GridCells]int {
	return [GridCells]int{4, 1, 3, 5, 7, 0, 2, 6, 8}
}

// FacingOrder fills the camera cell, then the cells most in front of the
// camera on the XZ plane. Ties keep scan order.
type FacingOrder struct{}

// Order implements AssignPolicy.
func (FacingOrder) Order(forward mgl32.Vec3) [GridCells]int {
	order := ScanOrder{}.Order(forward)
	f := mgl32.Vec2{forward.X(), forward.Z()}
	if f.Len() < 1e-6 {
		return order
	}
	f = f.Normalize()

	score := func(i int) float32 {
		if i == 4 {
			return math.MaxFloat32
		}
		dx, dz := cellOffset(i)
		return mgl32.Vec2{float32(dx), float32(dz)}.Normalize().Dot(f)
	}
	sort.SliceStable(order[:], func(a, b int) bool {
		return score(order[a]) > score(order[b])
	})
	return order
}

// ParseAssignPolicy maps a config name to a policy.
func ParseAssignPolicy(name string) (AssignPolicy, error) {
	switch name {
	case "", "scan":
		return ScanOrder{}, nil
	case "center":
		return CenterFirstOrder{}, nil
	case "facing":
		return FacingOrder{}, nil
	default:
		return nil, fmt.Errorf("unknown assign order %q", name)
	}
}
