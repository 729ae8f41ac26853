package terrain

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// unassigned is the coordinate of a patch that holds no cell. It is far
// outside any camera neighborhood so occupancy checks never match it.
const unassigned = math.MaxInt32

// Patch is one streamed tile. It is owned by its grid slot for the lifetime
// of the world.
//
// state and substate are atomics so the worker can poll them cheaply, but
// every transition is made while holding World.mu. Coordinates, position and
// the published height stats are written under World.mu as well.
type Patch struct {
	id   int
	lod  int
	slot int

	x, z     int
	position mgl32.Vec3

	heights   []uint16 // (N+3)^2, border of one sample on each side
	scratch   []byte
	heightMin uint16
	heightMax uint16
	digest    uint64

	buffer *MeshBuffer

	state    atomic.Int32
	substate atomic.Int32
	notified atomic.Bool
	reload   atomic.Bool
	// hidePending is set while a deferred Hide sits in the queue. The patch
	// keeps its cell and buffer until Flush hands the Hide to the host.
	hidePending atomic.Bool
}

func newPatch(id, lod, slot int) *Patch {
	p := &Patch{id: id, lod: lod, slot: slot}
	p.x, p.z = unassigned, unassigned
	return p
}

// State returns the current lifecycle state.
func (p *Patch) State() PatchState {
	return PatchState(p.state.Load())
}

func (p *Patch) setState(s PatchState) {
	p.state.Store(int32(s))
}

func (p *Patch) assigned() bool {
	return p.x != unassigned
}

// PatchView is an immutable snapshot of a patch handed to event listeners.
type PatchView struct {
	ID       int
	X, Z     int
	LOD      int
	Position mgl32.Vec3
	Buffer   *MeshBuffer
}

// caller holds World.mu
func (p *Patch) view() PatchView {
	return PatchView{
		ID:       p.id,
		X:        p.x,
		Z:        p.z,
		LOD:      p.lod,
		Position: p.position,
		Buffer:   p.buffer,
	}
}

// PatchInfo is a diagnostic snapshot of a patch.
type PatchInfo struct {
	ID        int
	LOD       int
	Slot      int
	X, Z      int
	Assigned  bool
	State     PatchState
	Substate  int
	Notified  bool
	Pending   bool // Hide queued, not yet delivered
	HeightMin uint16
	HeightMax uint16
	Digest    uint64
}

// caller holds World.mu
func (p *Patch) info() PatchInfo {
	return PatchInfo{
		ID:        p.id,
		LOD:       p.lod,
		Slot:      p.slot,
		X:         p.x,
		Z:         p.z,
		Assigned:  p.assigned(),
		State:     p.State(),
		Substate:  int(p.substate.Load()),
		Notified:  p.notified.Load(),
		Pending:   p.hidePending.Load(),
		HeightMin: p.heightMin,
		HeightMax: p.heightMax,
		Digest:    p.digest,
	}
}
