// Package terrain streams a 3x3 window of terrain patches per LOD around a
// moving camera. A worker generates heightmaps and meshes in resumable steps
// and reports patches to the host through show and hide events.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"terrainstream/internal/height"
	"terrainstream/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrNoCallback = errors.New("terrain: event callback is required")
	ErrPatchSize  = errors.New("terrain: base patch size must be a positive power of two")
	ErrResolution = errors.New("terrain: resolution out of range")
	ErrDestroyed  = errors.New("terrain: world destroyed")
	ErrNoPatch    = errors.New("terrain: no such patch")
)

const (
	DefaultResolution  = 64
	DefaultHeightScale = 128
	MaxResolution      = 1024
	MaxLODLevels       = 8
)

// InitParams configures Create. Zero values pick defaults where noted.
type InitParams struct {
	BasePatchSize int // world units, power of two
	Resolution    int // cells per patch edge, default 64
	LODLevels     int // default 1
	HeightScale   float32
	Seed          uint32

	View mgl32.Mat4
	Proj mgl32.Mat4

	OnEvent EventFunc

	Logger    *zap.Logger // default no-op
	Mode      Mode
	Delivery  Delivery
	BusyRate  float64 // worker passes per second in ModeBusy, 0 for unlimited
	Allocator BufferAllocator
	Streams   []StreamDecl
	Source    height.Source // default FBM seeded with Seed
	Policy    AssignPolicy  // default ScanOrder
}

// UpdateParams carries the per-frame camera.
type UpdateParams struct {
	Dt   float32 // unused
	View mgl32.Mat4
	Proj mgl32.Mat4
}

// Stats are cumulative diagnostic counters.
type Stats struct {
	Passes             uint64
	Shows              uint64
	Hides              uint64
	FailedLoads        uint64
	AllocFailures      uint64
	ValidationFailures uint64
	Reloads            uint64
}

type counters struct {
	passes             atomic.Uint64
	shows              atomic.Uint64
	hides              atomic.Uint64
	failedLoads        atomic.Uint64
	allocFailures      atomic.Uint64
	validationFailures atomic.Uint64
	reloads            atomic.Uint64
}

// World owns the patch grids of every LOD and the worker that fills them.
type World struct {
	id   uuid.UUID
	log  *zap.Logger
	prof *profiling.Recorder

	sizes       []float32
	resolution  int
	heightScale float32
	seed        uint32
	source      height.Source
	alloc       BufferAllocator
	streams     []StreamDecl
	policy      AssignPolicy
	mode        Mode
	delivery    Delivery
	onEvent     EventFunc

	grids []*PatchGrid

	// mu guards the camera, the anchors, the event queue and every patch
	// state transition. The callback runs under it in DeliverImmediate.
	mu      sync.Mutex
	cond    *sync.Cond
	wake    bool
	view    mgl32.Mat4
	proj    mgl32.Mat4
	camera  mgl32.Vec3
	forward mgl32.Vec3
	planes  [6]Plane
	queue   []Event

	// deliverMu keeps deferred callbacks in order when Flush races Update.
	deliverMu sync.Mutex

	stats counters

	active      atomic.Bool
	limiter     *rate.Limiter
	cancel      context.CancelFunc
	done        chan struct{}
	destroyOnce sync.Once
}

// Create validates params, allocates every patch and starts the worker.
func Create(params InitParams) (*World, error) {
	if params.OnEvent == nil {
		return nil, ErrNoCallback
	}
	base := params.BasePatchSize
	if base <= 0 || base&(base-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrPatchSize, base)
	}
	res := params.Resolution
	if res == 0 {
		res = DefaultResolution
	}
	if res < 1 || res > MaxResolution {
		return nil, fmt.Errorf("%w: got %d, want 1..%d", ErrResolution, res, MaxResolution)
	}
	levels := params.LODLevels
	if levels == 0 {
		levels = 1
	}
	if levels < 1 || levels > MaxLODLevels {
		return nil, fmt.Errorf("terrain: lod levels %d out of range 1..%d", levels, MaxLODLevels)
	}
	if params.Mode < ModeThreaded || params.Mode > ModeInline {
		return nil, fmt.Errorf("terrain: unknown mode %d", params.Mode)
	}
	if params.Delivery < DeliverDeferred || params.Delivery > DeliverImmediate {
		return nil, fmt.Errorf("terrain: unknown delivery %d", params.Delivery)
	}
	streams := params.Streams
	if len(streams) == 0 {
		streams = DefaultStreams
	}
	if err := validateStreams(streams); err != nil {
		return nil, err
	}

	w := &World{
		id:          uuid.New(),
		prof:        profiling.NewRecorder(),
		sizes:       patchSizes(base, levels),
		resolution:  res,
		heightScale: params.HeightScale,
		seed:        params.Seed,
		source:      params.Source,
		alloc:       params.Allocator,
		streams:     append([]StreamDecl(nil), streams...),
		policy:      params.Policy,
		mode:        params.Mode,
		delivery:    params.Delivery,
		onEvent:     params.OnEvent,
	}
	w.cond = sync.NewCond(&w.mu)

	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w.log = logger.With(zap.String("world", w.id.String()))

	if w.heightScale == 0 {
		w.heightScale = DefaultHeightScale
	}
	if w.source == nil {
		w.source = height.NewFBM(w.seed, height.DefaultFBMParams())
	}
	if w.alloc == nil {
		w.alloc = &HeapAllocator{}
	}
	if w.policy == nil {
		w.policy = ScanOrder{}
	}

	w.view, w.proj = params.View, params.Proj
	w.camera, w.forward = cameraFromView(params.View)
	w.planes = extractFrustumPlanes(params.Proj.Mul4(params.View))

	for lod := range w.sizes {
		g := &PatchGrid{lod: lod, size: w.sizes[lod]}
		g.anchorX, g.anchorZ = w.WorldToPatchCoord(w.camera, lod)
		for slot := range g.patches {
			p := newPatch(lod*GridCells+slot, lod, slot)
			// A patch without a buffer fails at its mesh step.
			w.allocate(p)
			g.patches[slot] = p
		}
		w.grids = append(w.grids, g)
	}

	w.active.Store(true)
	switch w.mode {
	case ModeThreaded:
		w.start(w.runThreaded)
	case ModeBusy:
		limit := rate.Inf
		if params.BusyRate > 0 {
			limit = rate.Limit(params.BusyRate)
		}
		w.limiter = rate.NewLimiter(limit, 1)
		w.start(w.runBusy)
	}

	w.log.Info("terrain world created",
		zap.Int("base_patch_size", base),
		zap.Int("resolution", res),
		zap.Int("lod_levels", levels),
		zap.Stringer("mode", w.mode),
		zap.Stringer("delivery", w.delivery),
		zap.Float32("camera_x", w.camera.X()),
		zap.Float32("camera_z", w.camera.Z()))
	return w, nil
}

func (w *World) start(run func(context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		run(ctx)
	}()
}

// ID returns the instance id used to tag log lines.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Update records a new camera. Anchors that changed wake the worker. In
// ModeInline one worker pass runs here. Deferred events are delivered before
// Update returns.
func (w *World) Update(params UpdateParams) error {
	if !w.active.Load() {
		return ErrDestroyed
	}
	defer w.prof.Track("terrain.Update")()

	pos, fwd := cameraFromView(params.View)
	planes := extractFrustumPlanes(params.Proj.Mul4(params.View))

	w.mu.Lock()
	w.view, w.proj = params.View, params.Proj
	w.camera, w.forward = pos, fwd
	w.planes = planes
	moved := false
	for _, g := range w.grids {
		x, z := w.WorldToPatchCoord(pos, g.lod)
		if x != g.anchorX || z != g.anchorZ {
			w.log.Debug("camera anchor moved",
				zap.Int("lod", g.lod), zap.Int("x", x), zap.Int("z", z))
			g.anchorX, g.anchorZ = x, z
			moved = true
		}
	}
	if moved {
		w.signalLocked()
	}
	w.mu.Unlock()

	if w.mode == ModeInline {
		w.pass()
	}
	w.Flush()
	return nil
}

// caller holds w.mu
func (w *World) signalLocked() {
	w.wake = true
	w.cond.Signal()
}

// Flush delivers queued events on the calling goroutine, then lets the worker
// recycle the patches whose Hide was delivered. It is a no-op with
// DeliverImmediate.
func (w *World) Flush() {
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()

	w.mu.Lock()
	events := w.queue
	w.queue = nil
	w.mu.Unlock()
	if len(events) == 0 {
		return
	}

	for _, e := range events {
		w.onEvent(e.Kind, e.Patch)
	}

	w.mu.Lock()
	released := false
	for _, e := range events {
		if e.Kind != EventHide {
			continue
		}
		if p := w.patch(e.Patch.ID); p != nil {
			p.hidePending.Store(false)
			released = true
		}
	}
	if released {
		w.signalLocked()
	}
	w.mu.Unlock()
}

// ReloadPatch asks the worker to unload a loaded or failed patch so it is
// generated again. It reports whether the request was accepted.
func (w *World) ReloadPatch(id int) (bool, error) {
	if !w.active.Load() {
		return false, ErrDestroyed
	}
	p := w.patch(id)
	if p == nil {
		return false, fmt.Errorf("%w: %d", ErrNoPatch, id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch p.State() {
	case StateLoaded, StateFailed:
		p.reload.Store(true)
		w.stats.reloads.Add(1)
		w.signalLocked()
		return true, nil
	default:
		return false, nil
	}
}

func (w *World) patch(id int) *Patch {
	if id < 0 || id >= len(w.grids)*GridCells {
		return nil
	}
	return w.grids[id/GridCells].patches[id%GridCells]
}

// Stats returns the current counters.
func (w *World) Stats() Stats {
	return Stats{
		Passes:             w.stats.passes.Load(),
		Shows:              w.stats.shows.Load(),
		Hides:              w.stats.hides.Load(),
		FailedLoads:        w.stats.failedLoads.Load(),
		AllocFailures:      w.stats.allocFailures.Load(),
		ValidationFailures: w.stats.validationFailures.Load(),
		Reloads:            w.stats.reloads.Load(),
	}
}

// Patches returns a snapshot of every patch of one LOD in slot order.
func (w *World) Patches(lod int) []PatchInfo {
	if lod < 0 || lod >= len(w.grids) {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]PatchInfo, 0, GridCells)
	for _, p := range w.grids[lod].patches {
		out = append(out, p.info())
	}
	return out
}

// Camera returns the snapped camera position and view direction.
func (w *World) Camera() (pos, forward mgl32.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.camera, w.forward
}

// Anchor returns the camera cell of one LOD.
func (w *World) Anchor(lod int) (x, z int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	g := w.grids[lod]
	return g.anchorX, g.anchorZ
}

// Heightmap returns a copy of a patch heightmap, row major with stride
// Resolution+3. It fails while the patch is unassigned or still generating.
func (w *World) Heightmap(id int) ([]uint16, bool) {
	p := w.patch(id)
	if p == nil {
		return nil, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	switch p.State() {
	case StateUnloaded, StateLoading:
		return nil, false
	}
	if p.heights == nil {
		return nil, false
	}
	return append([]uint16(nil), p.heights...), true
}

// Resolution returns the number of cells per patch edge.
func (w *World) Resolution() int {
	return w.resolution
}

// Destroy stops the worker, waits for it to exit and releases every patch.
// Events still queued are dropped. Calling Destroy again is a no-op.
func (w *World) Destroy() {
	w.destroyOnce.Do(func() {
		w.active.Store(false)

		w.mu.Lock()
		w.wake = true
		w.cond.Broadcast()
		w.mu.Unlock()

		if w.cancel != nil {
			w.cancel()
			<-w.done
		}

		w.mu.Lock()
		for i := len(w.grids) - 1; i >= 0; i-- {
			for _, p := range w.grids[i].patches {
				p.heights = nil
				p.scratch = nil
				if p.buffer != nil {
					w.alloc.Release(p.buffer)
					p.buffer = nil
				}
			}
		}
		dropped := len(w.queue)
		w.queue = nil
		w.mu.Unlock()

		w.log.Info("terrain world destroyed",
			zap.Uint64("passes", w.stats.passes.Load()),
			zap.Int("dropped_events", dropped))
	})
}
