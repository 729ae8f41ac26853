package terrain

import (
	"context"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// runThreaded passes over the grids until a pass finds nothing to do, then
// sleeps until the camera moves, a reload is requested or Destroy runs.
func (w *World) runThreaded(ctx context.Context) {
	for w.active.Load() && ctx.Err() == nil {
		if w.pass() {
			continue
		}
		w.mu.Lock()
		for !w.wake && w.active.Load() {
			w.cond.Wait()
		}
		w.wake = false
		w.mu.Unlock()
	}
}

// runBusy polls without sleeping on the condition variable. The limiter
// bounds the pass rate.
func (w *World) runBusy(ctx context.Context) {
	for w.active.Load() {
		if !w.pass() {
			runtime.Gosched()
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
	}
}

// pass examines every patch of every LOD once. It reports whether any patch
// changed state or advanced its pipeline.
func (w *World) pass() bool {
	defer w.prof.Track("terrain.pass")()
	w.stats.passes.Add(1)

	worked := false
	for _, g := range w.grids {
		if !w.active.Load() {
			break
		}
		w.mu.Lock()
		ax, az := g.anchorX, g.anchorZ
		forward := w.forward
		w.mu.Unlock()

		if w.scanGrid(g, ax, az, forward) {
			worked = true
		}
	}
	return worked
}

// scanGrid advances each patch of g by at most one transition or step.
func (w *World) scanGrid(g *PatchGrid, ax, az int, forward mgl32.Vec3) bool {
	occupied := g.occupancy(ax, az)
	order := w.policy.Order(forward)

	worked := false
	for _, p := range g.patches {
		if !w.active.Load() {
			return worked
		}
		in := inRange(p.x, p.z, ax, az)

		switch p.State() {
		case StateUnloaded:
			cell, ok := freeCell(occupied, order)
			if !ok {
				continue
			}
			occupied[cell] = true
			dx, dz := cellOffset(cell)
			w.assign(p, ax+dx, az+dz)
			worked = true

		case StateLoading:
			w.step(p)
			worked = true

		case StateLoaded, StateFailed:
			if !in || p.reload.Load() {
				w.beginUnload(p)
				worked = true
			}

		case StateUnloading:
			if p.hidePending.Load() {
				continue
			}
			w.unload(p)
			worked = true
		}
	}
	return worked
}

func (w *World) assign(p *Patch, x, z int) {
	w.mu.Lock()
	p.x, p.z = x, z
	p.position = w.PatchToWorldCoord(x, z, p.lod)
	p.substate.Store(substateHeights)
	p.setState(StateLoading)
	w.mu.Unlock()

	w.log.Debug("patch assigned",
		zap.Int("patch", p.id), zap.Int("lod", p.lod), zap.Int("x", x), zap.Int("z", z))
}

// step runs one pipeline step and settles the patch when the pipeline ends.
func (w *World) step(p *Patch) {
	res := w.advance(p)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch res {
	case stepDone:
		p.setState(StateLoaded)
		p.notified.Store(true)
		w.notifyLocked(EventShow, p)
	case stepFailed:
		p.setState(StateFailed)
		w.stats.failedLoads.Add(1)
		w.log.Warn("patch failed to load",
			zap.Int("patch", p.id), zap.Int("x", p.x), zap.Int("z", p.z))
	}
}

func (w *World) beginUnload(p *Patch) {
	w.mu.Lock()
	p.setState(StateUnloading)
	w.mu.Unlock()

	w.log.Debug("patch unloading",
		zap.Int("patch", p.id), zap.Int("x", p.x), zap.Int("z", p.z),
		zap.Bool("reload", p.reload.Load()))
}

// unload hides the patch if it was shown and releases its cell. With
// DeliverDeferred the release waits for Flush, so a buffer the host still
// draws is never rewritten.
func (w *World) unload(p *Patch) {
	w.mu.Lock()
	if p.notified.Load() {
		w.notifyLocked(EventHide, p)
		p.notified.Store(false)
		if w.delivery == DeliverDeferred {
			p.hidePending.Store(true)
			w.mu.Unlock()
			return
		}
	}
	retry := p.reload.Load() && p.buffer == nil
	p.x, p.z = unassigned, unassigned
	p.reload.Store(false)
	p.setState(StateUnloaded)
	w.mu.Unlock()

	// Only an explicit reload retries a buffer that failed to allocate.
	if retry {
		w.allocate(p)
	}
}

func (w *World) allocate(p *Patch) {
	buf, err := w.alloc.Create(w.vertexCount(), w.streams)
	if err != nil {
		w.stats.allocFailures.Add(1)
		w.log.Error("mesh buffer allocation failed", zap.Int("patch", p.id), zap.Error(err))
		return
	}
	w.mu.Lock()
	p.buffer = buf
	w.mu.Unlock()
}

// caller holds w.mu
func (w *World) notifyLocked(kind EventKind, p *Patch) {
	if kind == EventShow {
		w.stats.shows.Add(1)
	} else {
		w.stats.hides.Add(1)
	}

	view := p.view()
	if w.delivery == DeliverImmediate {
		w.onEvent(kind, view)
		return
	}
	w.queue = append(w.queue, Event{Kind: kind, Patch: view})
}
