package terrain

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type stepResult int

const (
	stepPending stepResult = iota
	stepDone
	stepFailed
)

// advance runs at most one generation step for a Loading patch.
func (w *World) advance(p *Patch) stepResult {
	switch p.substate.Load() {
	case substateHeights:
		w.heightStep(p)
		p.substate.Store(substateMesh)
		return stepPending
	case substateMesh:
		if err := w.meshStep(p); err != nil {
			return stepFailed
		}
		p.substate.Store(substateDone)
		return stepDone
	default:
		return stepDone
	}
}

func (w *World) heightStride() int {
	return w.resolution + 3
}

// heightAt reads the heightmap at a cell corner; x and z range over [-1, N+1].
func (w *World) heightAt(p *Patch, x, z int) uint16 {
	return p.heights[(z+1)*w.heightStride()+(x+1)]
}

// heightStep samples the height source over the patch plus a one sample border.
func (w *World) heightStep(p *Patch) {
	defer w.prof.Track("terrain.heightStep")()

	stride := w.heightStride()
	if p.heights == nil {
		p.heights = make([]uint16, stride*stride)
		p.scratch = make([]byte, 2*stride*stride)
	}

	n := float64(w.resolution)
	px, pz := float64(p.x), float64(p.z)
	lo, hi := uint16(math.MaxUint16), uint16(0)
	for j := 0; j < stride; j++ {
		wz := pz + float64(j-1)/n
		for i := 0; i < stride; i++ {
			wx := px + float64(i-1)/n
			h := w.source.Height(wx, wz)
			q := quantize(h)
			p.heights[j*stride+i] = q
			lo = min(lo, q)
			hi = max(hi, q)
		}
	}

	for i, h := range p.heights {
		binary.LittleEndian.PutUint16(p.scratch[i*2:], h)
	}
	sum := xxhash.Sum64(p.scratch)

	w.mu.Lock()
	p.heightMin, p.heightMax, p.digest = lo, hi, sum
	w.mu.Unlock()
}

// quantize clamps h to [0,1] and maps it onto the full uint16 range.
func quantize(h float64) uint16 {
	if math.IsNaN(h) {
		return 0
	}
	h = max(0, min(1, h))
	return uint16(math.Round(h * math.MaxUint16))
}

// meshStep writes two triangles per cell into the patch buffer.
// Positions are local to the patch origin.
//
// Normals are normalize((h(x-1)-h(x+1))*s, 2*spacing, (h(z-1)-h(z+1))*s) with
// s = heightScale/65535: the gradient is negated and scaled to world units so
// the normal leans away from rising ground. Host shaders expecting the
// unscaled h(x+1)-h(x-1) form get mirrored X and Z.
func (w *World) meshStep(p *Patch) error {
	defer w.prof.Track("terrain.meshStep")()

	buf := p.buffer
	if buf == nil {
		return fmt.Errorf("patch %d has no mesh buffer", p.id)
	}
	if err := w.checkBuffer(p, buf); err != nil {
		return err
	}
	positions := buf.Stream(StreamPosition)
	normals := buf.Stream(StreamNormal)
	texcoords := buf.Stream(StreamTexcoord)
	colors := buf.Stream(StreamColor)
	tcComp := streamComponents(buf, StreamTexcoord)
	colStride := streamComponents(buf, StreamColor)
	colComp := min(colStride, 4)

	n := w.resolution
	spacing := w.sizes[p.lod] / float32(n)
	scale := w.heightScale / math.MaxUint16

	corner := func(x, z int) (mgl32.Vec3, mgl32.Vec3) {
		pos := mgl32.Vec3{float32(x) * spacing, float32(w.heightAt(p, x, z)) * scale, float32(z) * spacing}
		// Central difference; the border makes x-1 and x+1 valid on every corner.
		dx := float32(w.heightAt(p, x-1, z)) - float32(w.heightAt(p, x+1, z))
		dz := float32(w.heightAt(p, x, z-1)) - float32(w.heightAt(p, x, z+1))
		nrm := mgl32.Vec3{dx * scale, 2 * spacing, dz * scale}.Normalize()
		return pos, nrm
	}

	white := [4]float32{1, 1, 1, 1}
	index := 0
	put := func(x, z int) {
		pos, nrm := corner(x, z)
		copy(positions[index*3:index*3+3], pos[:])
		copy(normals[index*3:index*3+3], nrm[:])
		if texcoords != nil {
			texcoords[index*tcComp] = float32(x) / float32(n)
			texcoords[index*tcComp+1] = float32(z) / float32(n)
		}
		if colors != nil {
			copy(colors[index*colStride:index*colStride+colComp], white[:colComp])
		}
		index++
	}

	for x := 0; x < n; x++ {
		for z := 0; z < n; z++ {
			// v0 (x,z), v1 (x,z+1), v2 (x+1,z+1), v3 (x+1,z)
			put(x, z)
			put(x, z+1)
			put(x+1, z+1)

			put(x+1, z+1)
			put(x+1, z)
			put(x, z)
		}
	}

	if err := w.alloc.Validate(buf); err != nil {
		return w.validationFailed(p, buf, err)
	}
	return nil
}

// checkBuffer rejects buffers too small for this world's vertex layout
// before anything is written to them.
func (w *World) checkBuffer(p *Patch, buf *MeshBuffer) error {
	err := checkLayout(buf)
	if err == nil && buf.VertexCount != w.vertexCount() {
		err = fmt.Errorf("buffer %d holds %d vertices, want %d", buf.Handle, buf.VertexCount, w.vertexCount())
	}
	if err == nil && (streamComponents(buf, StreamPosition) != 3 || streamComponents(buf, StreamNormal) != 3) {
		err = fmt.Errorf("buffer %d lacks position or normal stream", buf.Handle)
	}
	if err == nil && buf.Stream(StreamTexcoord) != nil && streamComponents(buf, StreamTexcoord) < 2 {
		err = fmt.Errorf("buffer %d texcoord stream is too narrow", buf.Handle)
	}
	if err != nil {
		return w.validationFailed(p, buf, err)
	}
	return nil
}

func (w *World) validationFailed(p *Patch, buf *MeshBuffer, err error) error {
	w.stats.validationFailures.Add(1)
	var handle uint64
	if buf != nil {
		handle = buf.Handle
	}
	w.log.Warn("mesh buffer failed validation",
		zap.Int("patch", p.id), zap.Uint64("buffer", handle), zap.Error(err))
	return fmt.Errorf("validate buffer for patch %d: %w", p.id, err)
}

func (w *World) vertexCount() int {
	return 6 * w.resolution * w.resolution
}

func streamComponents(b *MeshBuffer, name string) int {
	for _, s := range b.streams {
		if s.Name == name {
			return s.Components
		}
	}
	return 0
}
