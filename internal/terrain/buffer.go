package terrain

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// StreamDecl declares one float32 vertex stream of a mesh buffer.
type StreamDecl struct {
	Name       string
	Components int
}

// Stream names the mesh step writes. Position and normal are required.
const (
	StreamPosition = "position"
	StreamNormal   = "normal"
	StreamTexcoord = "texcoord"
	StreamColor    = "color"
)

// DefaultStreams is the vertex layout used when InitParams.Streams is empty.
var DefaultStreams = []StreamDecl{
	{Name: StreamPosition, Components: 3},
	{Name: StreamNormal, Components: 3},
	{Name: StreamTexcoord, Components: 2},
	{Name: StreamColor, Components: 4},
}

// ErrStreamDecl is returned for an unusable stream declaration.
var ErrStreamDecl = errors.New("invalid stream declaration")

func validateStreams(streams []StreamDecl) error {
	if len(streams) == 0 {
		return fmt.Errorf("no streams: %w", ErrStreamDecl)
	}
	seen := make(map[string]int, len(streams))
	for _, s := range streams {
		if s.Name == "" {
			return fmt.Errorf("unnamed stream: %w", ErrStreamDecl)
		}
		if s.Components < 1 || s.Components > 4 {
			return fmt.Errorf("stream %q has %d components: %w", s.Name, s.Components, ErrStreamDecl)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("stream %q declared twice: %w", s.Name, ErrStreamDecl)
		}
		seen[s.Name] = s.Components
	}
	for _, name := range []string{StreamPosition, StreamNormal} {
		if seen[name] != 3 {
			return fmt.Errorf("stream %q must be declared with 3 components: %w", name, ErrStreamDecl)
		}
	}
	if c, ok := seen[StreamTexcoord]; ok && c < 2 {
		return fmt.Errorf("stream %q needs at least 2 components: %w", StreamTexcoord, ErrStreamDecl)
	}
	return nil
}

// MeshBuffer holds the vertex streams of one patch. It is created once per
// patch and rewritten in place every time the patch loads new coordinates.
type MeshBuffer struct {
	Handle      uint64
	VertexCount int

	streams []StreamDecl
	data    [][]float32
}

// Streams returns the declared layout.
func (b *MeshBuffer) Streams() []StreamDecl {
	return b.streams
}

// NewMeshBuffer allocates a buffer with zeroed streams. Custom allocators use
// it to build the buffers they hand out.
func NewMeshBuffer(handle uint64, vertexCount int, streams []StreamDecl) *MeshBuffer {
	b := &MeshBuffer{
		Handle:      handle,
		VertexCount: vertexCount,
		streams:     append([]StreamDecl(nil), streams...),
		data:        make([][]float32, len(streams)),
	}
	for i, s := range streams {
		b.data[i] = make([]float32, vertexCount*s.Components)
	}
	return b
}

// checkLayout reports whether every stream holds VertexCount elements.
func checkLayout(b *MeshBuffer) error {
	if b == nil || b.Handle == 0 {
		return errors.New("invalid buffer handle")
	}
	if len(b.data) != len(b.streams) {
		return fmt.Errorf("buffer %d: released or corrupt", b.Handle)
	}
	for i, s := range b.streams {
		if len(b.data[i]) != b.VertexCount*s.Components {
			return fmt.Errorf("buffer %d: stream %q has %d floats, want %d",
				b.Handle, s.Name, len(b.data[i]), b.VertexCount*s.Components)
		}
	}
	return nil
}

// Stream returns the raw data of the named stream, nil if undeclared.
func (b *MeshBuffer) Stream(name string) []float32 {
	for i, s := range b.streams {
		if s.Name == name {
			return b.data[i]
		}
	}
	return nil
}

// BufferAllocator creates, checks and frees mesh buffers. It stands in for
// the host engine's buffer API.
type BufferAllocator interface {
	Create(vertexCount int, streams []StreamDecl) (*MeshBuffer, error)
	// Validate is called after the mesh step has written the buffer.
	Validate(b *MeshBuffer) error
	Release(b *MeshBuffer)
}

// HeapAllocator backs mesh buffers with Go slices.
type HeapAllocator struct {
	next atomic.Uint64
	live atomic.Int64
}

// Create implements BufferAllocator.
func (a *HeapAllocator) Create(vertexCount int, streams []StreamDecl) (*MeshBuffer, error) {
	if vertexCount <= 0 {
		return nil, fmt.Errorf("create buffer with %d vertices", vertexCount)
	}
	if err := validateStreams(streams); err != nil {
		return nil, err
	}
	b := NewMeshBuffer(a.next.Add(1), vertexCount, streams)
	a.live.Add(1)
	return b, nil
}

// Validate implements BufferAllocator.
func (a *HeapAllocator) Validate(b *MeshBuffer) error {
	return checkLayout(b)
}

// Release implements BufferAllocator.
func (a *HeapAllocator) Release(b *MeshBuffer) {
	if b == nil || b.data == nil {
		return
	}
	b.data = nil
	a.live.Add(-1)
}

// Live returns the number of buffers created and not yet released.
func (a *HeapAllocator) Live() int64 {
	return a.live.Load()
}
