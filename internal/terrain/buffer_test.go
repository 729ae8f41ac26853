package terrain

import (
	"errors"
	"testing"
)

func TestValidateStreams(t *testing.T) {
	if err := validateStreams(DefaultStreams); err != nil {
		t.Errorf("default streams rejected: %v", err)
	}
	bad := [][]StreamDecl{
		nil,
		{{"", 3}, {StreamPosition, 3}, {StreamNormal, 3}},
		{{StreamPosition, 2}, {StreamNormal, 3}},
		{{StreamPosition, 3}, {StreamNormal, 3}, {StreamTexcoord, 1}},
		{{StreamPosition, 3}, {StreamNormal, 3}, {"extra", 0}},
	}
	for i, s := range bad {
		if err := validateStreams(s); !errors.Is(err, ErrStreamDecl) {
			t.Errorf("case %d: expected ErrStreamDecl, got %v", i, err)
		}
	}
}

func TestHeapAllocator(t *testing.T) {
	a := &HeapAllocator{}
	b1, err := a.Create(6, DefaultStreams)
	if err != nil {
		t.Fatal(err)
	}
	b2, _ := a.Create(6, DefaultStreams)
	if b1.Handle == b2.Handle || b1.Handle == 0 {
		t.Errorf("handles should be unique and non-zero: %d %d", b1.Handle, b2.Handle)
	}
	if len(b1.Stream(StreamColor)) != 24 {
		t.Errorf("color stream has %d floats, want 24", len(b1.Stream(StreamColor)))
	}
	if b1.Stream("missing") != nil {
		t.Errorf("unknown stream should be nil")
	}
	if err := a.Validate(b1); err != nil {
		t.Errorf("fresh buffer failed validation: %v", err)
	}
	if a.Live() != 2 {
		t.Errorf("expected 2 live buffers, got %d", a.Live())
	}

	a.Release(b1)
	a.Release(b1)
	if a.Live() != 1 {
		t.Errorf("double release changed the count: %d", a.Live())
	}
	if err := a.Validate(b1); err == nil {
		t.Errorf("released buffer should fail validation")
	}
	if _, err := a.Create(0, DefaultStreams); err == nil {
		t.Errorf("expected error for empty buffer")
	}
}
