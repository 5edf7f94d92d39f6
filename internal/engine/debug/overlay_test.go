package debug

import (
	"encoding/binary"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/engine/gpu/gputest"
	"github.com/hollowtree/prism/internal/engine/mesh"
)

func TestNewBoxOverlay(t *testing.T) {
	dev := gputest.New()
	box := mesh.AABB{Min: mgl32.Vec3{-1, 0, -2}, Max: mgl32.Vec3{1, 3, 2}}

	overlay, err := NewBoxOverlay(dev, "test", box)
	if err != nil {
		t.Fatal(err)
	}

	if overlay.IndexFormat != gpu.IndexFormatUint16 {
		t.Errorf("index format = %v, want %v", overlay.IndexFormat, gpu.IndexFormatUint16)
	}
	if overlay.IndexCount != 24 {
		t.Errorf("index count = %d, want 24", overlay.IndexCount)
	}
	if got := overlay.VertexBuffer.ByteLen(); got != 8*12 {
		t.Errorf("vertex buffer holds %d bytes, want %d", got, 8*12)
	}
	if got := overlay.IndexBuffer.ByteLen(); got != 24*2 {
		t.Errorf("index buffer holds %d bytes, want %d", got, 24*2)
	}

	vb := overlay.VertexBuffer.(*gputest.Buffer)
	ib := overlay.IndexBuffer.(*gputest.Buffer)

	// First corner is the box minimum.
	for i, want := range box.Min {
		got := gomath.Float32frombits(binary.LittleEndian.Uint32(vb.Data[i*4:]))
		if got != want {
			t.Errorf("corner 0 axis %d = %v, want %v", i, got, want)
		}
	}

	// Every edge references a valid corner and connects two distinct
	// ones.
	seen := make(map[[2]uint16]bool)
	for e := 0; e < 12; e++ {
		a := binary.LittleEndian.Uint16(ib.Data[e*4:])
		b := binary.LittleEndian.Uint16(ib.Data[e*4+2:])
		if a >= 8 || b >= 8 {
			t.Fatalf("edge %d references corner (%d, %d)", e, a, b)
		}
		if a == b {
			t.Fatalf("edge %d is degenerate", e)
		}
		key := [2]uint16{min(a, b), max(a, b)}
		if seen[key] {
			t.Fatalf("edge %v appears twice", key)
		}
		seen[key] = true
	}
	if len(seen) != 12 {
		t.Errorf("box has %d distinct edges, want 12", len(seen))
	}

	if vb.Usage != gpu.BufferUsageVertex {
		t.Errorf("vertex buffer usage = %v, want vertex", vb.Usage)
	}
	if ib.Usage != gpu.BufferUsageIndex {
		t.Errorf("index buffer usage = %v, want index", ib.Usage)
	}
}
