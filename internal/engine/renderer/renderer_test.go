package renderer

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/engine/mesh"
)

func TestShaderSourcesEmbedded(t *testing.T) {
	for name, source := range map[string]string{
		"mesh": meshShaderSource,
		"flat": flatShaderSource,
	} {
		if !strings.Contains(source, "vs_main") || !strings.Contains(source, "fs_main") {
			t.Errorf("%s shader is missing an entry point", name)
		}
		if !strings.Contains(source, "view_proj") {
			t.Errorf("%s shader does not read the camera uniform", name)
		}
	}
}

func TestPackedVertexLayoutMatchesEncoding(t *testing.T) {
	layout := packedVertexLayout()

	if layout.ArrayStride != mesh.Stride {
		t.Errorf("stride = %d, want %d", layout.ArrayStride, mesh.Stride)
	}
	if layout.StepMode != wgpu.VertexStepModeVertex {
		t.Error("packed stream must step per vertex")
	}

	want := map[uint32]uint64{
		0: mesh.OffsetPosition,
		1: mesh.OffsetNormal,
		2: mesh.OffsetTexCoord0,
		3: mesh.OffsetColor,
	}
	if len(layout.Attributes) != len(want) {
		t.Fatalf("layout has %d attributes, want %d", len(layout.Attributes), len(want))
	}
	for _, attr := range layout.Attributes {
		offset, ok := want[attr.ShaderLocation]
		if !ok {
			t.Errorf("unexpected shader location %d", attr.ShaderLocation)
			continue
		}
		if attr.Offset != offset {
			t.Errorf("location %d offset = %d, want %d", attr.ShaderLocation, attr.Offset, offset)
		}
	}
}

func TestInstanceLayoutCoversMatrix(t *testing.T) {
	layout := instanceLayout()

	if layout.ArrayStride != 64 {
		t.Errorf("instance stride = %d, want 64", layout.ArrayStride)
	}
	if layout.StepMode != wgpu.VertexStepModeInstance {
		t.Error("instance stream must step per instance")
	}
	if len(layout.Attributes) != 4 {
		t.Fatalf("matrix needs 4 columns, layout has %d", len(layout.Attributes))
	}
	for i, attr := range layout.Attributes {
		if attr.Format != wgpu.VertexFormatFloat32x4 {
			t.Errorf("column %d format = %v, want float32x4", i, attr.Format)
		}
		if attr.Offset != uint64(i)*16 {
			t.Errorf("column %d offset = %d, want %d", i, attr.Offset, i*16)
		}
	}
}

func TestNativeIndexFormat(t *testing.T) {
	if got := nativeIndexFormat(gpu.IndexFormatUint16); got != wgpu.IndexFormatUint16 {
		t.Errorf("16-bit format mapped to %v", got)
	}
	if got := nativeIndexFormat(gpu.IndexFormatUint32); got != wgpu.IndexFormatUint32 {
		t.Errorf("32-bit format mapped to %v", got)
	}
}
