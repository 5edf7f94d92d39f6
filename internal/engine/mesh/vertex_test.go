package mesh

import (
	"encoding/binary"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func f32At(buf []byte, offset int) float32 {
	return gomath.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func TestVertexEncodeLayout(t *testing.T) {
	v := Vertex{
		Position:  mgl32.Vec3{1, 2, 3},
		Normal:    mgl32.Vec3{0, 1, 0},
		TexCoord0: mgl32.Vec2{0.25, 0.75},
		TexCoord1: mgl32.Vec2{0.5, 1},
		Tangent:   mgl32.Vec4{1, 0, 0, -1},
		Weights:   mgl32.Vec4{0.5, 0.5, 0, 0},
		Joints:    [4]uint32{7, 8, 9, 10},
		Color:     mgl32.Vec4{1, 0, 1, 1},
		Features:  FeaturePosition | FeatureNormal | FeatureTexCoord0,
	}

	buf := v.Encode(nil)
	if len(buf) != Stride {
		t.Fatalf("encoded %d bytes, want %d", len(buf), Stride)
	}

	floats := []struct {
		name   string
		offset int
		want   []float32
	}{
		{"position", OffsetPosition, []float32{1, 2, 3}},
		{"normal", OffsetNormal, []float32{0, 1, 0}},
		{"texcoord0", OffsetTexCoord0, []float32{0.25, 0.75}},
		{"texcoord1", OffsetTexCoord1, []float32{0.5, 1}},
		{"tangent", OffsetTangent, []float32{1, 0, 0, -1}},
		{"weights", OffsetWeights, []float32{0.5, 0.5, 0, 0}},
		{"color", OffsetColor, []float32{1, 0, 1, 1}},
	}
	for _, tc := range floats {
		for i, want := range tc.want {
			if got := f32At(buf, tc.offset+i*4); got != want {
				t.Errorf("%s[%d] = %v, want %v", tc.name, i, got, want)
			}
		}
	}

	for i, want := range v.Joints {
		if got := binary.LittleEndian.Uint32(buf[OffsetJoints+i*4:]); got != want {
			t.Errorf("joints[%d] = %d, want %d", i, got, want)
		}
	}
	if got := binary.LittleEndian.Uint32(buf[OffsetFeatures:]); got != uint32(v.Features) {
		t.Errorf("features = %#x, want %#x", got, uint32(v.Features))
	}
}

func TestEncodeVertices(t *testing.T) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 2, 0}},
		{Position: mgl32.Vec3{0, 0, 3}},
	}

	buf := EncodeVertices(vertices)
	if len(buf) != len(vertices)*Stride {
		t.Fatalf("encoded %d bytes, want %d", len(buf), len(vertices)*Stride)
	}
	for i, v := range vertices {
		if got := f32At(buf, i*Stride+OffsetPosition); got != v.Position[0] {
			t.Errorf("vertex %d position x = %v, want %v", i, got, v.Position[0])
		}
	}
}

func TestFeatureMaskHas(t *testing.T) {
	mask := FeaturePosition | FeatureNormal | FeatureColor
	if !mask.Has(FeatureNormal) {
		t.Error("mask should report the normal bit")
	}
	if !mask.Has(FeaturePosition | FeatureColor) {
		t.Error("mask should report a combination it fully contains")
	}
	if mask.Has(FeatureTangent) {
		t.Error("mask should not report the tangent bit")
	}
	if mask.Has(FeatureNormal | FeatureTangent) {
		t.Error("a combination with a missing bit should not be reported")
	}
}
