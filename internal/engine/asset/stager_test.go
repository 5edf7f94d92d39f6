package asset

import (
	"encoding/binary"
	gomath "math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/engine/gpu/gputest"
	"github.com/hollowtree/prism/internal/engine/mesh"
)

type fixedClock float32

func (c fixedClock) Elapsed() float32 { return float32(c) }

// translationX reads the x translation of the first instance matrix
// (column-major, element 12).
func translationX(t *testing.T, data []byte) float32 {
	t.Helper()
	if len(data) < 64 {
		t.Fatalf("instance buffer holds %d bytes, want at least one matrix", len(data))
	}
	return gomath.Float32frombits(binary.LittleEndian.Uint32(data[48:]))
}

func TestStageStaticOnce(t *testing.T) {
	dev := gputest.New()
	pack, err := FromBytes("triangle.glb", encodeGLB(t, triangleDoc()), dev)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	first, err := pack.Stage(fixedClock(0))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	second, err := pack.Stage(fixedClock(5))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("staged %d then %d records, want 1 each", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Fatal("a static primitive should reuse its staged record")
	}

	rec := first[0]
	if rec.VertexCount != 3 || rec.IndexCount != 0 || rec.InstanceCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 3 vertices, 0 indices, 1 instance",
			rec.VertexCount, rec.IndexCount, rec.InstanceCount)
	}
	if rec.Indexed() {
		t.Error("an unindexed primitive should stage without an index buffer")
	}
	if got := rec.VertexBuffer.ByteLen(); got != 3*mesh.Stride {
		t.Errorf("vertex buffer holds %d bytes, want %d", got, 3*mesh.Stride)
	}
	if got := rec.InstanceBuffer.ByteLen(); got != 64 {
		t.Errorf("instance buffer holds %d bytes, want one matrix", got)
	}

	// Two stagings, one upload: vertex plus instance buffer, no
	// rewrites.
	if len(dev.Buffers) != 2 {
		t.Errorf("device holds %d buffers, want 2", len(dev.Buffers))
	}
	for _, buf := range dev.Buffers {
		if buf.Writes != 0 {
			t.Errorf("buffer %q was rewritten %d times, want the first upload kept", buf.Label, buf.Writes)
		}
	}
}

func TestStageAnimatedRefreshes(t *testing.T) {
	doc := triangleDoc()
	animateNode(doc, 0, []float32{0, 1}, []float32{0, 0, 0, 10, 0, 0})

	dev := gputest.New()
	pack, err := FromBytes("bouncer.glb", encodeGLB(t, doc), dev)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	first, err := pack.Stage(fixedClock(0.25))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	rec := first[0]
	inst := rec.InstanceBuffer.(*gputest.Buffer)
	if got := translationX(t, inst.Data); got != 2.5 {
		t.Fatalf("translation x = %v at t=0.25, want 2.5", got)
	}

	second, err := pack.Stage(fixedClock(0.5))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if second[0] != rec {
		t.Fatal("an animated primitive should keep its record and rewrite the instance buffer")
	}
	if inst.Writes != 1 {
		t.Errorf("instance buffer rewritten %d times, want 1", inst.Writes)
	}
	if got := translationX(t, inst.Data); got != 5 {
		t.Errorf("translation x = %v at t=0.5, want 5", got)
	}

	// Geometry is immutable; only the instance stream moves.
	vtx := rec.VertexBuffer.(*gputest.Buffer)
	if vtx.Writes != 0 {
		t.Errorf("vertex buffer rewritten %d times, want 0", vtx.Writes)
	}
}

func TestStageIndexedGeometry(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	indices := modeler.WriteIndices(doc, []uint32{0, 1, 2, 0, 2, 3})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: "quad", Primitives: []*gltf.Primitive{{
		Attributes: map[string]uint32{gltf.POSITION: pos},
		Indices:    gltf.Index(indices),
	}}})
	addNode(doc, &gltf.Node{Mesh: gltf.Index(0)})

	pack, err := FromBytes("quad.glb", encodeGLB(t, doc), gputest.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	records, err := pack.Stage(fixedClock(0))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	rec := records[0]
	if !rec.Indexed() || rec.IndexFormat != gpu.IndexFormatUint32 {
		t.Fatalf("indexed=%v format=%v, want an uint32 index buffer", rec.Indexed(), rec.IndexFormat)
	}
	if rec.VertexCount != 4 || rec.IndexCount != 6 {
		t.Errorf("counts = %d/%d, want 4 vertices and 6 indices", rec.VertexCount, rec.IndexCount)
	}
	idx := rec.IndexBuffer.(*gputest.Buffer)
	if len(idx.Data) != 24 {
		t.Fatalf("index buffer holds %d bytes, want 24", len(idx.Data))
	}
	if got := binary.LittleEndian.Uint32(idx.Data[4:]); got != 1 {
		t.Errorf("second index = %d, want 1", got)
	}
	if got := rec.VertexBuffer.ByteLen(); got != 4*mesh.Stride {
		t.Errorf("vertex buffer holds %d bytes, want %d", got, 4*mesh.Stride)
	}
}

func TestStageColorTexture(t *testing.T) {
	doc := triangleDoc()
	texIndex := addImage(doc, pngBytes(t))
	doc.Materials = append(doc.Materials, &gltf.Material{
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: texIndex},
		},
	})
	doc.Meshes[0].Primitives[0].Material = gltf.Index(0)

	dev := gputest.New()
	pack, err := FromBytes("textured.glb", encodeGLB(t, doc), dev)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	records, err := pack.Stage(fixedClock(0))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	rec := records[0]
	if rec.ColorTexture == nil {
		t.Fatal("a textured material should stage with a color bind group")
	}
	group, ok := rec.ColorTexture.(*gputest.BindGroup)
	if !ok || group != dev.BindGroups[0] {
		t.Errorf("color bind group = %v, want the pack's first image binding", rec.ColorTexture)
	}
	if group.Texture != dev.Textures[0] {
		t.Error("color bind group should reference the uploaded image texture")
	}
}

func TestStageWithoutTextureHasNoBinding(t *testing.T) {
	pack, err := FromBytes("plain.glb", encodeGLB(t, triangleDoc()), gputest.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	records, err := pack.Stage(fixedClock(0))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if records[0].ColorTexture != nil {
		t.Error("an untextured material should stage without a color bind group")
	}
}
