package scene

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

func vecNear(a, b mgl32.Vec4) bool {
	for i := 0; i < 4; i++ {
		if gomath.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestFromDocumentLinks(t *testing.T) {
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "root", Children: []uint32{1, 2}},
			{Name: "left", Mesh: gltf.Index(0)},
			{Name: "right", Mesh: gltf.Index(0)},
		},
		Meshes: []*gltf.Mesh{{}},
		Scenes: []*gltf.Scene{{Nodes: []uint32{0}}},
	}

	layout, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}

	if layout.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", layout.Len())
	}

	root := layout.Node(0)
	if root.Parent != nil {
		t.Errorf("root should have no parent, got %v", *root.Parent)
	}
	if len(root.Children) != 2 || root.Children[0] != 1 || root.Children[1] != 2 {
		t.Errorf("unexpected root children: %v", root.Children)
	}

	for _, child := range []NodeIndex{1, 2} {
		node := layout.Node(child)
		if node.Parent == nil || *node.Parent != 0 {
			t.Errorf("node %d should have parent 0", child)
		}
	}

	// Both leaf nodes instantiate mesh 0, in document order.
	instances := layout.MeshNodes(0)
	if len(instances) != 2 || instances[0] != 1 || instances[1] != 2 {
		t.Errorf("unexpected mesh nodes: %v", instances)
	}

	if mesh, ok := layout.NodeMesh(1); !ok || mesh != 0 {
		t.Errorf("node 1 should map to mesh 0, got %v ok=%v", mesh, ok)
	}
	if _, ok := layout.NodeMesh(0); ok {
		t.Error("root has no mesh but NodeMesh reported one")
	}
}

func TestFromDocumentInvalidReferences(t *testing.T) {
	tests := []struct {
		name string
		doc  *gltf.Document
	}{
		{
			name: "child out of range",
			doc: &gltf.Document{
				Nodes: []*gltf.Node{{Children: []uint32{7}}},
			},
		},
		{
			name: "mesh out of range",
			doc: &gltf.Document{
				Nodes: []*gltf.Node{{Mesh: gltf.Index(3)}},
			},
		},
		{
			name: "child claimed twice",
			doc: &gltf.Document{
				Nodes: []*gltf.Node{
					{Children: []uint32{2}},
					{Children: []uint32{2}},
					{},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromDocument(tt.doc); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestWorldTransformChain(t *testing.T) {
	// root translates by (1,0,0), middle by (0,2,0), leaf scales by 2.
	// The world transform of the leaf must apply all three, leaf first.
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "root", Translation: [3]float32{1, 0, 0}, Children: []uint32{1}},
			{Name: "middle", Translation: [3]float32{0, 2, 0}, Children: []uint32{2}},
			{Name: "leaf", Scale: [3]float32{2, 2, 2}},
		},
	}

	layout, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}

	world := layout.WorldTransform(2)
	got := world.Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	want := mgl32.Vec4{3, 4, 2, 1}
	if !vecNear(got, want) {
		t.Errorf("world transform point = %v, want %v", got, want)
	}

	// The middle node ignores the leaf's scale.
	middle := layout.WorldTransform(1).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !vecNear(middle, mgl32.Vec4{1, 2, 0, 1}) {
		t.Errorf("middle world origin = %v, want (1,2,0,1)", middle)
	}
}

func TestWorldTransformMatrixNode(t *testing.T) {
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{
				Name: "baked",
				Matrix: [16]float32{
					1, 0, 0, 0,
					0, 1, 0, 0,
					0, 0, 1, 0,
					5, 6, 7, 1,
				},
			},
		},
	}

	layout, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}

	got := layout.WorldTransform(0).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !vecNear(got, mgl32.Vec4{5, 6, 7, 1}) {
		t.Errorf("matrix node origin = %v, want (5,6,7,1)", got)
	}
}

func TestComposeTRSOrder(t *testing.T) {
	m := ComposeTRS(
		mgl32.Vec3{1, 0, 0},
		mgl32.QuatIdent(),
		mgl32.Vec3{2, 2, 2},
	)

	// Scale applies before translation: (1,0,0) -> (2,0,0) -> (3,0,0).
	got := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !vecNear(got, mgl32.Vec4{3, 0, 0, 1}) {
		t.Errorf("composed point = %v, want (3,0,0,1)", got)
	}
}
