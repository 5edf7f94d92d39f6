// Package scene flattens the node hierarchy of a glTF document and
// resolves world-space transforms.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// NodeIndex identifies a node within one document.
type NodeIndex uint32

// MeshIndex identifies a mesh within one document.
type MeshIndex uint32

// Node is one flattened scene-graph entry. Local is the node-to-parent
// transform; Translation, Rotation and Scale hold the decomposed form
// used as the base for animation.
type Node struct {
	Index    NodeIndex
	Name     string
	Parent   *NodeIndex
	Children []NodeIndex

	Local       mgl32.Mat4
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// NodeLayout indexes the nodes of a document by parent, child and mesh.
type NodeLayout struct {
	nodes     []Node
	meshNodes map[MeshIndex][]NodeIndex
	nodeMesh  map[NodeIndex]MeshIndex
}

var identity = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// FromDocument flattens doc.Nodes. Child and mesh references are
// validated against the document before any transform is resolved.
func FromDocument(doc *gltf.Document) (*NodeLayout, error) {
	nodeCount := len(doc.Nodes)
	layout := &NodeLayout{
		nodes:     make([]Node, 0, nodeCount),
		meshNodes: make(map[MeshIndex][]NodeIndex),
		nodeMesh:  make(map[NodeIndex]MeshIndex),
	}

	// Parent links are only known once every node has been visited, so
	// they land in a second pass.
	parents := make(map[NodeIndex]NodeIndex, nodeCount)

	for i, src := range doc.Nodes {
		index := NodeIndex(i)

		children := make([]NodeIndex, 0, len(src.Children))
		for _, child := range src.Children {
			if int(child) >= nodeCount {
				return nil, errors.Errorf("node %d: child %d out of range (%d nodes)", i, child, nodeCount)
			}
			childIndex := NodeIndex(child)
			if _, claimed := parents[childIndex]; claimed {
				return nil, errors.Errorf("node %d is a child of more than one node", child)
			}
			children = append(children, childIndex)
			parents[childIndex] = index
		}

		if src.Mesh != nil {
			if int(*src.Mesh) >= len(doc.Meshes) {
				return nil, errors.Errorf("node %d: mesh %d out of range (%d meshes)", i, *src.Mesh, len(doc.Meshes))
			}
			mesh := MeshIndex(*src.Mesh)
			layout.meshNodes[mesh] = append(layout.meshNodes[mesh], index)
			layout.nodeMesh[index] = mesh
		}

		node := Node{
			Index:    index,
			Name:     src.Name,
			Children: children,
		}
		decompose(src, &node)
		layout.nodes = append(layout.nodes, node)
	}

	for child, parent := range parents {
		p := parent
		layout.nodes[child].Parent = &p
	}

	return layout, nil
}

// decompose fills the node's transform fields from the source node.
// A non-identity matrix wins over the TRS fields, matching the glTF
// rule that a node carries one or the other.
func decompose(src *gltf.Node, node *Node) {
	r := src.RotationOrDefault()

	node.Translation = mgl32.Vec3(src.TranslationOrDefault())
	node.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	node.Scale = mgl32.Vec3(src.ScaleOrDefault())

	if m := src.MatrixOrDefault(); m != identity {
		node.Local = mgl32.Mat4(m)
		return
	}
	node.Local = ComposeTRS(node.Translation, node.Rotation, node.Scale)
}

// ComposeTRS builds a local transform applying scale, then rotation,
// then translation.
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	translate := mgl32.Translate3D(t.X(), t.Y(), t.Z())
	rotate := r.Mat4()
	scale := mgl32.Scale3D(s.X(), s.Y(), s.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

// Len returns the number of nodes.
func (l *NodeLayout) Len() int { return len(l.nodes) }

// Nodes returns the flattened nodes in document order. The slice is
// shared; treat it as read-only.
func (l *NodeLayout) Nodes() []Node { return l.nodes }

// Node returns the node at index i.
func (l *NodeLayout) Node(i NodeIndex) Node { return l.nodes[i] }

// MeshNodes returns the nodes that instantiate mesh m, in document
// order. Nil when nothing references the mesh.
func (l *NodeLayout) MeshNodes(m MeshIndex) []NodeIndex { return l.meshNodes[m] }

// NodeMesh returns the mesh instantiated by node n, if any.
func (l *NodeLayout) NodeMesh(n NodeIndex) (MeshIndex, bool) {
	m, ok := l.nodeMesh[n]
	return m, ok
}

// WorldTransform resolves the node-to-world transform by walking the
// parent chain. The walk is bounded by the node count, so a malformed
// parent cycle terminates instead of spinning.
func (l *NodeLayout) WorldTransform(n NodeIndex) mgl32.Mat4 {
	transform := l.nodes[n].Local
	steps := 0
	for parent := l.nodes[n].Parent; parent != nil; parent = l.nodes[*parent].Parent {
		transform = l.nodes[*parent].Local.Mul4(transform)
		if steps++; steps > len(l.nodes) {
			break
		}
	}
	return transform
}
