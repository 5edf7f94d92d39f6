// Package mesh assembles glTF mesh primitives into packed GPU
// vertices, batching the nodes that instance each mesh into parallel
// per-instance transform and animation lists.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/hollowtree/prism/internal/engine/animation"
	"github.com/hollowtree/prism/internal/engine/material"
	"github.com/hollowtree/prism/internal/engine/scene"
)

var white = [4]float32{1, 1, 1, 1}

// Primitive is one drawable geometry chunk. The instance slices are
// parallel: one resting world transform and one (possibly empty)
// channel list per node instancing the owning mesh, in document
// discovery order.
type Primitive struct {
	Vertices []Vertex
	Indices  []uint32 // nil when the source is unindexed
	Material material.Material
	Bounds   AABB
	Features FeatureMask

	InstanceTransforms []mgl32.Mat4
	InstanceChannels   [][]*animation.Channel
}

// InstanceCount returns the number of nodes instancing the primitive.
func (p *Primitive) InstanceCount() int { return len(p.InstanceTransforms) }

// Animated reports whether any instance is driven by animation
// channels.
func (p *Primitive) Animated() bool {
	for _, chs := range p.InstanceChannels {
		if len(chs) > 0 {
			return true
		}
	}
	return false
}

// Mesh is every assembled primitive of one document mesh, with the
// union of their bounds.
type Mesh struct {
	Index      scene.MeshIndex
	Name       string
	Primitives []Primitive
	Bounds     AABB
}

// Assembler builds meshes from one document, using the flattened node
// layout for instancing and the parsed clips for per-instance channel
// lookup.
type Assembler struct {
	doc    *gltf.Document
	layout *scene.NodeLayout
	clips  []*animation.Clip
}

func NewAssembler(doc *gltf.Document, layout *scene.NodeLayout, clips []*animation.Clip) *Assembler {
	return &Assembler{doc: doc, layout: layout, clips: clips}
}

// Assemble builds the mesh at index. Failing to read any referenced
// stream fails the whole mesh.
func (a *Assembler) Assemble(index scene.MeshIndex) (*Mesh, error) {
	if int(index) >= len(a.doc.Meshes) {
		return nil, errors.Errorf("mesh %d out of range (%d meshes)", index, len(a.doc.Meshes))
	}
	src := a.doc.Meshes[index]

	// Every primitive of the mesh shares the same instances.
	nodes := a.layout.MeshNodes(index)
	transforms := make([]mgl32.Mat4, 0, len(nodes))
	channels := make([][]*animation.Channel, 0, len(nodes))
	for _, n := range nodes {
		transforms = append(transforms, a.layout.WorldTransform(n))
		var chs []*animation.Channel
		for _, clip := range a.clips {
			chs = append(chs, clip.ChannelsFor(n)...)
		}
		channels = append(channels, chs)
	}

	out := &Mesh{Index: index, Name: src.Name}
	for pi, prim := range src.Primitives {
		p, err := a.assemblePrimitive(prim)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d primitive %d", index, pi)
		}
		p.InstanceTransforms = transforms
		p.InstanceChannels = channels

		if pi == 0 {
			out.Bounds = p.Bounds
		} else {
			out.Bounds = out.Bounds.Union(p.Bounds)
		}
		out.Primitives = append(out.Primitives, *p)
	}
	return out, nil
}

func (a *Assembler) assemblePrimitive(src *gltf.Primitive) (*Primitive, error) {
	doc := a.doc

	posIndex, ok := src.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("no position attribute")
	}
	posAcc, err := a.accessor(posIndex)
	if err != nil {
		return nil, errors.Wrap(err, "position")
	}
	positions, err := modeler.ReadPosition(doc, posAcc, nil)
	if err != nil {
		return nil, errors.Wrap(err, "position")
	}

	mat, err := material.Parse(doc, src.Material)
	if err != nil {
		return nil, err
	}

	mask := FeaturePosition

	var normals [][3]float32
	if idx, ok := src.Attributes[gltf.NORMAL]; ok {
		acc, err := a.accessor(idx)
		if err == nil {
			normals, err = modeler.ReadNormal(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "normal")
		}
		mask |= FeatureNormal
	}

	var tc0 [][2]float32
	if idx, ok := src.Attributes[gltf.TEXCOORD_0]; ok {
		acc, err := a.accessor(idx)
		if err == nil {
			tc0, err = modeler.ReadTextureCoord(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "tex coord 0")
		}
		mask |= FeatureTexCoord0
	}

	var tc1 [][2]float32
	if idx, ok := src.Attributes[gltf.TEXCOORD_1]; ok {
		acc, err := a.accessor(idx)
		if err == nil {
			tc1, err = modeler.ReadTextureCoord(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "tex coord 1")
		}
		mask |= FeatureTexCoord1
	}

	var tangents [][4]float32
	if idx, ok := src.Attributes[gltf.TANGENT]; ok {
		acc, err := a.accessor(idx)
		if err == nil {
			tangents, err = modeler.ReadTangent(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "tangent")
		}
		mask |= FeatureTangent
	}

	var weights [][4]float32
	if idx, ok := src.Attributes[gltf.WEIGHTS_0]; ok {
		acc, err := a.accessor(idx)
		if err == nil {
			weights, err = modeler.ReadWeights(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "weights")
		}
		mask |= FeatureWeights
	}

	var joints [][4]uint16
	if idx, ok := src.Attributes[gltf.JOINTS_0]; ok {
		acc, err := a.accessor(idx)
		if err == nil {
			joints, err = modeler.ReadJoints(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "joints")
		}
		mask |= FeatureJoints
	}

	var colors [][4]uint16
	if idx, ok := src.Attributes[gltf.COLOR_0]; ok {
		acc, err := a.accessor(idx)
		if err == nil {
			colors, err = modeler.ReadColor64(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "color")
		}
		mask |= FeatureColor
	}

	if mat.Color != white {
		// A tinted material shades through the vertex color channel
		// even when the source has none.
		mask |= FeatureColor
	}

	defaultColor := mgl32.Vec4(mat.Color)
	vertices := make([]Vertex, len(positions))
	for i := range vertices {
		v := &vertices[i]
		v.Position = mgl32.Vec3(positions[i])
		v.Normal = mgl32.Vec3{1, 1, 1}
		v.Tangent = mgl32.Vec4{1, 1, 1, 1}
		v.Color = defaultColor
		v.Features = mask

		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(tc0) {
			v.TexCoord0 = mgl32.Vec2(tc0[i])
		}
		if i < len(tc1) {
			v.TexCoord1 = mgl32.Vec2(tc1[i])
		}
		if i < len(tangents) {
			v.Tangent = mgl32.Vec4(tangents[i])
		}
		if i < len(weights) {
			v.Weights = mgl32.Vec4(weights[i])
		}
		if i < len(joints) {
			v.Joints = [4]uint32{
				uint32(joints[i][0]),
				uint32(joints[i][1]),
				uint32(joints[i][2]),
				uint32(joints[i][3]),
			}
		}
		if i < len(colors) {
			v.Color = mgl32.Vec4{
				float32(colors[i][0]) / 65535,
				float32(colors[i][1]) / 65535,
				float32(colors[i][2]) / 65535,
				float32(colors[i][3]) / 65535,
			}
		}
	}

	var indices []uint32
	if src.Indices != nil {
		acc, err := a.accessor(*src.Indices)
		if err == nil {
			indices, err = modeler.ReadIndices(doc, acc, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "indices")
		}
	}

	bounds, ok := accessorBounds(posAcc)
	if !ok {
		bounds = boundsOf(positions)
	}

	p := &Primitive{
		Vertices: vertices,
		Indices:  indices,
		Material: mat,
		Bounds:   bounds,
		Features: mask,
	}

	if len(positions) > 0 && mask.Has(FeatureNormal) && !mask.Has(FeatureTangent) &&
		(mask.Has(FeatureTexCoord0) || mask.Has(FeatureTexCoord1)) {
		generateTangents(p.Vertices, p.Indices)
	}
	return p, nil
}

func (a *Assembler) accessor(index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(a.doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range (%d accessors)", index, len(a.doc.Accessors))
	}
	return a.doc.Accessors[index], nil
}

// accessorBounds uses the accessor's declared min/max when both are
// present, sparing a pass over the positions.
func accessorBounds(acc *gltf.Accessor) (AABB, bool) {
	if len(acc.Min) != 3 || len(acc.Max) != 3 {
		return AABB{}, false
	}
	return AABB{
		Min: mgl32.Vec3{acc.Min[0], acc.Min[1], acc.Min[2]},
		Max: mgl32.Vec3{acc.Max[0], acc.Max[1], acc.Max[2]},
	}, true
}
