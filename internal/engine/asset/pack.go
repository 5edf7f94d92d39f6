// Package asset turns parsed glTF documents into GPU-resident packs:
// one shared vertex and index slice per asset with per-primitive
// ranges, uploaded textures, and per-frame staged draw records.
package asset

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/hollowtree/prism/internal/engine/animation"
	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/engine/material"
	"github.com/hollowtree/prism/internal/engine/mesh"
	"github.com/hollowtree/prism/internal/engine/scene"
	"github.com/hollowtree/prism/internal/logger"
)

// Load failure categories. Everything else that can go wrong during a
// load wraps one of the component errors instead.
var (
	ErrInvalidDocument = errors.New("invalid gltf document")
	ErrNoScene         = errors.New("document declares no scene")
	ErrInvalidPath     = errors.New("asset path unreadable")
)

// PrimitiveRange locates one primitive's geometry inside the pack's
// shared vertex and index slices, in elements.
type PrimitiveRange struct {
	VertexStart int
	VertexEnd   int
	IndexStart  int
	IndexEnd    int
}

// Primitive is one drawable chunk of a pack. Geometry lives in the
// pack's shared slices; the instance slices are parallel, one entry
// per node placing the owning mesh.
type Primitive struct {
	Mesh     scene.MeshIndex
	Material material.Material
	Features mesh.FeatureMask
	Bounds   mesh.AABB
	Range    PrimitiveRange

	InstanceTransforms []mgl32.Mat4
	InstanceChannels   [][]*animation.Channel
}

func (p *Primitive) VertexCount() int { return p.Range.VertexEnd - p.Range.VertexStart }

func (p *Primitive) IndexCount() int { return p.Range.IndexEnd - p.Range.IndexStart }

// Indexed reports whether the primitive draws through the shared index
// slice.
func (p *Primitive) Indexed() bool { return p.IndexCount() > 0 }

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

// Pack is one loaded asset: every referenced mesh assembled and packed
// into shared slices, every image uploaded, every primitive flattened
// in mesh order. Read-only once loaded.
type Pack struct {
	Name string
	Path string

	Layout *scene.NodeLayout
	Clips  []*animation.Clip

	Primitives []Primitive
	Vertices   []mesh.Vertex
	Indices    []uint32
	Bounds     mesh.AABB

	// Textures and BindGroups are parallel to the document's image
	// list.
	Textures   []gpu.Texture
	BindGroups []gpu.BindGroup

	stager      *Stager
	transparent bool
	meshCount   int
}

// Transparent reports whether any primitive blends, which routes the
// whole pack through the transparent pass.
func (p *Pack) Transparent() bool { return p.transparent }

// Stage refreshes the per-frame draw state and returns the staged
// records in primitive order.
func (p *Pack) Stage(clock Clock) ([]*StagedDraw, error) {
	return p.stager.Iterate(clock)
}

// Load reads and prepares the asset at path. Relative buffer and
// image URIs resolve against the file's directory.
func Load(path string, device gpu.Device) (*Pack, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, errors.Wrapf(ErrInvalidPath, "%s: %v", path, err)
		}
		return nil, errors.Wrapf(ErrInvalidDocument, "%s: %v", path, err)
	}
	return fromDocument(path, doc, device)
}

// FromBytes prepares an asset already resident in memory. name is
// used for diagnostics and for anchoring relative image URIs.
func FromBytes(name string, data []byte, device gpu.Device) (*Pack, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, errors.Wrapf(ErrInvalidDocument, "%s: %v", name, err)
	}
	return fromDocument(name, doc, device)
}

func fromDocument(path string, doc *gltf.Document, device gpu.Device) (*Pack, error) {
	if len(doc.Scenes) == 0 {
		return nil, errors.Wrap(ErrNoScene, path)
	}

	layout, err := scene.FromDocument(doc)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	clips, err := animation.ParseClips(doc)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	pack := &Pack{
		Name:   filepath.Base(path),
		Path:   path,
		Layout: layout,
		Clips:  clips,
	}

	assembler := mesh.NewAssembler(doc, layout, clips)
	for mi := range doc.Meshes {
		index := scene.MeshIndex(mi)
		if len(layout.MeshNodes(index)) == 0 {
			logger.Debug("skipping unreferenced mesh",
				zap.String("asset", pack.Name),
				zap.Int("mesh", mi))
			continue
		}
		m, err := assembler.Assemble(index)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		pack.addMesh(m)
	}

	if err := pack.uploadImages(doc, filepath.Dir(path), device); err != nil {
		return nil, errors.Wrap(err, path)
	}

	pack.stager = NewStager(pack, device)
	return pack, nil
}

// addMesh appends the mesh's primitives to the shared slices,
// recording per-primitive ranges and folding the pack bounds.
func (p *Pack) addMesh(m *mesh.Mesh) {
	for i := range m.Primitives {
		prim := &m.Primitives[i]

		r := PrimitiveRange{VertexStart: len(p.Vertices), IndexStart: len(p.Indices)}
		p.Vertices = append(p.Vertices, prim.Vertices...)
		p.Indices = append(p.Indices, prim.Indices...)
		r.VertexEnd = len(p.Vertices)
		r.IndexEnd = len(p.Indices)

		p.Primitives = append(p.Primitives, Primitive{
			Mesh:               m.Index,
			Material:           prim.Material,
			Features:           prim.Features,
			Bounds:             prim.Bounds,
			Range:              r,
			InstanceTransforms: prim.InstanceTransforms,
			InstanceChannels:   prim.InstanceChannels,
		})

		if prim.Material.AlphaMode == material.AlphaBlend {
			p.transparent = true
		}
	}

	if p.meshCount == 0 {
		p.Bounds = m.Bounds
	} else {
		p.Bounds = p.Bounds.Union(m.Bounds)
	}
	p.meshCount++
}

// uploadImages decodes every document image and creates its texture
// and color bind group. A single sampler serves the whole pack.
func (p *Pack) uploadImages(doc *gltf.Document, dir string, device gpu.Device) error {
	if len(doc.Images) == 0 {
		return nil
	}

	sampler, err := device.CreateSampler(p.Name)
	if err != nil {
		return err
	}

	p.Textures = make([]gpu.Texture, len(doc.Images))
	p.BindGroups = make([]gpu.BindGroup, len(doc.Images))
	for i := range doc.Images {
		rgba, err := decodeImage(doc, dir, i)
		if err != nil {
			return err
		}

		label := fmt.Sprintf("%s/image/%d", p.Name, i)
		bounds := rgba.Bounds()
		tex, err := device.CreateTexture(label, uint32(bounds.Dx()), uint32(bounds.Dy()), rgba.Pix)
		if err != nil {
			return errors.Wrapf(err, "image %d", i)
		}
		group, err := device.CreateTextureBindGroup(label, tex, sampler)
		if err != nil {
			return errors.Wrapf(err, "image %d", i)
		}
		p.Textures[i] = tex
		p.BindGroups[i] = group
	}
	return nil
}
