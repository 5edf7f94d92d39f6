// Package debug builds wireframe overlays for scene inspection.
package debug

import (
	"encoding/binary"
	gomath "math"

	"github.com/pkg/errors"

	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/engine/mesh"
)

// Overlay holds GPU-resident line geometry drawn by the flat pipeline.
type Overlay struct {
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	IndexFormat  gpu.IndexFormat
	IndexCount   uint32
}

// boxEdges pairs bounding box corners into 12 edges. Corner order
// follows mesh.AABB.Corners: bottom ring first, then the top ring.
var boxEdges = [24]uint16{
	// Bottom face
	0, 1, 1, 2, 2, 3, 3, 0,
	// Top face
	4, 5, 5, 6, 6, 7, 7, 4,
	// Vertical edges
	0, 4, 1, 5, 2, 6, 3, 7,
}

// NewBoxOverlay uploads the wireframe for a bounding box. Eight
// corners always fit a 16-bit index buffer.
func NewBoxOverlay(device gpu.Device, label string, box mesh.AABB) (*Overlay, error) {
	corners := box.Corners()

	vertexData := make([]byte, 0, len(corners)*12)
	for _, corner := range corners {
		for _, v := range corner {
			vertexData = binary.LittleEndian.AppendUint32(vertexData, gomath.Float32bits(v))
		}
	}
	vertexBuffer, err := device.CreateBuffer(label+"/corners", vertexData, gpu.BufferUsageVertex)
	if err != nil {
		return nil, errors.Wrap(err, "uploading box corners")
	}

	indexData := make([]byte, 0, len(boxEdges)*2)
	for _, i := range boxEdges {
		indexData = binary.LittleEndian.AppendUint16(indexData, i)
	}
	indexBuffer, err := device.CreateBuffer(label+"/edges", indexData, gpu.BufferUsageIndex)
	if err != nil {
		return nil, errors.Wrap(err, "uploading box edges")
	}

	return &Overlay{
		VertexBuffer: vertexBuffer,
		IndexBuffer:  indexBuffer,
		IndexFormat:  gpu.IndexFormatFor(len(corners)),
		IndexCount:   uint32(len(boxEdges)),
	}, nil
}
