package asset

import (
	"encoding/binary"
	"fmt"
	gomath "math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/engine/mesh"
)

// Clock provides elapsed seconds since a fixed start instant.
type Clock interface {
	Elapsed() float32
}

// WallClock measures elapsed time from its creation instant.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock { return &WallClock{start: time.Now()} }

func (c *WallClock) Elapsed() float32 { return float32(time.Since(c.start).Seconds()) }

// StagedDraw is one primitive's GPU-ready draw state: geometry and
// instance buffers plus the color texture binding, sized for an
// instanced draw call.
type StagedDraw struct {
	VertexBuffer   gpu.Buffer
	IndexBuffer    gpu.Buffer // nil for unindexed primitives
	IndexFormat    gpu.IndexFormat
	InstanceBuffer gpu.Buffer
	ColorTexture   gpu.BindGroup // nil when the material has no base color texture

	VertexCount   int
	IndexCount    int
	InstanceCount int
}

// Indexed reports whether the draw goes through the index buffer.
func (d *StagedDraw) Indexed() bool { return d.IndexBuffer != nil }

// Stager uploads and caches draw state for one pack. Static
// primitives are staged exactly once; animated primitives get their
// instance transforms re-evaluated on every refresh.
type Stager struct {
	pack   *Pack
	device gpu.Device
	staged []*StagedDraw
}

func NewStager(pack *Pack, device gpu.Device) *Stager {
	return &Stager{
		pack:   pack,
		device: device,
		staged: make([]*StagedDraw, len(pack.Primitives)),
	}
}

// Refresh returns the staged record for primitive i, uploading it on
// first use. A cached static record is returned as is; an animated
// one gets its instance buffer rewritten at the clock's elapsed time.
func (s *Stager) Refresh(i int, clock Clock) (*StagedDraw, error) {
	if i >= len(s.staged) {
		grown := make([]*StagedDraw, len(s.pack.Primitives))
		copy(grown, s.staged)
		s.staged = grown
	}
	prim := &s.pack.Primitives[i]

	cached := s.staged[i]
	if cached != nil && !prim.Animated() {
		return cached, nil
	}

	instances, err := s.instanceData(prim, clock)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		// Geometry never changes after the first staging, so an
		// animated refresh only rewrites the instance transforms.
		if err := s.device.WriteBuffer(cached.InstanceBuffer, instances); err != nil {
			return nil, err
		}
		return cached, nil
	}

	record, err := s.stage(i, prim, instances)
	if err != nil {
		return nil, err
	}
	s.staged[i] = record
	return record, nil
}

// Iterate refreshes every primitive and returns the staged records in
// primitive order.
func (s *Stager) Iterate(clock Clock) ([]*StagedDraw, error) {
	records := make([]*StagedDraw, 0, len(s.pack.Primitives))
	for i := range s.pack.Primitives {
		record, err := s.Refresh(i, clock)
		if err != nil {
			return nil, errors.Wrapf(err, "%s primitive %d", s.pack.Name, i)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Stager) stage(i int, prim *Primitive, instances []byte) (*StagedDraw, error) {
	label := fmt.Sprintf("%s/primitive/%d", s.pack.Name, i)
	r := prim.Range

	vertexBuf, err := s.device.CreateBuffer(label+"/vertices",
		mesh.EncodeVertices(s.pack.Vertices[r.VertexStart:r.VertexEnd]), gpu.BufferUsageVertex)
	if err != nil {
		return nil, err
	}

	var indexBuf gpu.Buffer
	if prim.Indexed() {
		indexBuf, err = s.device.CreateBuffer(label+"/indices",
			encodeIndices(s.pack.Indices[r.IndexStart:r.IndexEnd]), gpu.BufferUsageIndex)
		if err != nil {
			return nil, err
		}
	}

	instanceBuf, err := s.device.CreateBuffer(label+"/instances", instances,
		gpu.BufferUsageVertex|gpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	record := &StagedDraw{
		VertexBuffer:   vertexBuf,
		IndexBuffer:    indexBuf,
		IndexFormat:    gpu.IndexFormatUint32, // packed ranges always address with 32 bits
		InstanceBuffer: instanceBuf,
		VertexCount:    prim.VertexCount(),
		IndexCount:     prim.IndexCount(),
		InstanceCount:  prim.InstanceCount(),
	}
	if ref := prim.Material.ColorTexture; ref != nil {
		record.ColorTexture = s.pack.BindGroups[ref.Image]
	}
	return record, nil
}

// instanceData builds the instance-transform stream: each resting
// transform composed with its channels' sampled values, channel by
// channel in document order.
func (s *Stager) instanceData(prim *Primitive, clock Clock) ([]byte, error) {
	elapsed := clock.Elapsed()
	data := make([]byte, 0, prim.InstanceCount()*16*4)
	for i, resting := range prim.InstanceTransforms {
		transform := resting
		for _, ch := range prim.InstanceChannels[i] {
			value, err := ch.Interpolate(elapsed)
			if err != nil {
				return nil, errors.Wrapf(err, "node %d", ch.Node)
			}
			transform = transform.Mul4(value.Matrix())
		}
		data = appendMat4(data, transform)
	}
	return data, nil
}

func appendMat4(dst []byte, m mgl32.Mat4) []byte {
	for _, v := range m {
		dst = binary.LittleEndian.AppendUint32(dst, gomath.Float32bits(v))
	}
	return dst
}

func encodeIndices(indices []uint32) []byte {
	data := make([]byte, 0, len(indices)*4)
	for _, idx := range indices {
		data = binary.LittleEndian.AppendUint32(data, idx)
	}
	return data
}
