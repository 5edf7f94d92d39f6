// Package gpu abstracts the slice of the graphics device that scene
// preparation needs. Loaders talk to a Device instead of a concrete
// adapter, so staging can run headless in tests.
package gpu

import "math"

// BufferUsage describes how a buffer will be bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopyDst
)

// IndexFormat is the element width of an index buffer.
type IndexFormat uint8

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

func (f IndexFormat) String() string {
	if f == IndexFormatUint16 {
		return "uint16"
	}
	return "uint32"
}

// IndexFormatFor picks the narrowest index width that can address
// vertexCount vertices.
func IndexFormatFor(vertexCount int) IndexFormat {
	if vertexCount > math.MaxUint16 {
		return IndexFormatUint32
	}
	return IndexFormatUint16
}

// Buffer is GPU memory created through a Device.
type Buffer interface {
	// ByteLen reports the length of the uploaded contents.
	ByteLen() int
}

// Texture is a sampled 2D color texture.
type Texture interface {
	Size() (width, height uint32)
}

// Sampler configures texture filtering and addressing.
type Sampler interface{}

// BindGroup ties a texture and sampler to shader bindings.
type BindGroup interface{}

// Device creates and updates GPU resources. NewNativeDevice wraps a
// real WebGPU device; the gputest package provides an in-memory one.
type Device interface {
	CreateBuffer(label string, contents []byte, usage BufferUsage) (Buffer, error)
	WriteBuffer(buffer Buffer, data []byte) error
	CreateTexture(label string, width, height uint32, rgba []byte) (Texture, error)
	CreateSampler(label string) (Sampler, error)
	CreateTextureBindGroup(label string, texture Texture, sampler Sampler) (BindGroup, error)
}
