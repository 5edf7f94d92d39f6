// Package gputest provides an in-memory gpu.Device so asset staging
// can be exercised without a graphics adapter.
package gputest

import (
	"github.com/pkg/errors"

	"github.com/hollowtree/prism/internal/engine/gpu"
)

// Buffer records the bytes uploaded through the fake device.
type Buffer struct {
	Label  string
	Usage  gpu.BufferUsage
	Data   []byte
	Writes int // WriteBuffer calls after creation
}

func (b *Buffer) ByteLen() int { return len(b.Data) }

// Texture records the pixels uploaded through the fake device.
type Texture struct {
	Label  string
	Width  uint32
	Height uint32
	Pixels []byte
}

func (t *Texture) Size() (uint32, uint32) { return t.Width, t.Height }

// Sampler is a created sampler handle.
type Sampler struct {
	Label string
}

// BindGroup records which texture and sampler were bound together.
type BindGroup struct {
	Label   string
	Texture *Texture
	Sampler *Sampler
}

// Device implements gpu.Device and keeps every created resource for
// inspection.
type Device struct {
	Buffers    []*Buffer
	Textures   []*Texture
	Samplers   []*Sampler
	BindGroups []*BindGroup
}

// New returns an empty recording device.
func New() *Device {
	return &Device{}
}

func (d *Device) CreateBuffer(label string, contents []byte, usage gpu.BufferUsage) (gpu.Buffer, error) {
	buf := &Buffer{
		Label: label,
		Usage: usage,
		Data:  append([]byte(nil), contents...),
	}
	d.Buffers = append(d.Buffers, buf)
	return buf, nil
}

func (d *Device) WriteBuffer(buffer gpu.Buffer, data []byte) error {
	buf, ok := buffer.(*Buffer)
	if !ok {
		return errors.Errorf("buffer %T was not created by this device", buffer)
	}
	buf.Data = append(buf.Data[:0], data...)
	buf.Writes++
	return nil
}

func (d *Device) CreateTexture(label string, width, height uint32, rgba []byte) (gpu.Texture, error) {
	if want := int(width) * int(height) * 4; len(rgba) != want {
		return nil, errors.Errorf("texture %q: expected %d bytes, got %d", label, want, len(rgba))
	}
	tex := &Texture{
		Label:  label,
		Width:  width,
		Height: height,
		Pixels: append([]byte(nil), rgba...),
	}
	d.Textures = append(d.Textures, tex)
	return tex, nil
}

func (d *Device) CreateSampler(label string) (gpu.Sampler, error) {
	s := &Sampler{Label: label}
	d.Samplers = append(d.Samplers, s)
	return s, nil
}

func (d *Device) CreateTextureBindGroup(label string, texture gpu.Texture, sampler gpu.Sampler) (gpu.BindGroup, error) {
	tex, ok := texture.(*Texture)
	if !ok {
		return nil, errors.Errorf("texture %T was not created by this device", texture)
	}
	s, ok := sampler.(*Sampler)
	if !ok {
		return nil, errors.Errorf("sampler %T was not created by this device", sampler)
	}
	bg := &BindGroup{Label: label, Texture: tex, Sampler: s}
	d.BindGroups = append(d.BindGroups, bg)
	return bg, nil
}
