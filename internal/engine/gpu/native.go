package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// NativeDevice implements Device on top of WebGPU. It owns the bind
// group layout shared by every color texture, so pipelines and staged
// textures agree on bindings without any global state.
type NativeDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	textureLayout *wgpu.BindGroupLayout
}

// NewNativeDevice wraps an open device and its queue. The texture bind
// group layout is created eagerly because every textured draw needs it.
func NewNativeDevice(device *wgpu.Device, queue *wgpu.Queue) (*NativeDevice, error) {
	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Color Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					Multisampled:  false,
					ViewDimension: wgpu.TextureViewDimension2D,
					SampleType:    wgpu.TextureSampleTypeFloat,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating color bind group layout")
	}

	return &NativeDevice{
		device:        device,
		queue:         queue,
		textureLayout: layout,
	}, nil
}

// TextureLayout returns the bind group layout used by
// CreateTextureBindGroup. Pipelines sampling color textures must
// include it in their pipeline layout.
func (d *NativeDevice) TextureLayout() *wgpu.BindGroupLayout {
	return d.textureLayout
}

// Raw returns the underlying WebGPU device for pipeline construction.
func (d *NativeDevice) Raw() *wgpu.Device {
	return d.device
}

// RawQueue returns the underlying submission queue.
func (d *NativeDevice) RawQueue() *wgpu.Queue {
	return d.queue
}

// Release frees device-owned layout objects. Buffers and textures
// created through the device are released by their owners.
func (d *NativeDevice) Release() {
	if d.textureLayout != nil {
		d.textureLayout.Release()
		d.textureLayout = nil
	}
}

// NativeBuffer wraps a WebGPU buffer together with its upload size.
type NativeBuffer struct {
	raw  *wgpu.Buffer
	size int
}

func (b *NativeBuffer) ByteLen() int { return b.size }

// Raw returns the underlying WebGPU buffer for render encoding.
func (b *NativeBuffer) Raw() *wgpu.Buffer { return b.raw }

// Release frees the underlying buffer.
func (b *NativeBuffer) Release() {
	if b.raw != nil {
		b.raw.Release()
		b.raw = nil
	}
}

// NativeTexture wraps a WebGPU texture and its default view.
type NativeTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   uint32
	height  uint32
}

func (t *NativeTexture) Size() (uint32, uint32) { return t.width, t.height }

// View returns the texture view bound into texture bind groups.
func (t *NativeTexture) View() *wgpu.TextureView { return t.view }

// Release frees the view and texture.
func (t *NativeTexture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// NativeSampler wraps a WebGPU sampler.
type NativeSampler struct {
	raw *wgpu.Sampler
}

// Raw returns the underlying WebGPU sampler.
func (s *NativeSampler) Raw() *wgpu.Sampler { return s.raw }

// NativeBindGroup wraps a WebGPU bind group.
type NativeBindGroup struct {
	raw *wgpu.BindGroup
}

// Raw returns the underlying WebGPU bind group.
func (g *NativeBindGroup) Raw() *wgpu.BindGroup { return g.raw }

func (d *NativeDevice) CreateBuffer(label string, contents []byte, usage BufferUsage) (Buffer, error) {
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    nativeBufferUsage(usage),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating buffer %q", label)
	}
	return &NativeBuffer{raw: buf, size: len(contents)}, nil
}

func (d *NativeDevice) WriteBuffer(buffer Buffer, data []byte) error {
	native, ok := buffer.(*NativeBuffer)
	if !ok {
		return errors.Errorf("buffer %T was not created by this device", buffer)
	}
	if err := d.queue.WriteBuffer(native.raw, 0, data); err != nil {
		return errors.Wrap(err, "writing buffer")
	}
	return nil
}

func (d *NativeDevice) CreateTexture(label string, width, height uint32, rgba []byte) (Texture, error) {
	size := wgpu.Extent3D{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
	}

	texture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating texture %q", label)
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		rgba,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * width,
			RowsPerImage: height,
		},
		&size,
	)

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, errors.Wrapf(err, "creating view for texture %q", label)
	}

	return &NativeTexture{texture: texture, view: view, width: width, height: height}, nil
}

func (d *NativeDevice) CreateSampler(label string) (Sampler, error) {
	sampler, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   100,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating sampler %q", label)
	}
	return &NativeSampler{raw: sampler}, nil
}

func (d *NativeDevice) CreateTextureBindGroup(label string, texture Texture, sampler Sampler) (BindGroup, error) {
	nativeTexture, ok := texture.(*NativeTexture)
	if !ok {
		return nil, errors.Errorf("texture %T was not created by this device", texture)
	}
	nativeSampler, ok := sampler.(*NativeSampler)
	if !ok {
		return nil, errors.Errorf("sampler %T was not created by this device", sampler)
	}

	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: d.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding:     0,
				TextureView: nativeTexture.view,
			},
			{
				Binding: 1,
				Sampler: nativeSampler.raw,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating bind group %q", label)
	}
	return &NativeBindGroup{raw: group}, nil
}

func nativeBufferUsage(usage BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if usage&BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if usage&BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if usage&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if usage&BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}
