// Package renderer draws staged scene packs with WebGPU.
package renderer

import (
	_ "embed"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hollowtree/prism/internal/engine/asset"
	"github.com/hollowtree/prism/internal/engine/debug"
	"github.com/hollowtree/prism/internal/engine/gpu"
	"github.com/hollowtree/prism/internal/logger"
)

//go:embed shaders/mesh.wgsl
var meshShaderSource string

//go:embed shaders/flat.wgsl
var flatShaderSource string

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	VSync      bool
	ClearColor [3]uint8
}

// Renderer owns the surface configuration, the depth buffer, and the
// pipelines drawing staged packs.
type Renderer struct {
	config Config

	device    *gpu.NativeDevice
	adapter   *wgpu.Adapter
	surface   *wgpu.Surface
	format    wgpu.TextureFormat
	alphaMode wgpu.CompositeAlphaMode
	clear     wgpu.Color

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	// Camera uniform shared by every pipeline
	cameraBuffer gpu.Buffer
	cameraLayout *wgpu.BindGroupLayout
	cameraGroup  *wgpu.BindGroup

	// Fallback binding for untextured draws
	whiteGroup gpu.BindGroup

	opaquePipeline *wgpu.RenderPipeline
	blendPipeline  *wgpu.RenderPipeline
	flatPipeline   *wgpu.RenderPipeline
}

// New creates a renderer on an open device and configures the surface.
func New(device *gpu.NativeDevice, adapter *wgpu.Adapter, surface *wgpu.Surface, cfg Config) (*Renderer, error) {
	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		return nil, errors.New("surface reports no texture formats")
	}

	r := &Renderer{
		config:  cfg,
		device:  device,
		adapter: adapter,
		surface: surface,
		format:  caps.Formats[0],
		clear: wgpu.Color{
			R: float64(cfg.ClearColor[0]) / 255,
			G: float64(cfg.ClearColor[1]) / 255,
			B: float64(cfg.ClearColor[2]) / 255,
			A: 1,
		},
	}
	if len(caps.AlphaModes) > 0 {
		r.alphaMode = caps.AlphaModes[0]
	}

	r.configureSurface(cfg.Width, cfg.Height)
	if err := r.createDepthTexture(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	if err := r.createCameraBinding(); err != nil {
		return nil, err
	}
	if err := r.createFallbackTexture(); err != nil {
		return nil, err
	}
	if err := r.createPipelines(); err != nil {
		return nil, err
	}

	logger.Info("renderer ready",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Uint32("surface_format", uint32(r.format)),
		zap.Bool("vsync", cfg.VSync))

	return r, nil
}

func (r *Renderer) presentMode() wgpu.PresentMode {
	if r.config.VSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}

func (r *Renderer) configureSurface(width, height int) {
	r.surface.Configure(r.adapter, r.device.Raw(), &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: r.presentMode(),
		AlphaMode:   r.alphaMode,
	})
}

func (r *Renderer) createDepthTexture(width, height int) error {
	if r.depthView != nil {
		r.depthView.Release()
		r.depthView = nil
	}
	if r.depthTexture != nil {
		r.depthTexture.Release()
		r.depthTexture = nil
	}

	texture, err := r.device.Raw().CreateTexture(&wgpu.TextureDescriptor{
		Label: "renderer/depth",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return errors.Wrap(err, "creating depth texture")
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return errors.Wrap(err, "creating depth view")
	}

	r.depthTexture = texture
	r.depthView = view
	return nil
}

func (r *Renderer) createCameraBinding() error {
	layout, err := r.device.Raw().CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "renderer/camera",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}},
	})
	if err != nil {
		return errors.Wrap(err, "creating camera layout")
	}
	r.cameraLayout = layout

	buffer, err := r.device.CreateBuffer("renderer/camera", make([]byte, 64), gpu.BufferUsageUniform|gpu.BufferUsageCopyDst)
	if err != nil {
		return errors.Wrap(err, "creating camera buffer")
	}
	r.cameraBuffer = buffer

	group, err := r.device.Raw().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "renderer/camera",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buffer.(*gpu.NativeBuffer).Raw(),
			Offset:  0,
			Size:    wgpu.WholeSize,
		}},
	})
	if err != nil {
		return errors.Wrap(err, "creating camera bind group")
	}
	r.cameraGroup = group
	return nil
}

// createFallbackTexture uploads a single white pixel. Untextured draws
// bind it so one pipeline serves both cases, and the vertex color
// carries the material tint.
func (r *Renderer) createFallbackTexture() error {
	texture, err := r.device.CreateTexture("renderer/white", 1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		return errors.Wrap(err, "creating fallback texture")
	}
	sampler, err := r.device.CreateSampler("renderer/white")
	if err != nil {
		return errors.Wrap(err, "creating fallback sampler")
	}
	group, err := r.device.CreateTextureBindGroup("renderer/white", texture, sampler)
	if err != nil {
		return errors.Wrap(err, "creating fallback bind group")
	}
	r.whiteGroup = group
	return nil
}

// Resize reconfigures the surface and rebuilds the depth buffer.
// Zero sizes are ignored so a minimized window keeps the old state.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	r.config.Width, r.config.Height = width, height
	r.configureSurface(width, height)
	return r.createDepthTexture(width, height)
}

// Render stages every pack and draws one frame: opaque packs first,
// then transparent ones, then debug overlays on top.
func (r *Renderer) Render(cameraUniform []byte, scene *asset.Registry, clock asset.Clock, overlays []*debug.Overlay) error {
	if err := r.device.WriteBuffer(r.cameraBuffer, cameraUniform); err != nil {
		return errors.Wrap(err, "updating camera uniform")
	}

	frame, err := r.surface.GetCurrentTexture()
	if err != nil {
		return errors.Wrap(err, "acquiring frame")
	}
	defer frame.Release()

	view, err := frame.CreateView(nil)
	if err != nil {
		return errors.Wrap(err, "creating frame view")
	}
	defer view.Release()

	encoder, err := r.device.Raw().CreateCommandEncoder(nil)
	if err != nil {
		return errors.Wrap(err, "creating command encoder")
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: r.clear,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})

	pass.SetBindGroup(0, r.cameraGroup, nil)

	pass.SetPipeline(r.opaquePipeline)
	for _, pack := range scene.Opaque() {
		if err := r.drawPack(pass, pack, clock); err != nil {
			return err
		}
	}

	pass.SetPipeline(r.blendPipeline)
	for _, pack := range scene.Transparent() {
		if err := r.drawPack(pass, pack, clock); err != nil {
			return err
		}
	}

	if len(overlays) > 0 {
		pass.SetPipeline(r.flatPipeline)
		for _, overlay := range overlays {
			pass.SetVertexBuffer(0, rawBuffer(overlay.VertexBuffer), 0, wgpu.WholeSize)
			pass.SetIndexBuffer(rawBuffer(overlay.IndexBuffer), nativeIndexFormat(overlay.IndexFormat), 0, wgpu.WholeSize)
			pass.DrawIndexed(overlay.IndexCount, 1, 0, 0, 0)
		}
	}

	pass.End()

	commands, err := encoder.Finish(nil)
	if err != nil {
		return errors.Wrap(err, "encoding frame")
	}
	r.device.RawQueue().Submit(commands)
	commands.Release()

	r.surface.Present()
	return nil
}

func (r *Renderer) drawPack(pass *wgpu.RenderPassEncoder, p *asset.Pack, clock asset.Clock) error {
	records, err := p.Stage(clock)
	if err != nil {
		return errors.Wrapf(err, "staging %s", p.Name)
	}

	for _, record := range records {
		group := r.whiteGroup
		if record.ColorTexture != nil {
			group = record.ColorTexture
		}
		pass.SetBindGroup(1, group.(*gpu.NativeBindGroup).Raw(), nil)

		pass.SetVertexBuffer(0, rawBuffer(record.VertexBuffer), 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, rawBuffer(record.InstanceBuffer), 0, wgpu.WholeSize)

		if record.Indexed() {
			pass.SetIndexBuffer(rawBuffer(record.IndexBuffer), nativeIndexFormat(record.IndexFormat), 0, wgpu.WholeSize)
			pass.DrawIndexed(uint32(record.IndexCount), uint32(record.InstanceCount), 0, 0, 0)
		} else {
			pass.Draw(uint32(record.VertexCount), uint32(record.InstanceCount), 0, 0)
		}
	}
	return nil
}

// Release frees renderer-owned GPU objects. Pack resources belong to
// their packs.
func (r *Renderer) Release() {
	for _, p := range []*wgpu.RenderPipeline{r.opaquePipeline, r.blendPipeline, r.flatPipeline} {
		if p != nil {
			p.Release()
		}
	}
	r.opaquePipeline, r.blendPipeline, r.flatPipeline = nil, nil, nil

	if r.cameraGroup != nil {
		r.cameraGroup.Release()
		r.cameraGroup = nil
	}
	if r.cameraLayout != nil {
		r.cameraLayout.Release()
		r.cameraLayout = nil
	}
	if buffer, ok := r.cameraBuffer.(*gpu.NativeBuffer); ok {
		buffer.Release()
		r.cameraBuffer = nil
	}
	if r.depthView != nil {
		r.depthView.Release()
		r.depthView = nil
	}
	if r.depthTexture != nil {
		r.depthTexture.Release()
		r.depthTexture = nil
	}
}

func rawBuffer(b gpu.Buffer) *wgpu.Buffer {
	return b.(*gpu.NativeBuffer).Raw()
}

func nativeIndexFormat(f gpu.IndexFormat) wgpu.IndexFormat {
	if f == gpu.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}
