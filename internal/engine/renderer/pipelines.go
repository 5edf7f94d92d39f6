package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"

	"github.com/hollowtree/prism/internal/engine/mesh"
)

// packedVertexLayout exposes the subset of the packed vertex stream
// that the forward pass consumes. The stride still covers the full
// layout, so tangent and skin data ride along untouched.
func packedVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: mesh.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: mesh.OffsetPosition, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: mesh.OffsetNormal, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: mesh.OffsetTexCoord0, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: mesh.OffsetColor, ShaderLocation: 3},
		},
	}
}

// instanceLayout feeds one model matrix per instance as four vec4
// columns.
func instanceLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 64,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 4},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 6},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 7},
		},
	}
}

// overlayVertexLayout is the position-only stream for debug lines.
func overlayVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 12,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
}

func (r *Renderer) createPipelines() error {
	raw := r.device.Raw()

	meshModule, err := raw.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "mesh.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: meshShaderSource},
	})
	if err != nil {
		return errors.Wrap(err, "compiling mesh shader")
	}
	defer meshModule.Release()

	flatModule, err := raw.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "flat.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: flatShaderSource},
	})
	if err != nil {
		return errors.Wrap(err, "compiling flat shader")
	}
	defer flatModule.Release()

	meshLayout, err := raw.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "renderer/mesh",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.cameraLayout, r.device.TextureLayout()},
	})
	if err != nil {
		return errors.Wrap(err, "creating mesh pipeline layout")
	}
	defer meshLayout.Release()

	flatLayout, err := raw.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "renderer/flat",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.cameraLayout},
	})
	if err != nil {
		return errors.Wrap(err, "creating flat pipeline layout")
	}
	defer flatLayout.Release()

	r.opaquePipeline, err = r.meshPipeline(raw, "renderer/opaque", meshModule, meshLayout, false)
	if err != nil {
		return err
	}
	r.blendPipeline, err = r.meshPipeline(raw, "renderer/blend", meshModule, meshLayout, true)
	if err != nil {
		return err
	}
	r.flatPipeline, err = r.overlayPipeline(raw, flatModule, flatLayout)
	return err
}

// meshPipeline builds the forward pipeline. The blend variant keeps
// depth testing but stops writing so stacked transparent surfaces
// still composite.
func (r *Renderer) meshPipeline(raw *wgpu.Device, label string, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, blend bool) (*wgpu.RenderPipeline, error) {
	target := wgpu.ColorTargetState{
		Format:    r.format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if blend {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	pipeline, err := raw.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{packedVertexLayout(), instanceLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: !blend,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating pipeline %s", label)
	}
	return pipeline, nil
}

// overlayPipeline draws line lists over the finished scene.
func (r *Renderer) overlayPipeline(raw *wgpu.Device, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) (*wgpu.RenderPipeline, error) {
	pipeline, err := raw.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "renderer/overlay",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{overlayVertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    r.format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyLineList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating overlay pipeline")
	}
	return pipeline, nil
}
