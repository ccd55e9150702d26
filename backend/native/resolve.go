package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh"
	"github.com/gogpu/trimesh/internal/shaders"
	"github.com/gogpu/trimesh/meshcore"
	"github.com/gogpu/wgpu/hal"
)

// MSAATarget implements meshcore.ResolveTarget.
//
// The triangle pass renders into a multisample color texture that the
// pass resolves into a single-sample texture. Resolve then draws a
// full-screen triangle sampling that texture onto the frame target with
// premultiplied source-over blending, so the meshes composite over what
// the target already holds.
//
// Textures are recreated only when the requested size changes.
type MSAATarget struct {
	adapter *HALAdapter
	format  gputypes.TextureFormat
	samples uint32

	msaaTex     hal.Texture
	msaaView    hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView
	msaaID      meshcore.TextureViewID
	resolveID   meshcore.TextureViewID
	width       uint32
	height      uint32

	// Blit pipeline.
	shader     *cachedModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler
	bindGroup  hal.BindGroup

	allocations int
}

// NewMSAATarget creates the blit pipeline of a multisample target. The
// textures are allocated by the first Prepare.
func NewMSAATarget(adapter *HALAdapter, format gputypes.TextureFormat, sampleCount uint32) (*MSAATarget, error) {
	if sampleCount < 2 {
		return nil, fmt.Errorf("native: MSAA target needs at least 2 samples, got %d", sampleCount)
	}
	t := &MSAATarget{adapter: adapter, format: format, samples: sampleCount}
	if err := t.createBlitPipeline(); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

func (t *MSAATarget) createBlitPipeline() error {
	device := t.adapter.device

	spirv, err := shaders.Blit()
	if err != nil {
		return fmt.Errorf("native: %w", err)
	}
	t.shader, err = t.adapter.modules.acquire(spirv, func() (hal.ShaderModule, error) {
		return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "trimesh_blit_shader",
			Source: hal.ShaderSource{SPIRV: spirv},
		})
	})
	if err != nil {
		return fmt.Errorf("native: create blit shader: %w", err)
	}

	// Bind group layout:
	//   Binding 0: resolved texture (texture_2d, fragment)
	//   Binding 1: sampler (fragment)
	t.layout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "trimesh_blit_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create blit layout: %w", err)
	}

	t.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "trimesh_blit_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{t.layout},
	})
	if err != nil {
		return fmt.Errorf("native: create blit pipeline layout: %w", err)
	}

	t.sampler, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "trimesh_blit_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("native: create blit sampler: %w", err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	t.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "trimesh_blit_pipeline",
		Layout: t.pipeLayout,
		Vertex: hal.VertexState{
			Module:     t.shader.module,
			EntryPoint: shaders.VertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     t.shader.module,
			EntryPoint: shaders.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    t.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("native: create blit pipeline: %w", err)
	}
	return nil
}

// SampleCount returns the sample count of the multisample attachment.
func (t *MSAATarget) SampleCount() uint32 { return t.samples }

// Size returns the current texture size, 0x0 before the first Prepare.
func (t *MSAATarget) Size() (width, height uint32) { return t.width, t.height }

// Allocations returns how many times the textures have been (re)created.
func (t *MSAATarget) Allocations() int { return t.allocations }

// Prepare returns the multisample attachment and its resolve texture for a
// width x height target.
func (t *MSAATarget) Prepare(width, height uint32) (attachment, resolve meshcore.TextureViewID, err error) {
	if width == 0 || height == 0 {
		return meshcore.InvalidID, meshcore.InvalidID, fmt.Errorf("native: MSAA target size %dx%d", width, height)
	}
	if err := t.ensureTextures(width, height); err != nil {
		return meshcore.InvalidID, meshcore.InvalidID, err
	}
	return t.msaaID, t.resolveID, nil
}

// ensureTextures creates or recreates textures if the requested dimensions
// differ from the current size. If dimensions match and textures exist,
// this is a no-op.
func (t *MSAATarget) ensureTextures(w, h uint32) error {
	if t.width == w && t.height == h && t.msaaTex != nil {
		return nil
	}
	t.destroyTextures()

	device := t.adapter.device
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "trimesh_msaa_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   t.samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("native: create MSAA color texture: %w", err)
	}
	t.msaaTex = msaaTex

	msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
		Label: "trimesh_msaa_color_view",
	})
	if err != nil {
		t.destroyTextures()
		return fmt.Errorf("native: create MSAA color view: %w", err)
	}
	t.msaaView = msaaView

	// Single-sample resolve destination, sampled by the blit.
	resolveTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "trimesh_msaa_resolve",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.destroyTextures()
		return fmt.Errorf("native: create resolve texture: %w", err)
	}
	t.resolveTex = resolveTex

	resolveView, err := device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
		Label: "trimesh_msaa_resolve_view",
	})
	if err != nil {
		t.destroyTextures()
		return fmt.Errorf("native: create resolve view: %w", err)
	}
	t.resolveView = resolveView

	t.bindGroup, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "trimesh_blit_bind_group",
		Layout: t.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: resolveView.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: t.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		t.destroyTextures()
		return fmt.Errorf("native: create blit bind group: %w", err)
	}

	t.msaaID = t.adapter.RegisterTextureView(msaaView)
	t.resolveID = t.adapter.RegisterTextureView(resolveView)
	t.width = w
	t.height = h
	t.allocations++

	trimesh.Logger().Debug("trimesh: MSAA target allocated",
		"width", w, "height", h, "samples", t.samples)
	return nil
}

// Resolve composites the resolved image onto target.
func (t *MSAATarget) Resolve(rec meshcore.CommandRecorder, target meshcore.TextureViewID) error {
	r, ok := rec.(*Recorder)
	if !ok || r.adapter != t.adapter {
		return ErrForeignRecorder
	}
	if r.closed {
		return ErrRecorderClosed
	}
	if t.bindGroup == nil {
		return fmt.Errorf("native: resolve before Prepare")
	}
	view, ok := t.adapter.textureView(target)
	if !ok {
		return fmt.Errorf("%w: target view %d", ErrUnknownResource, target)
	}

	rp := r.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "trimesh_blit_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:    view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			},
		},
	})
	rp.SetPipeline(t.pipeline)
	rp.SetBindGroup(0, t.bindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	return nil
}

// destroyTextures releases all texture resources and resets dimensions.
func (t *MSAATarget) destroyTextures() {
	device := t.adapter.device
	if t.bindGroup != nil {
		device.DestroyBindGroup(t.bindGroup)
		t.bindGroup = nil
	}
	if t.resolveID != meshcore.InvalidID {
		t.adapter.UnregisterTextureView(t.resolveID)
		t.resolveID = meshcore.InvalidID
	}
	if t.msaaID != meshcore.InvalidID {
		t.adapter.UnregisterTextureView(t.msaaID)
		t.msaaID = meshcore.InvalidID
	}
	if t.resolveView != nil {
		device.DestroyTextureView(t.resolveView)
		t.resolveView = nil
	}
	if t.resolveTex != nil {
		device.DestroyTexture(t.resolveTex)
		t.resolveTex = nil
	}
	if t.msaaView != nil {
		device.DestroyTextureView(t.msaaView)
		t.msaaView = nil
	}
	if t.msaaTex != nil {
		device.DestroyTexture(t.msaaTex)
		t.msaaTex = nil
	}
	t.width = 0
	t.height = 0
}

// Destroy releases the textures and the blit pipeline.
func (t *MSAATarget) Destroy() {
	t.destroyTextures()

	device := t.adapter.device
	if t.pipeline != nil {
		device.DestroyRenderPipeline(t.pipeline)
		t.pipeline = nil
	}
	if t.sampler != nil {
		device.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.pipeLayout != nil {
		device.DestroyPipelineLayout(t.pipeLayout)
		t.pipeLayout = nil
	}
	if t.layout != nil {
		device.DestroyBindGroupLayout(t.layout)
		t.layout = nil
	}
	if t.shader != nil {
		if t.adapter.modules.release(t.shader) {
			device.DestroyShaderModule(t.shader.module)
		}
		t.shader = nil
	}
}

var _ meshcore.ResolveTarget = (*MSAATarget)(nil)
