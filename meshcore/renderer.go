// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh"
	"github.com/gogpu/trimesh/internal/shaders"
)

// BatchRenderer draws batches of triangle meshes.
//
// It owns the triangle pipeline, the shared vertex, index and uniform
// buffers and, when antialiasing is enabled, the ResolveTarget.
type BatchRenderer struct {
	device Device
	log    *slog.Logger
	label  string
	format gputypes.TextureFormat
	aa     trimesh.Antialiasing

	// Uniform block stride; also the size of the bound uniform range.
	stride uint64

	vertexModule   ShaderModuleID
	fragmentModule ShaderModuleID
	uniformLayout  BindGroupLayoutID
	pipeLayout     PipelineLayoutID
	pipeline       RenderPipelineID
	uniforms       BindGroupID
	boundUniforms  BufferID // buffer the uniforms group was built over

	vertices *GrowableBuffer[trimesh.Vertex]
	indices  *GrowableBuffer[uint32]
	blocks   *GrowableBuffer[UniformBlock]

	resolve ResolveTarget

	// Per-frame scratch, reused across frames.
	pending []UniformBlock
	draws   []drawRange
	scratch []byte

	stats     FrameStats
	destroyed bool
}

// drawRange locates one mesh inside the shared buffers.
type drawRange struct {
	baseVertex int
	firstIndex int
	indexCount int
}

// FrameStats describes the last frame passed to Render.
type FrameStats struct {
	Meshes   int
	Draws    int
	Vertices int
	Indices  int

	// Writes is the number of staging belt writes issued.
	Writes int

	// UniformBytes is the size of the uniform upload.
	UniformBytes int

	VertexBufferGrown  bool
	IndexBufferGrown   bool
	UniformBufferGrown bool

	// Resolved reports whether the frame went through the ResolveTarget.
	Resolved bool
}

// Capacities reports the element capacities of the shared buffers.
type Capacities struct {
	Vertices int
	Indices  int
	Meshes   int
}

// New creates a BatchRenderer drawing into targets of the given format.
//
// Allocation failures are returned wrapped; the renderer cannot operate
// without its buffers and pipeline, so callers should treat them as fatal.
func New(device Device, format gputypes.TextureFormat, opts ...Option) (*BatchRenderer, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = trimesh.Logger()
	}

	stride, err := AlignedUniformSize(device.UniformAlignment())
	if err != nil {
		return nil, err
	}

	r := &BatchRenderer{
		device: device,
		log:    log,
		label:  o.label,
		format: format,
		aa:     o.antialiasing,
		stride: stride,
	}
	if err := r.init(&o); err != nil {
		r.Destroy()
		return nil, err
	}

	log.Info("trimesh: pipeline created",
		"label", r.label,
		"antialiasing", r.aa,
		"stride", r.stride,
		"vertices", o.vertexCapacity,
		"indices", o.indexCapacity,
		"meshes", o.uniformCapacity)
	return r, nil
}

func (r *BatchRenderer) init(o *options) error {
	if err := r.createShaders(o); err != nil {
		return err
	}

	var err error
	r.uniformLayout, err = r.device.CreateUniformLayout(&UniformLayoutDesc{
		Label:          r.label + "_uniform_layout",
		MinBindingSize: TransformSize,
	})
	if err != nil {
		return fmt.Errorf("meshcore: create uniform layout: %w", err)
	}

	r.pipeLayout, err = r.device.CreatePipelineLayout(r.label+"_pipe_layout", []BindGroupLayoutID{r.uniformLayout})
	if err != nil {
		return fmt.Errorf("meshcore: create pipeline layout: %w", err)
	}

	r.pipeline, err = r.device.CreateRenderPipeline(&RenderPipelineDesc{
		Label:              r.label + "_pipeline",
		Layout:             r.pipeLayout,
		VertexModule:       r.vertexModule,
		VertexEntryPoint:   shaders.VertexEntryPoint,
		FragmentModule:     r.fragmentModule,
		FragmentEntryPoint: shaders.FragmentEntryPoint,
		VertexBuffers:      vertexLayout(),
		Format:             r.format,
		Blend:              straightAlphaBlend(),
		SampleCount:        r.aa.SampleCount(),
	})
	if err != nil {
		return fmt.Errorf("meshcore: create render pipeline: %w", err)
	}

	r.vertices, err = NewGrowableBuffer[trimesh.Vertex](r.device, r.label+"_vertices",
		o.vertexCapacity, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.indices, err = NewGrowableBuffer[uint32](r.device, r.label+"_indices",
		o.indexCapacity, gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.blocks, err = NewGrowableBuffer[UniformBlock](r.device, r.label+"_uniforms",
		o.uniformCapacity, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	if err := r.bindUniforms(); err != nil {
		return err
	}

	if r.aa.Enabled() {
		r.resolve, err = r.device.CreateResolveTarget(r.format, r.aa.SampleCount())
		if err != nil {
			return fmt.Errorf("meshcore: create resolve target: %w", err)
		}
	}
	return nil
}

func (r *BatchRenderer) createShaders(o *options) error {
	if o.vertexShader == nil && o.fragmentShader == nil {
		spirv, err := shaders.Triangle()
		if err != nil {
			return fmt.Errorf("meshcore: %w", err)
		}
		r.vertexModule, err = r.device.CreateShaderModule(r.label+"_shader", spirv)
		if err != nil {
			return fmt.Errorf("meshcore: create shader module: %w", err)
		}
		r.fragmentModule = r.vertexModule
		return nil
	}

	if len(o.vertexShader) == 0 || len(o.fragmentShader) == 0 {
		return ErrEmptyShader
	}
	var err error
	r.vertexModule, err = r.device.CreateShaderModule(r.label+"_vs", o.vertexShader)
	if err != nil {
		return fmt.Errorf("meshcore: create vertex shader module: %w", err)
	}
	r.fragmentModule, err = r.device.CreateShaderModule(r.label+"_fs", o.fragmentShader)
	if err != nil {
		return fmt.Errorf("meshcore: create fragment shader module: %w", err)
	}
	return nil
}

// bindUniforms (re)creates the uniform bind group against the current
// uniform buffer. It must run after every growth of that buffer and
// before any draw of the frame references it.
func (r *BatchRenderer) bindUniforms() error {
	group, err := r.device.CreateUniformBinding(&UniformBindingDesc{
		Label:  r.label + "_uniforms",
		Layout: r.uniformLayout,
		Buffer: r.blocks.Raw(),
		Size:   r.stride,
	})
	if err != nil {
		return fmt.Errorf("meshcore: create uniform bind group: %w", err)
	}
	if r.uniforms != InvalidID {
		r.device.DestroyBindGroup(r.uniforms)
	}
	r.uniforms = group
	r.boundUniforms = r.blocks.Raw()
	return nil
}

// vertexLayout returns the vertex buffer layout of trimesh.Vertex.
//
// Layout per vertex (24 bytes):
//
//	position (vec2<f32>) = 8 bytes  (location 0, offset 0)
//	color    (vec4<f32>) = 16 bytes (location 1, offset 8)
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: trimesh.VertexSize,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

// straightAlphaBlend is source-over for non-premultiplied colors.
func straightAlphaBlend() gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// Antialiasing returns the configured antialiasing mode.
func (r *BatchRenderer) Antialiasing() trimesh.Antialiasing { return r.aa }

// Format returns the color target format.
func (r *BatchRenderer) Format() gputypes.TextureFormat { return r.format }

// UniformStride returns the byte distance between consecutive uniform blocks.
func (r *BatchRenderer) UniformStride() uint64 { return r.stride }

// Stats returns statistics of the last rendered frame.
func (r *BatchRenderer) Stats() FrameStats { return r.stats }

// Capacities returns the current buffer capacities in elements.
func (r *BatchRenderer) Capacities() Capacities {
	var c Capacities
	if r.vertices != nil {
		c.Vertices = r.vertices.Capacity()
	}
	if r.indices != nil {
		c.Indices = r.indices.Capacity()
	}
	if r.blocks != nil {
		c.Meshes = r.blocks.Capacity()
	}
	return c
}

// Destroy releases every GPU resource of the renderer. It is safe to call
// more than once.
func (r *BatchRenderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true

	if r.resolve != nil {
		r.resolve.Destroy()
		r.resolve = nil
	}
	if r.uniforms != InvalidID {
		r.device.DestroyBindGroup(r.uniforms)
		r.uniforms = InvalidID
		r.boundUniforms = InvalidID
	}
	if r.vertices != nil {
		r.vertices.Destroy()
	}
	if r.indices != nil {
		r.indices.Destroy()
	}
	if r.blocks != nil {
		r.blocks.Destroy()
	}
	if r.pipeline != InvalidID {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = InvalidID
	}
	if r.pipeLayout != InvalidID {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = InvalidID
	}
	if r.uniformLayout != InvalidID {
		r.device.DestroyBindGroupLayout(r.uniformLayout)
		r.uniformLayout = InvalidID
	}
	if r.fragmentModule != InvalidID && r.fragmentModule != r.vertexModule {
		r.device.DestroyShaderModule(r.fragmentModule)
	}
	if r.vertexModule != InvalidID {
		r.device.DestroyShaderModule(r.vertexModule)
	}
	r.vertexModule, r.fragmentModule = InvalidID, InvalidID
}
