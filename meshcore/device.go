// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import "github.com/gogpu/gputypes"

// Device abstracts the GPU device the renderer allocates from.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - DestroyBuffer may defer the release until in-flight work completes
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// === Capabilities ===

	// UniformAlignment returns the minimum alignment, in bytes, of dynamic
	// uniform buffer offsets. Zero means the WebGPU default of 256.
	UniformAlignment() uint64

	// === Buffer Management ===

	// CreateBuffer creates a GPU buffer.
	//
	// Parameters:
	//   - label: optional debug label
	//   - size: buffer size in bytes
	//   - usage: buffer usage flags
	//
	// Returns the buffer ID or an error if allocation fails.
	CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (BufferID, error)

	// DestroyBuffer releases a GPU buffer. Commands already recorded
	// against the buffer stay valid.
	DestroyBuffer(id BufferID)

	// === Shader Compilation ===

	// CreateShaderModule creates a shader module from SPIR-V words.
	CreateShaderModule(label string, spirv []uint32) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Pipeline Management ===

	// CreateUniformLayout creates a bind group layout with one dynamic
	// uniform buffer binding.
	CreateUniformLayout(desc *UniformLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout creates a pipeline layout from bind group layouts.
	CreatePipelineLayout(label string, layouts []BindGroupLayoutID) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)

	// DestroyRenderPipeline releases a render pipeline.
	DestroyRenderPipeline(id RenderPipelineID)

	// CreateUniformBinding creates a bind group over a uniform buffer.
	CreateUniformBinding(desc *UniformBindingDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// === Multisampling ===

	// CreateResolveTarget creates the multisample target used when
	// antialiasing is enabled.
	CreateResolveTarget(format gputypes.TextureFormat, sampleCount uint32) (ResolveTarget, error)
}

// CommandRecorder records GPU commands for one frame.
type CommandRecorder interface {
	// BeginRenderPass begins a render pass. The returned encoder must be
	// ended before the next pass begins.
	BeginRenderPass(desc *RenderPassDesc) RenderPassEncoder
}

// RenderPassEncoder records draw commands.
//
// The encoder is single-use and cannot be reused after End().
type RenderPassEncoder interface {
	// SetPipeline sets the active render pipeline.
	SetPipeline(pipeline RenderPipelineID)

	// SetVertexBuffer binds a vertex buffer to a slot.
	SetVertexBuffer(slot uint32, buffer BufferID, offset uint64)

	// SetIndexBuffer binds a buffer of uint32 indices.
	SetIndexBuffer(buffer BufferID, offset uint64)

	// SetScissorRect restricts drawing to a pixel rectangle.
	SetScissorRect(x, y, width, height uint32)

	// SetBindGroup sets a bind group with its dynamic offsets.
	SetBindGroup(index uint32, group BindGroupID, dynamicOffsets []uint32)

	// DrawIndexed draws indexed primitives. baseVertex is added to every
	// index before the vertex fetch.
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)

	// End finishes the render pass.
	End()
}

// StagingBelt uploads CPU data into GPU buffers through commands recorded
// on a CommandRecorder.
type StagingBelt interface {
	// Write reserves size bytes destined for buffer at offset. The caller
	// fills WriteRegion.Bytes and closes the region; the copy is recorded
	// on rec at close time.
	Write(rec CommandRecorder, buffer BufferID, offset, size uint64) (WriteRegion, error)
}

// WriteRegion is a mapped staging range returned by StagingBelt.Write.
type WriteRegion interface {
	// Bytes returns the writable range. Its length equals the requested size.
	Bytes() []byte

	// Close schedules the copy into the destination buffer.
	Close() error
}

// ResolveTarget owns the multisample attachment and resolves it onto the
// frame target.
type ResolveTarget interface {
	// SampleCount returns the sample count of the attachment.
	SampleCount() uint32

	// Prepare returns the multisample attachment and the single-sample
	// resolve destination for a target of the given size, reallocating
	// them when the size changed.
	Prepare(width, height uint32) (attachment, resolve TextureViewID, err error)

	// Resolve records the commands that composite the resolved image onto
	// target, preserving the target's existing contents.
	Resolve(rec CommandRecorder, target TextureViewID) error

	// Destroy releases the textures and pipelines of the target.
	Destroy()
}
