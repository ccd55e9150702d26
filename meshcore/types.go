// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import "github.com/gogpu/gputypes"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each Device implementation
// maintains a mapping between IDs and actual backend resources.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// TextureViewID is an opaque handle to a texture view usable as a color
// attachment.
type TextureViewID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// LoadOp selects what happens to a color attachment at the start of a pass.
type LoadOp uint8

const (
	// LoadOpLoad preserves the existing attachment contents.
	LoadOpLoad LoadOp = iota

	// LoadOpClear clears the attachment to RenderPassDesc.ClearValue.
	LoadOpClear
)

// String returns the name of the load operation.
func (op LoadOp) String() string {
	switch op {
	case LoadOpLoad:
		return "Load"
	case LoadOpClear:
		return "Clear"
	default:
		return "Unknown"
	}
}

// UniformLayoutDesc describes a bind group layout with a single uniform
// buffer at binding 0, visible to the vertex stage, addressed with a
// dynamic offset.
type UniformLayoutDesc struct {
	Label string

	// MinBindingSize is the minimum size of the bound range in bytes.
	MinBindingSize uint64
}

// UniformBindingDesc describes a bind group exposing [0, Size) of Buffer
// at binding 0. The dynamic offset supplied at draw time shifts the range.
type UniformBindingDesc struct {
	Label  string
	Layout BindGroupLayoutID
	Buffer BufferID
	Size   uint64
}

// RenderPipelineDesc describes a triangle-list render pipeline with no
// culling and a single color target.
type RenderPipelineDesc struct {
	Label  string
	Layout PipelineLayoutID

	VertexModule       ShaderModuleID
	VertexEntryPoint   string
	FragmentModule     ShaderModuleID
	FragmentEntryPoint string

	VertexBuffers []gputypes.VertexBufferLayout

	Format      gputypes.TextureFormat
	Blend       gputypes.BlendState
	SampleCount uint32
}

// RenderPassDesc describes a render pass with one color attachment.
type RenderPassDesc struct {
	Label string

	// View is the color attachment.
	View TextureViewID

	// ResolveTarget receives the multisample resolve of View.
	// InvalidID means no resolve.
	ResolveTarget TextureViewID

	LoadOp     LoadOp
	ClearValue gputypes.Color
}
