// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh"
)

// Frame is one batch of meshes to draw onto a target.
type Frame struct {
	// Recorder receives the upload copies and the render pass.
	Recorder CommandRecorder

	// Belt stages vertex, index and uniform data.
	Belt StagingBelt

	// Target is the view the meshes end up on. Existing contents are
	// preserved.
	Target TextureViewID

	// Width and Height are the target size in physical pixels.
	Width, Height uint32

	// Transformation is applied to every mesh after its origin offset.
	Transformation trimesh.Transformation

	// ScaleFactor converts clip bounds from logical to physical pixels.
	ScaleFactor float32

	// Meshes are drawn in order, later meshes on top.
	Meshes []trimesh.Mesh
}

func (f *Frame) validate() error {
	switch {
	case f == nil:
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	case f.Recorder == nil:
		return fmt.Errorf("%w: nil recorder", ErrInvalidFrame)
	case f.Belt == nil:
		return fmt.Errorf("%w: nil staging belt", ErrInvalidFrame)
	case f.Target == InvalidID:
		return fmt.Errorf("%w: no target view", ErrInvalidFrame)
	case f.Width == 0 || f.Height == 0:
		return fmt.Errorf("%w: target size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	case !(f.ScaleFactor > 0):
		return fmt.Errorf("%w: scale factor %v", ErrInvalidFrame, f.ScaleFactor)
	}
	return nil
}

// Render uploads the meshes of frame and records one render pass drawing
// them onto frame.Target.
//
// Buffers grow to fit the frame before anything is uploaded. Each mesh
// gets its own scissor rectangle, uniform offset and indexed draw, in
// input order. A frame without meshes records nothing.
//
// The caller must finish the staging belt before submitting the recorder.
func (r *BatchRenderer) Render(frame *Frame) error {
	if r.destroyed {
		return ErrRendererDestroyed
	}
	if err := frame.validate(); err != nil {
		return err
	}

	meshes := frame.Meshes
	if len(meshes) == 0 {
		r.stats = FrameStats{}
		return nil
	}

	totalVertices, totalIndices := trimesh.TotalCounts(meshes)
	stats := FrameStats{Meshes: len(meshes)}

	var err error
	if stats.VertexBufferGrown, err = r.vertices.EnsureCapacity(totalVertices); err != nil {
		return fmt.Errorf("meshcore: grow vertex buffer: %w", err)
	}
	if stats.IndexBufferGrown, err = r.indices.EnsureCapacity(totalIndices); err != nil {
		return fmt.Errorf("meshcore: grow index buffer: %w", err)
	}
	if stats.UniformBufferGrown, err = r.blocks.EnsureCapacity(len(meshes)); err != nil {
		return fmt.Errorf("meshcore: grow uniform buffer: %w", err)
	}
	if stats.VertexBufferGrown || stats.IndexBufferGrown {
		r.log.Debug("trimesh: geometry buffers grown",
			"vertices", r.vertices.Capacity(),
			"indices", r.indices.Capacity())
	}
	// A failed rebuild in an earlier frame leaves the group over a retired
	// buffer, so compare handles rather than trusting this frame's growth.
	if r.blocks.Raw() != r.boundUniforms {
		if err := r.bindUniforms(); err != nil {
			return err
		}
		r.log.Debug("trimesh: uniform bind group rebuilt", "meshes", r.blocks.Capacity())
	}

	if err := r.upload(frame, &stats); err != nil {
		return err
	}
	if err := r.record(frame, &stats); err != nil {
		return err
	}

	r.stats = stats
	return nil
}

// upload writes vertex, index and uniform data for every mesh and fills
// r.draws with the location of each mesh in the shared buffers.
func (r *BatchRenderer) upload(frame *Frame, stats *FrameStats) error {
	r.pending = r.pending[:0]
	r.draws = r.draws[:0]

	vertexCursor, indexCursor := 0, 0
	for i := range frame.Meshes {
		m := &frame.Meshes[i]

		if n := m.VertexBytesLen(); n > 0 {
			region, err := frame.Belt.Write(frame.Recorder, r.vertices.Raw(),
				uint64(vertexCursor)*trimesh.VertexSize, uint64(n))
			if err != nil {
				return fmt.Errorf("meshcore: mesh %d: stage vertices: %w", i, err)
			}
			trimesh.PutVertices(region.Bytes(), m.Vertices)
			if err := region.Close(); err != nil {
				return fmt.Errorf("meshcore: mesh %d: upload vertices: %w", i, err)
			}
			stats.Writes++
		}

		if n := m.IndexBytesLen(); n > 0 {
			region, err := frame.Belt.Write(frame.Recorder, r.indices.Raw(),
				uint64(indexCursor)*trimesh.IndexSize, uint64(n))
			if err != nil {
				return fmt.Errorf("meshcore: mesh %d: stage indices: %w", i, err)
			}
			trimesh.PutIndices(region.Bytes(), m.Indices)
			if err := region.Close(); err != nil {
				return fmt.Errorf("meshcore: mesh %d: upload indices: %w", i, err)
			}
			stats.Writes++
		}

		origin := trimesh.Translate(m.Origin.X, m.Origin.Y)
		r.pending = append(r.pending, NewUniformBlock(frame.Transformation.Multiply(origin)))
		r.draws = append(r.draws, drawRange{
			baseVertex: vertexCursor,
			firstIndex: indexCursor,
			indexCount: len(m.Indices),
		})

		vertexCursor += len(m.Vertices)
		indexCursor += len(m.Indices)
	}
	stats.Vertices = vertexCursor
	stats.Indices = indexCursor

	r.scratch = appendUniformBytes(r.scratch[:0], r.pending, r.stride)
	region, err := frame.Belt.Write(frame.Recorder, r.blocks.Raw(), 0, uint64(len(r.scratch)))
	if err != nil {
		return fmt.Errorf("meshcore: stage uniforms: %w", err)
	}
	copy(region.Bytes(), r.scratch)
	if err := region.Close(); err != nil {
		return fmt.Errorf("meshcore: upload uniforms: %w", err)
	}
	stats.Writes++
	stats.UniformBytes = len(r.scratch)
	return nil
}

// record encodes the render pass and, with antialiasing, the resolve.
func (r *BatchRenderer) record(frame *Frame, stats *FrameStats) error {
	desc := &RenderPassDesc{
		Label:  r.label + "_pass",
		View:   frame.Target,
		LoadOp: LoadOpLoad,
	}
	if r.resolve != nil {
		attachment, resolve, err := r.resolve.Prepare(frame.Width, frame.Height)
		if err != nil {
			return fmt.Errorf("meshcore: prepare resolve target: %w", err)
		}
		desc.View = attachment
		desc.ResolveTarget = resolve
		desc.LoadOp = LoadOpClear
		desc.ClearValue = gputypes.Color{R: 0, G: 0, B: 0, A: 0}
	}

	pass := frame.Recorder.BeginRenderPass(desc)
	pass.SetPipeline(r.pipeline)
	pass.SetVertexBuffer(0, r.vertices.Raw(), 0)
	pass.SetIndexBuffer(r.indices.Raw(), 0)

	for i, d := range r.draws {
		clip := trimesh.ScissorFor(frame.Meshes[i].ClipBounds, frame.ScaleFactor, frame.Width, frame.Height)
		pass.SetScissorRect(clip.X, clip.Y, clip.Width, clip.Height)
		pass.SetBindGroup(0, r.uniforms, []uint32{uint32(uint64(i) * r.stride)})
		pass.DrawIndexed(uint32(d.indexCount), 1, uint32(d.firstIndex), int32(d.baseVertex), 0)
		stats.Draws++
	}
	pass.End()

	if r.resolve != nil {
		if err := r.resolve.Resolve(frame.Recorder, frame.Target); err != nil {
			return fmt.Errorf("meshcore: resolve: %w", err)
		}
		stats.Resolved = true
	}
	return nil
}
