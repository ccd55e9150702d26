// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package meshcore implements the batched triangle-mesh renderer.
//
// A [BatchRenderer] draws one frame of independently transformed
// [trimesh.Mesh] values in a single render pass. All meshes of a frame
// share one vertex buffer, one index buffer and one uniform buffer; the
// per-mesh transform is selected with a dynamic uniform offset, so the
// pass only switches scissor, offset and draw range between meshes.
//
// # Resource Management
//
// GPU resources are referenced through opaque IDs ([BufferID],
// [BindGroupID], ...). A [Device] implementation maps IDs to real backend
// objects; the pure Go implementation on top of gogpu/wgpu lives in
// package backend/native.
//
// Buffers grow on demand through [GrowableBuffer]. Growth allocates a new
// buffer of exactly the requested element count and hands the old one to
// [Device.DestroyBuffer]; contents are never migrated because every frame
// rewrites everything it draws.
//
// # Frame Flow
//
//	r, err := meshcore.New(device, gputypes.TextureFormatBGRA8Unorm,
//	    meshcore.WithAntialiasing(trimesh.MSAAx4))
//	...
//	err = r.Render(&meshcore.Frame{
//	    Recorder:       rec,
//	    Belt:           belt,
//	    Target:         view,
//	    Width:          800,
//	    Height:         600,
//	    Transformation: trimesh.Orthographic(800, 600),
//	    ScaleFactor:    1,
//	    Meshes:         meshes,
//	})
//
// The caller finishes the staging belt before submitting the recorder and
// recalls it once the submission has completed.
//
// A BatchRenderer is not safe for concurrent use.
package meshcore
