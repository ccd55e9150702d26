// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package trimesh provides the data model for batched GPU rendering of
// pre-tessellated triangle meshes.
//
// # Overview
//
// A GUI backend produces, once per frame, an ordered list of independent
// triangle meshes: vertices with position and color, a triangle-list index
// buffer, an origin offset and a clip rectangle. The meshcore package
// renders such a list in a single render pass, sharing one vertex buffer,
// one index buffer and one dynamically indexed uniform buffer across every
// mesh of the frame.
//
//	meshes := []trimesh.Mesh{
//	    {
//	        Vertices:   []trimesh.Vertex{...},
//	        Indices:    []uint32{0, 1, 2},
//	        Origin:     trimesh.Pt(10, 10),
//	        ClipBounds: trimesh.Rect{Width: 100, Height: 100},
//	    },
//	}
//
// # Coordinate System
//
// Vertex positions are in logical pixels relative to the mesh origin:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//
// The ambient [Transformation] maps logical pixels to clip space, usually
// built with [Orthographic]. Clip rectangles are in logical pixels and are
// scaled by the display scale factor before they become scissor rectangles.
//
// # Packages
//
//   - trimesh: data model, transformations, logger
//   - meshcore: buffer management, uniform packing, BatchRenderer
//   - backend: HAL device bring-up by backend name
//   - backend/native: Pure Go implementation on gogpu/wgpu HAL
//
// # Logging
//
// trimesh produces no log output by default. Call [SetLogger] to enable it.
package trimesh
