// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trimesh

import (
	"encoding/binary"
	"math"

	"golang.org/x/image/math/f32"
)

// VertexSize is the byte stride of one encoded Vertex.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes  (location 0, offset 0)
//	color    (vec4<f32>) = 16 bytes (location 1, offset 8)
//
// Total = 24 bytes per vertex.
const VertexSize = 24

// IndexSize is the byte size of one triangle-list index (uint32).
const IndexSize = 4

// Vertex is a 2D vertex with a straight (non-premultiplied) RGBA color.
type Vertex struct {
	Position f32.Vec2
	Color    f32.Vec4
}

// Point represents a 2D point in logical pixels.
type Point struct {
	X, Y float32
}

// Pt is a convenience function to create a Point.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Vec2 returns the point as an f32.Vec2.
func (p Point) Vec2() f32.Vec2 {
	return f32.Vec2{p.X, p.Y}
}

// Mesh is one independently transformed triangle list.
//
// Vertices are relative to Origin: the origin only affects the per-mesh
// transform, never the raw vertex data. ClipBounds is in logical pixels.
type Mesh struct {
	Vertices   []Vertex
	Indices    []uint32
	Origin     Point
	ClipBounds Rect
}

// IsEmpty reports whether the mesh produces no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// VertexBytesLen returns the encoded byte length of the mesh vertices.
func (m *Mesh) VertexBytesLen() int {
	return len(m.Vertices) * VertexSize
}

// IndexBytesLen returns the encoded byte length of the mesh indices.
func (m *Mesh) IndexBytesLen() int {
	return len(m.Indices) * IndexSize
}

// PutVertices encodes vertices into dst in GPU layout. dst must hold at
// least len(vertices)*VertexSize bytes. Returns the number of bytes written.
func PutVertices(dst []byte, vertices []Vertex) int {
	off := 0
	for i := range vertices {
		v := &vertices[i]
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(dst[off+4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(dst[off+8:], math.Float32bits(v.Color[0]))
		binary.LittleEndian.PutUint32(dst[off+12:], math.Float32bits(v.Color[1]))
		binary.LittleEndian.PutUint32(dst[off+16:], math.Float32bits(v.Color[2]))
		binary.LittleEndian.PutUint32(dst[off+20:], math.Float32bits(v.Color[3]))
		off += VertexSize
	}
	return off
}

// PutIndices encodes indices into dst as little-endian uint32. dst must
// hold at least len(indices)*IndexSize bytes. Returns the number of bytes
// written.
func PutIndices(dst []byte, indices []uint32) int {
	off := 0
	for _, idx := range indices {
		binary.LittleEndian.PutUint32(dst[off:], idx)
		off += IndexSize
	}
	return off
}

// TotalCounts sums vertex and index counts across meshes.
func TotalCounts(meshes []Mesh) (vertices, indices int) {
	for i := range meshes {
		vertices += len(meshes[i].Vertices)
		indices += len(meshes[i].Indices)
	}
	return vertices, indices
}
