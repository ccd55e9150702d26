// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trimesh

import "golang.org/x/image/math/f32"

// Transformation is a 4x4 transformation matrix.
//
// The matrix is stored row-major (m[4*r+c] is row r, column c), the
// convention of [f32.Mat4]. Use [Transformation.ColumnMajor] to obtain the
// layout expected by WGSL mat4x4<f32> uniforms.
type Transformation struct {
	m f32.Mat4
}

// Identity returns the identity transformation.
func Identity() Transformation {
	return Transformation{m: f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Translate creates a 2D translation.
func Translate(x, y float32) Transformation {
	return Transformation{m: f32.Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Scale creates a 2D scaling transformation.
func Scale(sx, sy float32) Transformation {
	return Transformation{m: f32.Mat4{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Orthographic creates the projection mapping a width x height pixel
// viewport (origin top-left, Y down) to clip space (origin center, Y up).
// Depth in [-1, 1] is flipped, as in a right-handed GL orthographic
// projection with near=-1 and far=1.
func Orthographic(width, height uint32) Transformation {
	w := float32(width)
	h := float32(height)
	return Transformation{m: f32.Mat4{
		2 / w, 0, 0, -1,
		0, -2 / h, 0, 1,
		0, 0, -1, 0,
		0, 0, 0, 1,
	}}
}

// FromMat4 wraps a row-major matrix.
func FromMat4(m f32.Mat4) Transformation {
	return Transformation{m: m}
}

// Mat4 returns the row-major matrix.
func (t Transformation) Mat4() f32.Mat4 {
	return t.m
}

// Multiply returns t * other: other is applied first, then t.
func (t Transformation) Multiply(other Transformation) Transformation {
	var out f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += t.m[4*r+k] * other.m[4*k+c]
			}
			out[4*r+c] = sum
		}
	}
	return Transformation{m: out}
}

// TransformPoint applies the transformation to a point on the z=0 plane.
// The projective row is ignored; all constructors in this package are
// affine in X and Y.
func (t Transformation) TransformPoint(p Point) Point {
	return Point{
		X: t.m[0]*p.X + t.m[1]*p.Y + t.m[3],
		Y: t.m[4]*p.X + t.m[5]*p.Y + t.m[7],
	}
}

// ColumnMajor returns the matrix elements in column-major order.
func (t Transformation) ColumnMajor() [16]float32 {
	var out [16]float32
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[4*c+r] = t.m[4*r+c]
		}
	}
	return out
}

// IsIdentity reports whether t is exactly the identity.
func (t Transformation) IsIdentity() bool {
	return t.m == Identity().m
}
