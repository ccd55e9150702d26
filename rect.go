// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trimesh

import (
	"math"

	"github.com/chewxy/math32"
)

// Rect is an axis-aligned rectangle in logical pixels.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// Scale returns the rectangle with every component multiplied by factor.
func (r Rect) Scale(factor float32) Rect {
	return Rect{
		X:      r.X * factor,
		Y:      r.Y * factor,
		Width:  r.Width * factor,
		Height: r.Height * factor,
	}
}

// ScissorRect is a clip rectangle in physical pixels.
type ScissorRect struct {
	X, Y          uint32
	Width, Height uint32
}

// IsEmpty reports whether the scissor covers no pixels.
func (s ScissorRect) IsEmpty() bool {
	return s.Width == 0 || s.Height == 0
}

// Snap converts the rectangle to the smallest enclosing integer pixel
// bounds: the minimum edges are floored and the maximum edges are ceiled,
// so a partially covered pixel on any side stays inside the scissor.
// Edges left of or above zero clamp to zero.
func (r Rect) Snap() ScissorRect {
	x0 := toPixels(math32.Floor(r.X))
	y0 := toPixels(math32.Floor(r.Y))
	x1 := toPixels(math32.Ceil(r.X + r.Width))
	y1 := toPixels(math32.Ceil(r.Y + r.Height))
	return ScissorRect{
		X:      x0,
		Y:      y0,
		Width:  x1 - min(x0, x1),
		Height: y1 - min(y0, y1),
	}
}

// Clamp restricts the scissor to a width x height target. A scissor lying
// completely outside the target becomes a zero-area rectangle at the edge.
func (s ScissorRect) Clamp(width, height uint32) ScissorRect {
	s.X = min(s.X, width)
	s.Y = min(s.Y, height)
	s.Width = min(s.Width, width-s.X)
	s.Height = min(s.Height, height-s.Y)
	return s
}

// ScissorFor returns the scissor rectangle for clip bounds given in logical
// pixels: scaled by scaleFactor, snapped, then clamped to the target.
func ScissorFor(clip Rect, scaleFactor float32, width, height uint32) ScissorRect {
	return clip.Scale(scaleFactor).Snap().Clamp(width, height)
}

func toPixels(v float32) uint32 {
	if v <= 0 || math32.IsNaN(v) {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
