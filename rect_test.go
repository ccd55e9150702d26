// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trimesh

import "testing"

func TestRectScale(t *testing.T) {
	got := Rect{X: 10, Y: 20, Width: 50, Height: 40}.Scale(1.5)
	want := Rect{X: 15, Y: 30, Width: 75, Height: 60}
	if got != want {
		t.Errorf("Scale(1.5) = %+v, want %+v", got, want)
	}
}

func TestRectSnap(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want ScissorRect
	}{
		{"integral", Rect{X: 0, Y: 0, Width: 50, Height: 50}, ScissorRect{X: 0, Y: 0, Width: 50, Height: 50}},
		{"fractional origin floors", Rect{X: 0.5, Y: 1.7, Width: 10, Height: 3}, ScissorRect{X: 0, Y: 1, Width: 11, Height: 4}},
		{"fractional size ceils far edge", Rect{X: 2, Y: 2, Width: 10.2, Height: 3.01}, ScissorRect{X: 2, Y: 2, Width: 11, Height: 4}},
		{"both edges inside one pixel", Rect{X: 3.25, Y: 3.25, Width: 0.5, Height: 0.5}, ScissorRect{X: 3, Y: 3, Width: 1, Height: 1}},
		{"negative origin trims extent", Rect{X: -5, Y: -2.5, Width: 10, Height: 10}, ScissorRect{X: 0, Y: 0, Width: 5, Height: 8}},
		{"fully negative", Rect{X: -20, Y: -20, Width: 10, Height: 10}, ScissorRect{}},
		{"zero size", Rect{X: 4, Y: 4}, ScissorRect{X: 4, Y: 4}},
		{"negative size", Rect{X: 4, Y: 4, Width: -3, Height: -3}, ScissorRect{X: 4, Y: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Snap(); got != tt.want {
				t.Errorf("%+v.Snap() = %+v, want %+v", tt.r, got, tt.want)
			}
		})
	}
}

func TestScissorClamp(t *testing.T) {
	tests := []struct {
		name string
		s    ScissorRect
		want ScissorRect
	}{
		{"inside", ScissorRect{X: 10, Y: 10, Width: 20, Height: 20}, ScissorRect{X: 10, Y: 10, Width: 20, Height: 20}},
		{"overhang", ScissorRect{X: 90, Y: 0, Width: 50, Height: 150}, ScissorRect{X: 90, Y: 0, Width: 10, Height: 100}},
		{"outside", ScissorRect{X: 150, Y: 150, Width: 10, Height: 10}, ScissorRect{X: 100, Y: 100, Width: 0, Height: 0}},
		{"exact edge", ScissorRect{X: 0, Y: 0, Width: 100, Height: 100}, ScissorRect{X: 0, Y: 0, Width: 100, Height: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Clamp(100, 100); got != tt.want {
				t.Errorf("%+v.Clamp(100, 100) = %+v, want %+v", tt.s, got, tt.want)
			}
		})
	}
}

func TestScissorFor(t *testing.T) {
	got := ScissorFor(Rect{X: 0, Y: 0, Width: 50, Height: 50}, 1, 800, 600)
	if want := (ScissorRect{Width: 50, Height: 50}); got != want {
		t.Errorf("ScissorFor(scale=1) = %+v, want %+v", got, want)
	}

	// HiDPI: 2x scale of a fractional clip.
	got = ScissorFor(Rect{X: 10.25, Y: 5, Width: 100.5, Height: 20}, 2, 800, 600)
	if want := (ScissorRect{X: 20, Y: 10, Width: 202, Height: 40}); got != want {
		t.Errorf("ScissorFor(scale=2) = %+v, want %+v", got, want)
	}

	// Clip larger than the target is clamped.
	got = ScissorFor(Rect{X: 700, Y: 500, Width: 400, Height: 400}, 1, 800, 600)
	if want := (ScissorRect{X: 700, Y: 500, Width: 100, Height: 100}); got != want {
		t.Errorf("ScissorFor(overhang) = %+v, want %+v", got, want)
	}
}

func TestScissorIsEmpty(t *testing.T) {
	if !(ScissorRect{X: 3, Width: 0, Height: 5}).IsEmpty() {
		t.Error("zero width scissor should be empty")
	}
	if (ScissorRect{Width: 1, Height: 1}).IsEmpty() {
		t.Error("1x1 scissor should not be empty")
	}
}
