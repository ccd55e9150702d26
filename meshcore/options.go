// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import (
	"log/slog"

	"github.com/gogpu/trimesh"
)

// Default element capacities of the shared buffers.
const (
	DefaultVertexCapacity  = 10_000
	DefaultIndexCapacity   = 10_000
	DefaultUniformCapacity = 50
)

// Option configures a BatchRenderer during creation.
//
// Example:
//
//	r, err := meshcore.New(device, format,
//	    meshcore.WithAntialiasing(trimesh.MSAAx4),
//	    meshcore.WithInitialCapacity(4096, 4096, 16))
type Option func(*options)

type options struct {
	antialiasing    trimesh.Antialiasing
	vertexCapacity  int
	indexCapacity   int
	uniformCapacity int
	vertexShader    []uint32
	fragmentShader  []uint32
	label           string
	logger          *slog.Logger
}

func defaultOptions() options {
	return options{
		antialiasing:    trimesh.AntialiasingNone,
		vertexCapacity:  DefaultVertexCapacity,
		indexCapacity:   DefaultIndexCapacity,
		uniformCapacity: DefaultUniformCapacity,
		label:           "trimesh",
	}
}

// WithAntialiasing enables multisampling. The render pipeline is built
// with the matching sample count and frames are resolved through a
// ResolveTarget created by the device.
func WithAntialiasing(aa trimesh.Antialiasing) Option {
	return func(o *options) {
		o.antialiasing = aa
	}
}

// WithInitialCapacity sets the starting element capacities of the vertex,
// index and uniform buffers. Non-positive values keep the defaults.
func WithInitialCapacity(vertices, indices, meshes int) Option {
	return func(o *options) {
		if vertices > 0 {
			o.vertexCapacity = vertices
		}
		if indices > 0 {
			o.indexCapacity = indices
		}
		if meshes > 0 {
			o.uniformCapacity = meshes
		}
	}
}

// WithShaders replaces the built-in shaders. Both modules must expose the
// vs_main and fs_main entry points with the built-in interface; the same
// words may be passed twice for a combined module.
func WithShaders(vertexSPIRV, fragmentSPIRV []uint32) Option {
	return func(o *options) {
		o.vertexShader = vertexSPIRV
		o.fragmentShader = fragmentSPIRV
	}
}

// WithLabel sets the prefix of every debug label.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithLogger sets the logger. The default is trimesh.Logger() at
// construction time.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
