// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import "errors"

var (
	// ErrNilDevice is returned when a nil Device is passed to a constructor.
	ErrNilDevice = errors.New("meshcore: device is nil")

	// ErrInvalidCapacity is returned when a buffer capacity is not positive.
	ErrInvalidCapacity = errors.New("meshcore: capacity must be positive")

	// ErrUnsupportedAlignment is returned when the device uniform offset
	// alignment is not a power of two or exceeds the uniform block size.
	ErrUnsupportedAlignment = errors.New("meshcore: unsupported uniform offset alignment")

	// ErrInvalidFrame is returned by Render for a frame that cannot be drawn.
	ErrInvalidFrame = errors.New("meshcore: invalid frame")

	// ErrRendererDestroyed is returned when using a destroyed renderer.
	ErrRendererDestroyed = errors.New("meshcore: renderer destroyed")

	// ErrBufferDestroyed is returned when growing a destroyed buffer.
	ErrBufferDestroyed = errors.New("meshcore: buffer destroyed")

	// ErrEmptyShader is returned when a shader option carries no SPIR-V.
	ErrEmptyShader = errors.New("meshcore: empty SPIR-V module")
)
