// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
)

// GrowableBuffer is a GPU buffer holding elements of type T that can be
// reallocated to a larger element count.
//
// Capacity never decreases. Growing allocates a buffer of exactly the
// requested capacity and releases the previous buffer without copying its
// contents, so the caller must rewrite everything it reads after growth.
type GrowableBuffer[T any] struct {
	device   Device
	label    string
	usage    gputypes.BufferUsage
	elemSize uint64

	raw      BufferID
	capacity int
}

// NewGrowableBuffer allocates a buffer able to hold capacity elements of T.
// The element size is the encoded size of T as reported by
// encoding/binary, so T must be a fixed-size type.
func NewGrowableBuffer[T any](device Device, label string, capacity int, usage gputypes.BufferUsage) (*GrowableBuffer[T], error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %s: %d", ErrInvalidCapacity, label, capacity)
	}

	var zero T
	size := binary.Size(zero)
	if size <= 0 {
		return nil, fmt.Errorf("meshcore: %s: element type %T has no fixed size", label, zero)
	}

	b := &GrowableBuffer[T]{
		device:   device,
		label:    label,
		usage:    usage,
		elemSize: uint64(size),
	}
	raw, err := b.allocate(capacity)
	if err != nil {
		return nil, err
	}
	b.raw = raw
	b.capacity = capacity
	return b, nil
}

func (b *GrowableBuffer[T]) allocate(capacity int) (BufferID, error) {
	id, err := b.device.CreateBuffer(b.label, uint64(capacity)*b.elemSize, b.usage)
	if err != nil {
		return InvalidID, fmt.Errorf("meshcore: allocate %s (%d elements): %w", b.label, capacity, err)
	}
	return id, nil
}

// EnsureCapacity grows the buffer to exactly requested elements when it
// is larger than the current capacity. It reports whether the underlying
// buffer changed, in which case every bind group referencing the old
// buffer must be rebuilt.
//
// On allocation failure the old buffer is kept and the error is returned.
func (b *GrowableBuffer[T]) EnsureCapacity(requested int) (bool, error) {
	if b.raw == InvalidID {
		return false, ErrBufferDestroyed
	}
	if requested <= b.capacity {
		return false, nil
	}

	raw, err := b.allocate(requested)
	if err != nil {
		return false, err
	}
	b.device.DestroyBuffer(b.raw)
	b.raw = raw
	b.capacity = requested
	return true, nil
}

// Raw returns the current buffer. It changes whenever EnsureCapacity
// reports growth.
func (b *GrowableBuffer[T]) Raw() BufferID { return b.raw }

// Capacity returns the capacity in elements.
func (b *GrowableBuffer[T]) Capacity() int { return b.capacity }

// ElementSize returns the size of one element in bytes.
func (b *GrowableBuffer[T]) ElementSize() uint64 { return b.elemSize }

// ByteSize returns the size of the buffer in bytes.
func (b *GrowableBuffer[T]) ByteSize() uint64 { return uint64(b.capacity) * b.elemSize }

// Usage returns the usage flags the buffer is allocated with.
func (b *GrowableBuffer[T]) Usage() gputypes.BufferUsage { return b.usage }

// Label returns the debug label.
func (b *GrowableBuffer[T]) Label() string { return b.label }

// Destroy releases the buffer. Further growth returns ErrBufferDestroyed.
func (b *GrowableBuffer[T]) Destroy() {
	if b.raw == InvalidID {
		return
	}
	b.device.DestroyBuffer(b.raw)
	b.raw = InvalidID
}
