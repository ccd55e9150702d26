// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/trimesh"
)

const (
	// TransformSize is the size of the column-major mat4x4<f32> the shader
	// reads from each uniform block.
	TransformSize = 64

	// UniformBlockSize is the size of UniformBlock, the largest
	// minUniformBufferOffsetAlignment WebGPU permits.
	UniformBlockSize = 256

	// DefaultUniformAlignment is used when a device reports no alignment.
	DefaultUniformAlignment = 256
)

// UniformBlock is the per-mesh uniform record.
//
// The explicit padding makes every block start on a valid dynamic offset
// for any conforming device.
type UniformBlock struct {
	Transform [16]float32
	Padding   [48]float32
}

// NewUniformBlock packs t in column-major order with zeroed padding.
func NewUniformBlock(t trimesh.Transformation) UniformBlock {
	return UniformBlock{Transform: t.ColumnMajor()}
}

// AlignedUniformSize returns the stride between consecutive uniform blocks
// for a device with the given dynamic offset alignment.
//
// An alignment larger than UniformBlockSize is outside WebGPU limits and
// returns ErrUnsupportedAlignment, as does a non power of two.
func AlignedUniformSize(alignment uint64) (uint64, error) {
	if alignment == 0 {
		alignment = DefaultUniformAlignment
	}
	if alignment&(alignment-1) != 0 {
		return 0, fmt.Errorf("%w: %d is not a power of two", ErrUnsupportedAlignment, alignment)
	}
	stride := alignUp(UniformBlockSize, alignment)
	if stride != UniformBlockSize {
		return 0, fmt.Errorf("%w: %d exceeds block size %d", ErrUnsupportedAlignment, alignment, UniformBlockSize)
	}
	return stride, nil
}

// alignUp rounds n up to a multiple of alignment, a power of two.
func alignUp(n, alignment uint64) uint64 {
	return (n + alignment - 1) &^ (alignment - 1)
}

// appendUniformBytes appends blocks to dst as little-endian float32 data,
// block i starting at i*stride from the first appended byte.
func appendUniformBytes(dst []byte, blocks []UniformBlock, stride uint64) []byte {
	for i := range blocks {
		start := len(dst)
		for _, v := range blocks[i].Transform {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
		}
		for _, v := range blocks[i].Padding {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
		}
		for uint64(len(dst)-start) < stride {
			dst = append(dst, 0)
		}
	}
	return dst
}
