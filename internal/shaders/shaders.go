// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shaders holds the WGSL sources of the triangle and blit
// pipelines and compiles them to SPIR-V with naga.
package shaders

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// Entry point names shared by every shader in this package.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

//go:embed triangle.wgsl
var triangleSource string

//go:embed blit.wgsl
var blitSource string

var (
	triangleSPIRV = sync.OnceValues(func() ([]uint32, error) { return Compile(triangleSource) })
	blitSPIRV     = sync.OnceValues(func() ([]uint32, error) { return Compile(blitSource) })
)

// TriangleSource returns the WGSL source of the triangle pipeline.
func TriangleSource() string { return triangleSource }

// BlitSource returns the WGSL source of the MSAA blit pipeline.
func BlitSource() string { return blitSource }

// Triangle returns the compiled triangle shader. Compilation happens once;
// later calls return the cached words.
func Triangle() ([]uint32, error) { return triangleSPIRV() }

// Blit returns the compiled blit shader.
func Blit() ([]uint32, error) { return blitSPIRV() }

// Compile compiles WGSL source to SPIR-V words.
func Compile(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("shaders: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shaders: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
