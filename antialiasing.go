// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package trimesh

import "fmt"

// Antialiasing selects the multisample count of the triangle pipeline.
// The zero value disables antialiasing.
type Antialiasing int

const (
	// AntialiasingNone renders directly into the target, one sample per pixel.
	AntialiasingNone Antialiasing = iota
	// MSAAx2 uses 2 samples per pixel.
	MSAAx2
	// MSAAx4 uses 4 samples per pixel.
	MSAAx4
	// MSAAx8 uses 8 samples per pixel.
	MSAAx8
	// MSAAx16 uses 16 samples per pixel.
	MSAAx16
)

// SampleCount returns the number of samples per pixel.
func (a Antialiasing) SampleCount() uint32 {
	switch a {
	case MSAAx2:
		return 2
	case MSAAx4:
		return 4
	case MSAAx8:
		return 8
	case MSAAx16:
		return 16
	default:
		return 1
	}
}

// Enabled reports whether a multisample resolve is required.
func (a Antialiasing) Enabled() bool {
	return a.SampleCount() > 1
}

// String returns the string representation of Antialiasing.
func (a Antialiasing) String() string {
	switch a {
	case AntialiasingNone:
		return "None"
	case MSAAx2, MSAAx4, MSAAx8, MSAAx16:
		return fmt.Sprintf("MSAAx%d", a.SampleCount())
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// AntialiasingFromSamples maps a sample count to an Antialiasing value.
// Counts of 0 and 1 disable antialiasing.
func AntialiasingFromSamples(samples uint32) (Antialiasing, error) {
	switch samples {
	case 0, 1:
		return AntialiasingNone, nil
	case 2:
		return MSAAx2, nil
	case 4:
		return MSAAx4, nil
	case 8:
		return MSAAx8, nil
	case 16:
		return MSAAx16, nil
	default:
		return AntialiasingNone, fmt.Errorf("trimesh: unsupported sample count %d", samples)
	}
}
