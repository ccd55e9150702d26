//go:build !nogpu

package backend

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	Register(Vulkan, func() (hal.Instance, error) {
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, errors.New("vulkan backend not available")
		}
		return b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	})
}
