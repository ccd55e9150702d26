package backend

import (
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func init() {
	Register(Noop, func() (hal.Instance, error) {
		api := noop.API{}
		return api.CreateInstance(nil)
	})
}
