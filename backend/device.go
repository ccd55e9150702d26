package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/trimesh"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoAdapter is returned when an instance exposes no adapters.
	ErrNoAdapter = errors.New("backend: no adapters found")
)

// Device is an open HAL device together with the instance that owns it.
type Device struct {
	// Backend is the registered name the device was opened through.
	Backend string

	// AdapterName is the adapter description reported by the driver.
	AdapterName string

	Device hal.Device
	Queue  hal.Queue
	Limits gputypes.Limits

	instance hal.Instance
}

// Close destroys the device and its instance.
func (d *Device) Close() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

// Open opens a device on the named backend.
func Open(name string) (*Device, error) {
	factory, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	instance, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %s: create instance: %w", name, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("backend %s: %w", name, ErrNoAdapter)
	}
	selected := pickAdapter(adapters)

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("backend %s: open device: %w", name, err)
	}

	trimesh.Logger().Info("backend: device opened", "backend", name, "adapter", selected.Info.Name)
	return &Device{
		Backend:     name,
		AdapterName: selected.Info.Name,
		Device:      openDev.Device,
		Queue:       openDev.Queue,
		Limits:      limits,
		instance:    instance,
	}, nil
}

// OpenDefault opens the first backend that works, in priority order.
func OpenDefault() (*Device, error) {
	var errs []error
	for _, name := range candidates() {
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		trimesh.Logger().Debug("backend: skipped", "backend", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, errors.Join(errs...)
}

// pickAdapter prefers a discrete GPU, then an integrated one, then the
// first adapter listed.
func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}
