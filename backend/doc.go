// Package backend opens HAL devices by backend name.
//
// Backends register an instance factory under a name, typically from an
// init function. Open creates an instance, picks an adapter (discrete GPU
// first, then integrated, then whatever comes first) and opens a device on
// it. OpenDefault walks the registered backends in priority order and
// returns the first device that opens.
//
// # Registered Backends
//
//   - "vulkan": hardware rendering through gogpu/wgpu/hal/vulkan
//   - "noop": the headless noop HAL, always available
//
// # Usage
//
//	dev, err := backend.OpenDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	adapter := native.NewHALAdapter(dev.Device, dev.Queue, &dev.Limits)
package backend
