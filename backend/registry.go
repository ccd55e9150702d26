package backend

import (
	"slices"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// Backend names.
const (
	Vulkan = "vulkan"
	Noop   = "noop"
)

// Factory creates a HAL instance for one backend.
type Factory func() (hal.Instance, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for OpenDefault (first that opens wins).
	// Hardware first, noop as the headless fallback.
	priority = []string{Vulkan, Noop}
)

// Register registers a backend factory with the given name.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// candidates returns every registered name, priority names first.
func candidates() []string {
	names := Available()
	ordered := make([]string, 0, len(names))
	for _, name := range priority {
		if slices.Contains(names, name) {
			ordered = append(ordered, name)
		}
	}
	for _, name := range names {
		if !slices.Contains(priority, name) {
			ordered = append(ordered, name)
		}
	}
	return ordered
}
