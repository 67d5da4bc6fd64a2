package backend

import (
	"sort"
	"sync"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the in-memory recording backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the WebGPU HAL backend (gogpu/wgpu).
	BackendWGPU = "wgpu"
)

// Factory creates a new device instance.
type Factory func() Device

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a device by name.
// Returns nil if the backend is not registered.
func Get(name string) Device {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available device based on priority.
// Priority order: wgpu > software.
// Returns nil if no backends are registered.
func Default() Device {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if d := factory(); d != nil {
				return d
			}
		}
	}

	// Fallback: first available in name order.
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if d := backends[name](); d != nil {
			return d
		}
	}

	return nil
}

// MustDefault returns the default device or panics.
func MustDefault() Device {
	d := Default()
	if d == nil {
		panic("backend: no backend available")
	}
	return d
}

// InitDefault returns the default device initialized for the given
// viewport size.
func InitDefault(width, height int) (Device, error) {
	d := Default()
	if d == nil {
		return nil, ErrBackendNotAvailable
	}

	if err := d.Init(width, height); err != nil {
		return nil, err
	}

	return d, nil
}
