package texcache

import (
	"log/slog"

	"github.com/gogpu/texcache/backend"
)

// DeviceOption configures a Device during creation.
//
// Example:
//
//	// Best registered backend, defaults from its capabilities
//	dev, err := texcache.NewDevice()
//
//	// Explicit backend with nearest filtering for palettized textures
//	dev, err := texcache.NewDevice(
//		texcache.WithBackend("software"),
//		texcache.WithNoFiltering(true),
//	)
type DeviceOption func(*deviceOptions)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	device        backend.Device
	backendName   string
	minTexSize    int // -1: from backend caps
	maxMipLevel   int // -1: from backend caps
	noFiltering   bool
	releaseSource bool
	maxResident   int
	dumpDir       string
	logger        *slog.Logger
}

// defaultOptions returns the default device options.
func defaultOptions() deviceOptions {
	return deviceOptions{
		minTexSize:  -1,
		maxMipLevel: -1,
	}
}

// WithDevice uses d directly instead of looking a backend up in the
// registry. Use this for dependency injection of a configured backend.
func WithDevice(d backend.Device) DeviceOption {
	return func(o *deviceOptions) {
		o.device = d
	}
}

// WithBackend selects a registered backend by name.
// An empty name selects backend.Default().
func WithBackend(name string) DeviceOption {
	return func(o *deviceOptions) {
		o.backendName = name
	}
}

// WithMinTexSize overrides the backend's minimum texture size. Smaller
// textures are upscaled by replication. Sizes must be powers of two; 0 or 1
// disables upscaling.
func WithMinTexSize(n int) DeviceOption {
	return func(o *deviceOptions) {
		if n >= 0 {
			o.minTexSize = n
		}
	}
}

// WithMaxMipLevel overrides the highest mip level uploaded.
func WithMaxMipLevel(level int) DeviceOption {
	return func(o *deviceOptions) {
		if level >= 0 {
			o.maxMipLevel = level
		}
	}
}

// WithNoFiltering samples palettized textures with nearest filtering.
func WithNoFiltering(on bool) DeviceOption {
	return func(o *deviceOptions) {
		o.noFiltering = on
	}
}

// WithReleaseSourcePixels drops the source pixels of static textures after
// their first upload to save memory. Palettized textures are released only
// once both their plain and masked copies are resident. Realtime textures,
// lightmaps and textures drawn as tiles keep their pixels. A texture is
// known to be a tile only from its first DrawTile, so one bound earlier
// through SetTexture may already have been released. Released textures
// cannot be uploaded again after a Flush, which also forgets known tiles.
func WithReleaseSourcePixels(on bool) DeviceOption {
	return func(o *deviceOptions) {
		o.releaseSource = on
	}
}

// WithMaxResidentTextures bounds the number of native textures. When
// exceeded, the least recently used quarter is released. 0 means unlimited.
func WithMaxResidentTextures(n int) DeviceOption {
	return func(o *deviceOptions) {
		if n >= 0 {
			o.maxResident = n
		}
	}
}

// WithDumpDir writes mip 0 of every uploaded texture to dir as a BMP file.
func WithDumpDir(dir string) DeviceOption {
	return func(o *deviceOptions) {
		o.dumpDir = dir
	}
}

// WithLogger sets the logger for this device and its backend.
// Without it the device uses the package logger (see SetLogger).
func WithLogger(l *slog.Logger) DeviceOption {
	return func(o *deviceOptions) {
		o.logger = l
	}
}
