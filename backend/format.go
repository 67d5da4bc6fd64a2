package backend

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TexelFormat is the layout of converted texture data as the device
// stores it.
type TexelFormat uint8

const (
	// TexelUnknown is an invalid format.
	TexelUnknown TexelFormat = iota

	// TexelARGB1555 is 16-bit with a 1-bit alpha in the top bit.
	TexelARGB1555

	// TexelRGB565 is 16-bit opaque color.
	TexelRGB565

	// TexelRGBA8 is 8 bits per channel in R, G, B, A byte order.
	TexelRGBA8

	// TexelIndex8 is one palette index per texel, looked up in hardware.
	TexelIndex8

	// TexelARGB1555VQ is vector-quantized ARGB1555, uploaded unchanged.
	TexelARGB1555VQ

	// TexelRGB565VQ is vector-quantized RGB565, uploaded unchanged.
	TexelRGB565VQ
)

// String returns a human-readable name for the format.
func (f TexelFormat) String() string {
	switch f {
	case TexelARGB1555:
		return "ARGB1555"
	case TexelRGB565:
		return "RGB565"
	case TexelRGBA8:
		return "RGBA8"
	case TexelIndex8:
		return "Index8"
	case TexelARGB1555VQ:
		return "ARGB1555VQ"
	case TexelRGB565VQ:
		return "RGB565VQ"
	default:
		return fmt.Sprintf("TexelFormat(%d)", f)
	}
}

// BytesPerTexel returns the size of one texel, or 0 for compressed and
// unknown formats.
func (f TexelFormat) BytesPerTexel() int {
	switch f {
	case TexelARGB1555, TexelRGB565:
		return 2
	case TexelRGBA8:
		return 4
	case TexelIndex8:
		return 1
	default:
		return 0
	}
}

// IsCompressed reports whether the format is an opaque compressed payload.
func (f TexelFormat) IsCompressed() bool {
	return f == TexelARGB1555VQ || f == TexelRGB565VQ
}

// GPUFormat returns the WebGPU texture format matching f, or
// gputypes.TextureFormatUndefined when there is none.
func (f TexelFormat) GPUFormat() gputypes.TextureFormat {
	switch f {
	case TexelRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case TexelIndex8:
		return gputypes.TextureFormatR8Uint
	default:
		return gputypes.TextureFormatUndefined
	}
}

// Caps describes what a device can store.
type Caps struct {
	// IndexedFormat is the target of palettized textures.
	// TexelIndex8 selects hardware palette lookup.
	IndexedFormat TexelFormat

	// DirectFormat is the target of direct-color lightmaps.
	DirectFormat TexelFormat

	// MinTexSize is the smallest width and height the device samples
	// correctly. Smaller textures are upscaled by replication.
	MinTexSize int

	// MaxMipLevel is the highest mip level uploaded.
	MaxMipLevel int

	// Compressed lists the compressed formats accepted unchanged.
	Compressed []TexelFormat
}

// HardwarePalette reports whether indexed textures keep their indices.
func (c Caps) HardwarePalette() bool {
	return c.IndexedFormat == TexelIndex8
}

// SupportsCompressed reports whether f is accepted as a compressed upload.
func (c Caps) SupportsCompressed(f TexelFormat) bool {
	for _, cf := range c.Compressed {
		if cf == f {
			return true
		}
	}
	return false
}
