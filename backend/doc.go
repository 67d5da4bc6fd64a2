// Package backend defines the GPU collaborator driven by the texture cache
// and a registry for selecting an implementation at runtime.
//
// # Backend Registration
//
// Backends register themselves from init() functions:
//
//	import _ "github.com/gogpu/texcache/backend/software"
//	import _ "github.com/gogpu/texcache/backend/wgpu"
//
// # Backend Selection
//
// Use Default() to get the best available device, or Get() to request
// a specific backend by name:
//
//	d := backend.Default()
//	d := backend.Get(backend.BackendSoftware)
//
// # Capabilities
//
// Each device reports its Caps: the texel formats palettized textures and
// lightmaps are converted into, the minimum texture size, the highest mip
// level uploaded and the compressed formats it accepts unchanged. Console
// style devices store 16-bit texels and need at least 8x8 textures; the
// WebGPU device stores RGBA8.
//
// # Available Backends
//
//   - "software": in-memory device that records every call (always available)
//   - "wgpu": WebGPU HAL device via gogpu/wgpu
package backend
