// Package wgpu provides a backend.Device on top of the gogpu/wgpu HAL.
//
// Textures are real HAL textures in RGBA8Unorm, created on the first full
// upload of level 0 and written with Queue.WriteTexture. Sampling filters
// map to shared HAL samplers. Fixed-function state is tracked as gputypes
// values and every DrawFan is appended to the current frame's batch list,
// which a host renderer reads with Batches before Present.
//
// The device either wraps an existing hal.Device and hal.Queue (New), or
// opens the best registered HAL backend itself during Init:
//
//	import (
//		_ "github.com/gogpu/texcache/backend/wgpu"
//		_ "github.com/gogpu/wgpu/hal/allbackends"
//	)
//
//	d := backend.Get(backend.BackendWGPU)
//	if err := d.Init(640, 480); err != nil {
//		log.Fatal(err)
//	}
package wgpu
