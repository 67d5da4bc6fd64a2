// Package texcache is a render device for a classic software-era 3D engine
// running on fixed-function GPUs.
//
// The engine describes each draw with a TextureInfo (palettized texture,
// 7-bit lightmap or precompressed data), polygon flags and a scene node.
// The Device converts textures into the texel format the backend stores,
// uploads them once, and rebinds the native copy on later draws. Realtime
// textures flagged as changed are re-uploaded in place. Blend, color mask,
// depth write, alpha test, viewport and projection changes are issued only
// when they differ from the current state.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/texcache"
//		_ "github.com/gogpu/texcache/backend/software"
//	)
//
//	dev, err := texcache.NewDevice(texcache.WithBackend("software"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := dev.Init(640, 480); err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Exit()
//
//	dev.Lock(texcache.DefaultFlashScale, mgl32.Vec4{}, mgl32.Vec4{}, texcache.LockClearScreen)
//	if err := dev.DrawComplexSurface(frame, surface, facet); err != nil {
//		log.Fatal(err)
//	}
//	if err := dev.Unlock(true); err != nil {
//		log.Fatal(err)
//	}
//
// # Texture keys
//
// A texture is identified by its CacheID. Palettized textures drawn with
// PolyMasked get a second native copy in which palette index 0 is
// transparent; both copies stay resident independently.
//
// # Errors
//
// Malformed textures (no mips, missing pixel data, sizes that cannot be
// upscaled) are logged, unbound and skipped. Unsupported formats, handle
// exhaustion and failed uploads are returned; IsFatal reports them and the
// caller is expected to stop rendering.
//
// # Logging
//
// The package is silent by default. Use SetLogger or WithLogger to route
// diagnostics to a slog.Logger.
package texcache
