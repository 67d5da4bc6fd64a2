package texcache

import "github.com/gogpu/texcache/internal/state"

// PolyFlags describe how a polygon is drawn.
type PolyFlags uint32

// Polygon flags. Values match the engine's bit layout.
const (
	PolyInvisible   = PolyFlags(state.Invisible)
	PolyMasked      = PolyFlags(state.Masked)
	PolyTranslucent = PolyFlags(state.Translucent)
	PolyModulated   = PolyFlags(state.Modulated)
	PolyNoSmooth    PolyFlags = 0x00000800
	PolyHighlighted = PolyFlags(state.Highlighted)
	PolyRenderFog   PolyFlags = 0x40000000
	PolyOcclude     = PolyFlags(state.Occlude)
)

// TextureFlags describe the lifetime of a texture's pixels.
type TextureFlags uint32

const (
	// TextureRealtime marks a texture whose pixels are regenerated at
	// runtime. Its source pixels are never released.
	TextureRealtime TextureFlags = 1 << iota

	// TextureRealtimeChanged is set by the engine when a realtime
	// texture's pixels changed. The device clears it after re-uploading.
	TextureRealtimeChanged
)

// LockFlags control frame setup in Lock.
type LockFlags uint32

const (
	// LockClearScreen clears the color buffer.
	LockClearScreen LockFlags = 1 << iota
)
