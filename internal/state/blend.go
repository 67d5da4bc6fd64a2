package state

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texcache/backend"
)

// Flags is a set of polygon flags. Only the bits below affect pipeline
// state; other bits are carried but ignored.
type Flags uint32

const (
	Invisible   Flags = 0x00000001
	Masked      Flags = 0x00000002
	Translucent Flags = 0x00000004
	Modulated   Flags = 0x00000040
	Occlude     Flags = 0x80000000
	Highlighted Flags = 0x00010000
)

// Group masks used for change detection.
const (
	blendGroup = Translucent | Modulated | Highlighted
	allGroups  = blendGroup | Invisible | Occlude | Masked
)

var (
	translucentBlend = gputypes.BlendState{
		Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOneMinusSrc, Operation: gputypes.BlendOperationAdd},
		Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOneMinusSrc, Operation: gputypes.BlendOperationAdd},
	}
	modulatedBlend = gputypes.BlendState{
		Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorDst, DstFactor: gputypes.BlendFactorSrc, Operation: gputypes.BlendOperationAdd},
		Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorDst, DstFactor: gputypes.BlendFactorSrc, Operation: gputypes.BlendOperationAdd},
	}
	highlightedBlend = gputypes.BlendState{
		Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: gputypes.BlendOperationAdd},
		Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOneMinusSrcAlpha, Operation: gputypes.BlendOperationAdd},
	}
)

// BlendFor returns the blend enable and factors for flags.
// Translucent wins over modulated, which wins over highlighted.
func BlendFor(flags Flags) (bool, gputypes.BlendState) {
	switch {
	case flags&Translucent != 0:
		return true, translucentBlend
	case flags&Modulated != 0:
		return true, modulatedBlend
	case flags&Highlighted != 0:
		return true, highlightedBlend
	default:
		return false, gputypes.BlendStateReplace()
	}
}

// Adjust applies the polygon precedence rules: opaque polygons occlude
// unless drawn in a sky zone, and translucency disables masking.
func Adjust(flags Flags, sky bool) Flags {
	if flags&(Translucent|Modulated) == 0 && !sky {
		flags |= Occlude
	} else if flags&Translucent != 0 {
		flags &^= Masked
	}
	return flags
}

// Blend caches the active polygon flags.
type Blend struct {
	sink    backend.StateSink
	current Flags
	changes uint64
}

// NewBlend creates a Blend that starts with occlusion only, without
// touching the sink. Call Reset to synchronize the device.
func NewBlend(sink backend.StateSink) *Blend {
	return &Blend{sink: sink, current: Occlude}
}

// Set adjusts flags for the sky state, emits the groups that changed and
// returns the effective flags.
func (b *Blend) Set(flags Flags, sky bool) Flags {
	flags = Adjust(flags, sky)
	if xor := b.current ^ flags; xor&allGroups != 0 {
		b.apply(flags, xor)
	}
	b.current = flags
	return flags
}

// Reset emits every group for flags regardless of the cached state.
func (b *Blend) Reset(flags Flags) {
	b.apply(flags, allGroups)
	b.current = flags
}

// Current returns the effective flags of the last Set or Reset.
func (b *Blend) Current() Flags { return b.current }

// Changes returns the number of Set or Reset calls that reached the sink.
func (b *Blend) Changes() uint64 { return b.changes }

func (b *Blend) apply(flags, xor Flags) {
	b.changes++
	if xor&blendGroup != 0 {
		b.sink.SetBlend(BlendFor(flags))
	}
	if xor&Invisible != 0 {
		mask := gputypes.ColorWriteMaskAll
		if flags&Invisible != 0 {
			mask = gputypes.ColorWriteMaskNone
		}
		b.sink.SetColorWriteMask(mask)
	}
	if xor&Occlude != 0 {
		b.sink.SetDepthWrite(flags&Occlude != 0)
	}
	if xor&Masked != 0 {
		b.sink.SetAlphaTest(flags&Masked != 0)
	}
}
