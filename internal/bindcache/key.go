package bindcache

import "fmt"

// Variant distinguishes native copies of the same source texture.
type Variant uint8

const (
	// VariantPlain is the texture as authored.
	VariantPlain Variant = iota
	// VariantMasked has palette index 0 converted to transparent.
	VariantMasked
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantPlain:
		return "plain"
	case VariantMasked:
		return "masked"
	default:
		return fmt.Sprintf("Variant(%d)", v)
	}
}

// MaskedTag is the bit set in a packed key for the masked variant.
const MaskedTag uint64 = 1 << 60

// Key identifies one native texture: a source CacheID plus its variant.
type Key struct {
	ID      uint64
	Variant Variant
}

// NewKey returns the key for drawing texture id. Only palettized textures
// have a masked variant; masking a direct-color texture changes nothing, so
// it shares the plain entry.
func NewKey(id uint64, masked, indexed bool) Key {
	if masked && indexed {
		return Key{ID: id, Variant: VariantMasked}
	}
	return Key{ID: id, Variant: VariantPlain}
}

// Pack returns the single 64-bit form of k, with MaskedTag marking the
// masked variant.
func (k Key) Pack() uint64 {
	if k.Variant == VariantMasked {
		return k.ID | MaskedTag
	}
	return k.ID
}

// String returns a readable form of the key.
func (k Key) String() string {
	return fmt.Sprintf("%#x/%s", k.ID, k.Variant)
}
