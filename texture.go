package texcache

import (
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texcache/backend"
)

// TextureFormat is the layout of a texture's source pixels.
type TextureFormat uint8

const (
	// FormatP8 is one palette index per texel.
	FormatP8 TextureFormat = iota

	// FormatBGRA7 is a direct-color lightmap: four bytes per texel in
	// B, G, R, A order with 7 significant bits per channel.
	FormatBGRA7

	// FormatCompressed is data already in a native compressed format,
	// named by TextureInfo.CompressedFormat.
	FormatCompressed
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case FormatP8:
		return "P8"
	case FormatBGRA7:
		return "BGRA7"
	case FormatCompressed:
		return "Compressed"
	default:
		return fmt.Sprintf("TextureFormat(%d)", f)
	}
}

// Mip is one mip level of a source texture.
type Mip struct {
	USize int
	VSize int
	Data  []byte
}

// TextureInfo describes a texture for one draw. The device reads it, never
// changes its pixels, and may clear Mip.Data after upload when
// WithReleaseSourcePixels is set.
type TextureInfo struct {
	// CacheID identifies the texture across frames.
	CacheID uint64

	Format TextureFormat

	// CompressedFormat is the native format of FormatCompressed data.
	CompressedFormat backend.TexelFormat

	// USize and VSize are the dimensions of mip 0.
	USize, VSize int

	// UScale and VScale convert texel units to world units.
	UScale, VScale float32

	// Pan offsets texture coordinates in texels.
	Pan mgl32.Vec2

	// Mips are ordered from largest to smallest. Upload stops at the first
	// nil mip or mip without data.
	Mips []*Mip

	// Palette holds 256 colors for FormatP8. Alpha is ignored.
	Palette []color.RGBA

	Flags TextureFlags

	// Lightmap marks lighting textures; their pixels are never released.
	Lightmap bool
}

// valid reports whether the texture can be uploaded at all.
func (t *TextureInfo) valid() bool {
	if t == nil || len(t.Mips) == 0 || t.Mips[0] == nil || t.Mips[0].Data == nil {
		return false
	}
	if t.USize <= 0 || t.VSize <= 0 || t.UScale == 0 || t.VScale == 0 {
		return false
	}
	return t.Format != FormatP8 || len(t.Palette) > 0
}

// indexed reports whether the texture is palettized.
func (t *TextureInfo) indexed() bool { return t.Format == FormatP8 }

// levels returns how many mips to upload: at most maxLevel+1, stopping at
// the first missing mip.
func (t *TextureInfo) levels(maxLevel int) int {
	n := maxLevel + 1
	if n > len(t.Mips) {
		n = len(t.Mips)
	}
	for i := 0; i < n; i++ {
		if t.Mips[i] == nil || t.Mips[i].Data == nil {
			return i
		}
	}
	return n
}
