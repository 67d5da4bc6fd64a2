package convert

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/texcache/backend"
)

// BGRA7ToRGB565 packs one 7-bit-per-channel texel stored as B, G, R, A.
func BGRA7ToRGB565(b, g, r byte) uint16 {
	return uint16(b&0x7C)>>2 |
		uint16(g&0x7E)<<4 |
		uint16(r&0x7C)<<9
}

// DirectColor converts a 7-bit-per-channel BGRA mip (four bytes per texel)
// into opts.Target, replicating texels up to opts.MinSize.
//
// RGBA8 output doubles each color channel to restore the full range and is
// always opaque. opts.Masked is ignored.
func DirectColor(dst []byte, src Mip, opts Options) (Image, error) {
	switch opts.Target {
	case backend.TexelRGB565, backend.TexelRGBA8:
	default:
		return Image{}, fmt.Errorf("%w: direct color to %v", ErrUnsupportedFormat, opts.Target)
	}

	uTimes, vTimes, err := prepare(dst, src, 4, opts.Target, opts.MinSize)
	if err != nil {
		return Image{}, err
	}

	n := src.Width * src.Height
	o := 0
	for i := 0; i < n; i++ {
		s := src.Data[i*4 : i*4+4]
		switch opts.Target {
		case backend.TexelRGB565:
			v := BGRA7ToRGB565(s[0], s[1], s[2])
			for k := 0; k < uTimes; k++ {
				binary.LittleEndian.PutUint16(dst[o:], v)
				o += 2
			}
		case backend.TexelRGBA8:
			for k := 0; k < uTimes; k++ {
				dst[o] = s[2] << 1
				dst[o+1] = s[1] << 1
				dst[o+2] = s[0] << 1
				dst[o+3] = 0xFF
				o += 4
			}
		}
	}

	img := Image{
		Width:  src.Width * uTimes,
		Height: src.Height,
		Format: opts.Target,
		Data:   dst[:o],
	}
	return verticalUpscale(dst, img, vTimes), nil
}
