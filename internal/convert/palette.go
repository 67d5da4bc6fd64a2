package convert

import (
	"encoding/binary"
	"fmt"
	"image/color"

	"github.com/gogpu/texcache/backend"
)

// RGB888ToARGB1555 packs c into ARGB1555 with the alpha bit set.
// Each channel keeps its top five bits.
func RGB888ToARGB1555(c color.RGBA) uint16 {
	return uint16(c.B&0xF8)>>3 |
		uint16(c.G&0xF8)<<2 |
		uint16(c.R&0xF8)<<7 |
		0x8000
}

// paletteColor returns entry i, or opaque black past the end of a short
// palette.
func paletteColor(palette []color.RGBA, i int) color.RGBA {
	if i < len(palette) {
		return palette[i]
	}
	return color.RGBA{A: 0xFF}
}

// PaletteLUT16 builds the ARGB1555 lookup table for a palette.
// When masked, entry 0 is the all-zero (fully transparent) texel.
func PaletteLUT16(palette []color.RGBA, masked bool) [256]uint16 {
	var lut [256]uint16
	for i := range lut {
		lut[i] = RGB888ToARGB1555(paletteColor(palette, i))
	}
	if masked {
		lut[0] = 0
	}
	return lut
}

// PaletteLUT32 builds the RGBA8 lookup table for a palette.
// Every entry is opaque except entry 0 when masked, which is all zero.
func PaletteLUT32(palette []color.RGBA, masked bool) [256][4]byte {
	var lut [256][4]byte
	for i := range lut {
		c := paletteColor(palette, i)
		lut[i] = [4]byte{c.R, c.G, c.B, 0xFF}
	}
	if masked {
		lut[0] = [4]byte{}
	}
	return lut
}

// Indexed converts a palettized mip (one index byte per texel) into
// opts.Target, replicating texels up to opts.MinSize.
//
// TexelIndex8 keeps the indices and returns the ARGB1555 table in
// Image.Palette for hardware lookup.
func Indexed(dst []byte, src Mip, palette []color.RGBA, opts Options) (Image, error) {
	switch opts.Target {
	case backend.TexelARGB1555, backend.TexelRGBA8, backend.TexelIndex8:
	default:
		return Image{}, fmt.Errorf("%w: indexed to %v", ErrUnsupportedFormat, opts.Target)
	}

	uTimes, vTimes, err := prepare(dst, src, 1, opts.Target, opts.MinSize)
	if err != nil {
		return Image{}, err
	}

	texels := src.Data[:src.Width*src.Height]
	o := 0
	switch opts.Target {
	case backend.TexelARGB1555:
		lut := PaletteLUT16(palette, opts.Masked)
		for _, idx := range texels {
			v := lut[idx]
			for k := 0; k < uTimes; k++ {
				binary.LittleEndian.PutUint16(dst[o:], v)
				o += 2
			}
		}
	case backend.TexelRGBA8:
		lut := PaletteLUT32(palette, opts.Masked)
		for _, idx := range texels {
			v := lut[idx]
			for k := 0; k < uTimes; k++ {
				copy(dst[o:o+4], v[:])
				o += 4
			}
		}
	case backend.TexelIndex8:
		for _, idx := range texels {
			for k := 0; k < uTimes; k++ {
				dst[o] = idx
				o++
			}
		}
	}

	img := Image{
		Width:  src.Width * uTimes,
		Height: src.Height,
		Format: opts.Target,
		Data:   dst[:o],
	}
	if opts.Target == backend.TexelIndex8 {
		img.Palette = encodeLUT16(PaletteLUT16(palette, opts.Masked))
	}
	return verticalUpscale(dst, img, vTimes), nil
}

func encodeLUT16(lut [256]uint16) []byte {
	b := make([]byte, len(lut)*2)
	for i, v := range lut {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}
