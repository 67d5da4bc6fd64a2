// Package texdump writes converted textures to image files for inspection.
//
// Converted texels are decoded back to 8-bit RGBA: 5- and 6-bit channels
// are expanded by bit replication, and ARGB1555 alpha becomes 0 or 0xFF.
package texdump

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/gogpu/texcache/backend"
	"github.com/gogpu/texcache/internal/convert"
)

// ErrUndecodable is returned for formats that cannot be decoded, such as
// compressed payloads.
var ErrUndecodable = errors.New("texdump: format cannot be decoded")

// Decode expands a converted image to NRGBA.
func Decode(img convert.Image) (*image.NRGBA, error) {
	bpt := img.Format.BytesPerTexel()
	if bpt == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, img.Format)
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Data) < img.Width*img.Height*bpt {
		return nil, fmt.Errorf("texdump: %dx%d %v image with %d bytes", img.Width, img.Height, img.Format, len(img.Data))
	}
	if img.Format == backend.TexelIndex8 && len(img.Palette) < 512 {
		return nil, fmt.Errorf("texdump: indexed image with %d palette bytes", len(img.Palette))
	}

	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := y*img.Width + x
			out.SetNRGBA(x, y, texel(img, i, bpt))
		}
	}
	return out, nil
}

func texel(img convert.Image, i, bpt int) color.NRGBA {
	switch img.Format {
	case backend.TexelARGB1555:
		return ARGB1555(binary.LittleEndian.Uint16(img.Data[i*bpt:]))
	case backend.TexelRGB565:
		return RGB565(binary.LittleEndian.Uint16(img.Data[i*bpt:]))
	case backend.TexelIndex8:
		return ARGB1555(binary.LittleEndian.Uint16(img.Palette[int(img.Data[i])*2:]))
	default:
		s := img.Data[i*bpt : i*bpt+4]
		return color.NRGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
	}
}

// expand5 widens a 5-bit channel to 8 bits.
func expand5(v uint16) uint8 { return uint8(v<<3 | v>>2) }

// expand6 widens a 6-bit channel to 8 bits.
func expand6(v uint16) uint8 { return uint8(v<<2 | v>>4) }

// ARGB1555 decodes one ARGB1555 texel.
func ARGB1555(v uint16) color.NRGBA {
	c := color.NRGBA{
		R: expand5(v >> 10 & 0x1F),
		G: expand5(v >> 5 & 0x1F),
		B: expand5(v & 0x1F),
	}
	if v&0x8000 != 0 {
		c.A = 0xFF
	}
	return c
}

// RGB565 decodes one RGB565 texel.
func RGB565(v uint16) color.NRGBA {
	return color.NRGBA{
		R: expand5(v >> 11 & 0x1F),
		G: expand6(v >> 5 & 0x3F),
		B: expand5(v & 0x1F),
		A: 0xFF,
	}
}

// Encode writes img as PNG when ext is ".png", otherwise as BMP.
func Encode(w io.Writer, img image.Image, ext string) error {
	if strings.EqualFold(ext, ".png") {
		return png.Encode(w, img)
	}
	return bmp.Encode(w, img)
}

// Writer writes decoded textures into a directory.
type Writer struct {
	dir string
	ext string
}

// NewWriter creates dir if needed. ext selects the file type (".bmp" or
// ".png"); empty means ".bmp".
func NewWriter(dir, ext string) (*Writer, error) {
	if ext == "" {
		ext = ".bmp"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("texdump: %w", err)
	}
	return &Writer{dir: dir, ext: ext}, nil
}

// Path returns the file name used for a texture key and mip level.
func (w *Writer) Path(key uint64, level int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%016x_%d%s", key, level, w.ext))
}

// Write decodes img and writes it to Path(key, level).
func (w *Writer) Write(key uint64, level int, img convert.Image) (string, error) {
	decoded, err := Decode(img)
	if err != nil {
		return "", err
	}

	path := w.Path(key, level)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("texdump: %w", err)
	}
	if err := Encode(f, decoded, w.ext); err != nil {
		f.Close()
		return "", fmt.Errorf("texdump: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("texdump: %w", err)
	}
	return path, nil
}
