package texdump

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"os"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/gogpu/texcache/backend"
	"github.com/gogpu/texcache/internal/convert"
)

func TestDecodeTexels(t *testing.T) {
	tests := []struct {
		name string
		v    uint16
		fn   func(uint16) color.NRGBA
		want color.NRGBA
	}{
		{"argb1555 white", 0xFFFF, ARGB1555, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}},
		{"argb1555 transparent", 0x0000, ARGB1555, color.NRGBA{}},
		{"argb1555 red", 0xFC00, ARGB1555, color.NRGBA{R: 0xFF, A: 0xFF}},
		{"rgb565 white", 0xFFFF, RGB565, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}},
		{"rgb565 green", 0x07E0, RGB565, color.NRGBA{G: 0xFF, A: 0xFF}},
		{"rgb565 black", 0x0000, RGB565, color.NRGBA{A: 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.v); got != tt.want {
				t.Errorf("decode(%#04x) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestDecodeIndexed(t *testing.T) {
	pal := make([]byte, 512)
	binary.LittleEndian.PutUint16(pal[2:], 0x801F) // index 1: blue
	img := convert.Image{
		Width: 2, Height: 1, Format: backend.TexelIndex8,
		Data: []byte{0, 1}, Palette: pal,
	}

	out, err := Decode(img)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := out.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("index 0 = %v, want transparent", got)
	}
	if got := out.NRGBAAt(1, 0); got != (color.NRGBA{B: 0xFF, A: 0xFF}) {
		t.Errorf("index 1 = %v, want opaque blue", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(convert.Image{Width: 8, Height: 8, Format: backend.TexelRGB565VQ, Data: []byte{1}}); !errors.Is(err, ErrUndecodable) {
		t.Errorf("Decode(VQ) error = %v, want ErrUndecodable", err)
	}
	if _, err := Decode(convert.Image{Width: 8, Height: 8, Format: backend.TexelRGBA8, Data: []byte{1}}); err == nil {
		t.Error("Decode() with short data should fail")
	}
}

func TestWriterBMP(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	img := convert.Image{Width: 2, Height: 2, Format: backend.TexelRGBA8, Data: bytes.Repeat([]byte{10, 20, 30, 0xFF}, 4)}
	path, err := w.Write(100|1<<60, 0, img)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if path != w.Path(100|1<<60, 0) {
		t.Errorf("Write() path = %q, want %q", path, w.Path(100|1<<60, 0))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("bmp.Decode() error = %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("decoded bounds = %v, want 2x2", b)
	}
	r, g, b, _ := decoded.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("decoded texel = %d,%d,%d, want 10,20,30", r>>8, g>>8, b>>8)
	}
}

func TestWriterPNG(t *testing.T) {
	w, err := NewWriter(t.TempDir(), ".png")
	if err != nil {
		t.Fatal(err)
	}
	img := convert.Image{Width: 1, Height: 1, Format: backend.TexelRGB565, Data: []byte{0xFF, 0xFF}}
	path, err := w.Write(7, 0, img)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("Write() with .png did not produce a PNG file")
	}
}
