package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/texcache/backend"
)

func grayPalette() []color.RGBA {
	p := make([]color.RGBA, 256)
	for i := range p {
		p[i] = color.RGBA{R: uint8(i), G: uint8(255 - i), B: uint8(i ^ 0x55), A: 0xFF}
	}
	return p
}

func indexMip(w, h int) Mip {
	data := make([]byte, w*h)
	for i := range data {
		data[i] = byte(i)
	}
	return Mip{Width: w, Height: h, Data: data}
}

func TestRGB888ToARGB1555(t *testing.T) {
	tests := []struct {
		c    color.RGBA
		want uint16
	}{
		{color.RGBA{}, 0x8000},
		{color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF}, 0xFFFF},
		{color.RGBA{R: 0xFF}, 0xFC00},
		{color.RGBA{G: 0xFF}, 0x83E0},
		{color.RGBA{B: 0xFF}, 0x801F},
		{color.RGBA{R: 0x07, G: 0x07, B: 0x07}, 0x8000}, // truncated, not rounded
		{color.RGBA{R: 0x08, G: 0x10, B: 0x18}, 0x8000 | 1<<10 | 2<<5 | 3},
	}

	for _, tt := range tests {
		if got := RGB888ToARGB1555(tt.c); got != tt.want {
			t.Errorf("RGB888ToARGB1555(%v) = %#04x, want %#04x", tt.c, got, tt.want)
		}
	}
}

func TestBGRA7ToRGB565(t *testing.T) {
	tests := []struct {
		b, g, r byte
		want    uint16
	}{
		{0, 0, 0, 0},
		{0x7F, 0x7F, 0x7F, 0xFFFF},
		{0x7F, 0, 0, 0x001F},
		{0, 0x7F, 0, 0x07E0},
		{0, 0, 0x7F, 0xF800},
		{0x03, 0x01, 0x03, 0}, // low bits dropped
	}

	for _, tt := range tests {
		if got := BGRA7ToRGB565(tt.b, tt.g, tt.r); got != tt.want {
			t.Errorf("BGRA7ToRGB565(%#x, %#x, %#x) = %#04x, want %#04x", tt.b, tt.g, tt.r, got, tt.want)
		}
	}
}

func TestPaletteLUTMasking(t *testing.T) {
	p := grayPalette()

	plain := PaletteLUT16(p, false)
	masked := PaletteLUT16(p, true)
	if plain[0]&0x8000 == 0 {
		t.Errorf("unmasked LUT16[0] = %#04x, want alpha bit set", plain[0])
	}
	if masked[0] != 0 {
		t.Errorf("masked LUT16[0] = %#04x, want 0", masked[0])
	}
	for i := 1; i < 256; i++ {
		if plain[i] != masked[i] || masked[i]&0x8000 == 0 {
			t.Fatalf("LUT16[%d] plain=%#04x masked=%#04x, want equal and opaque", i, plain[i], masked[i])
		}
	}

	plain32 := PaletteLUT32(p, false)
	masked32 := PaletteLUT32(p, true)
	if plain32[0][3] != 0xFF {
		t.Errorf("unmasked LUT32[0] alpha = %#x, want 0xff", plain32[0][3])
	}
	if masked32[0] != [4]byte{} {
		t.Errorf("masked LUT32[0] = %v, want zero", masked32[0])
	}
	if masked32[1][3] != 0xFF {
		t.Errorf("masked LUT32[1] alpha = %#x, want 0xff", masked32[1][3])
	}
}

func TestPaletteLUTShortPalette(t *testing.T) {
	lut := PaletteLUT16([]color.RGBA{{R: 0xFF, A: 0xFF}}, false)
	if lut[0] != 0xFC00 {
		t.Errorf("LUT16[0] = %#04x, want 0xfc00", lut[0])
	}
	if lut[200] != 0x8000 {
		t.Errorf("LUT16[200] = %#04x, want opaque black", lut[200])
	}
}

func TestFactors(t *testing.T) {
	tests := []struct {
		w, h, min int
		wantU     int
		wantV     int
		wantErr   bool
	}{
		{4, 4, 8, 2, 2, false},
		{1, 2, 8, 8, 4, false},
		{8, 8, 8, 1, 1, false},
		{64, 2, 8, 1, 4, false},
		{16, 16, 1, 1, 1, false},
		{3, 8, 8, 0, 0, true},
		{8, 6, 16, 0, 0, true},
		{0, 8, 8, 0, 0, true},
	}

	for _, tt := range tests {
		u, v, err := Factors(tt.w, tt.h, tt.min)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("Factors(%d, %d, %d) error = %v, want ErrInvalidDimensions", tt.w, tt.h, tt.min, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Factors(%d, %d, %d) error = %v", tt.w, tt.h, tt.min, err)
			continue
		}
		if u != tt.wantU || v != tt.wantV {
			t.Errorf("Factors(%d, %d, %d) = %d, %d, want %d, %d", tt.w, tt.h, tt.min, u, v, tt.wantU, tt.wantV)
		}
	}
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		target backend.TexelFormat
		min    int
		want   int
	}{
		{"no upscale", 16, 16, backend.TexelARGB1555, 8, 16 * 16 * 2},
		{"horizontal only", 4, 8, backend.TexelARGB1555, 8, 8 * 8 * 2},
		{"both", 4, 4, backend.TexelARGB1555, 8, 8*4*2 + 8*8*2},
		{"rgba8", 4, 4, backend.TexelRGBA8, 1, 4 * 4 * 4},
		{"index8", 2, 2, backend.TexelIndex8, 8, 8*2 + 8*8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Required(tt.w, tt.h, tt.target, tt.min)
			if err != nil {
				t.Fatalf("Required() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Required() = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := Required(4, 4, backend.TexelRGB565VQ, 8); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Required(VQ) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIndexedUpscaleReplicates(t *testing.T) {
	p := grayPalette()
	src := indexMip(4, 4)
	orig := append([]byte(nil), src.Data...)

	need, err := Required(4, 4, backend.TexelARGB1555, 8)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, need)
	img, err := Indexed(dst, src, p, Options{Target: backend.TexelARGB1555, MinSize: 8})
	if err != nil {
		t.Fatalf("Indexed() error = %v", err)
	}
	if img.Width != 8 || img.Height != 8 {
		t.Fatalf("Indexed() size = %dx%d, want 8x8", img.Width, img.Height)
	}
	if len(img.Data) != 8*8*2 {
		t.Fatalf("len(Data) = %d, want %d", len(img.Data), 8*8*2)
	}

	lut := PaletteLUT16(p, false)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			got := binary.LittleEndian.Uint16(img.Data[(y*8+x)*2:])
			want := lut[src.Data[(y/2)*4+x/2]]
			if got != want {
				t.Fatalf("texel (%d,%d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
	if !bytes.Equal(src.Data, orig) {
		t.Error("Indexed() mutated the source mip")
	}
}

func TestIndexedNoUpscaleAtMinimum(t *testing.T) {
	src := indexMip(8, 8)
	dst := make([]byte, 8*8*2)
	img, err := Indexed(dst, src, grayPalette(), Options{Target: backend.TexelARGB1555, MinSize: 8})
	if err != nil {
		t.Fatalf("Indexed() error = %v", err)
	}
	if img.Width != 8 || img.Height != 8 {
		t.Errorf("Indexed() size = %dx%d, want 8x8", img.Width, img.Height)
	}
}

func TestIndexedMaskedRGBA8(t *testing.T) {
	src := Mip{Width: 2, Height: 1, Data: []byte{0, 1}}
	p := grayPalette()

	for _, masked := range []bool{false, true} {
		dst := make([]byte, 8)
		img, err := Indexed(dst, src, p, Options{Target: backend.TexelRGBA8, Masked: masked})
		if err != nil {
			t.Fatalf("Indexed(masked=%v) error = %v", masked, err)
		}
		alpha0 := img.Data[3]
		if masked && !bytes.Equal(img.Data[:4], []byte{0, 0, 0, 0}) {
			t.Errorf("masked index 0 = %v, want transparent zero", img.Data[:4])
		}
		if !masked && alpha0 != 0xFF {
			t.Errorf("unmasked index 0 alpha = %#x, want 0xff", alpha0)
		}
		want := []byte{p[1].R, p[1].G, p[1].B, 0xFF}
		if !bytes.Equal(img.Data[4:8], want) {
			t.Errorf("index 1 = %v, want %v", img.Data[4:8], want)
		}
	}
}

func TestIndexedHardwarePalette(t *testing.T) {
	src := indexMip(2, 2)
	need, _ := Required(2, 2, backend.TexelIndex8, 4)
	img, err := Indexed(make([]byte, need), src, grayPalette(), Options{Target: backend.TexelIndex8, MinSize: 4, Masked: true})
	if err != nil {
		t.Fatalf("Indexed() error = %v", err)
	}
	want := []byte{
		0, 0, 1, 1,
		0, 0, 1, 1,
		2, 2, 3, 3,
		2, 2, 3, 3,
	}
	if !bytes.Equal(img.Data, want) {
		t.Errorf("Data = %v, want %v", img.Data, want)
	}
	if len(img.Palette) != 512 {
		t.Fatalf("len(Palette) = %d, want 512", len(img.Palette))
	}
	if binary.LittleEndian.Uint16(img.Palette) != 0 {
		t.Error("masked hardware palette entry 0 is not transparent")
	}
}

func TestIndexedErrors(t *testing.T) {
	tests := []struct {
		name string
		dst  []byte
		src  Mip
		opts Options
		want error
	}{
		{"unsupported target", make([]byte, 64), indexMip(4, 4), Options{Target: backend.TexelRGB565}, ErrUnsupportedFormat},
		{"short data", make([]byte, 64), Mip{Width: 4, Height: 4, Data: make([]byte, 3)}, Options{Target: backend.TexelARGB1555}, ErrInvalidDimensions},
		{"zero size", make([]byte, 64), Mip{}, Options{Target: backend.TexelARGB1555}, ErrInvalidDimensions},
		{"non power of two", make([]byte, 1024), indexMip(3, 3), Options{Target: backend.TexelARGB1555, MinSize: 8}, ErrInvalidDimensions},
		{"short buffer", make([]byte, 10), indexMip(4, 4), Options{Target: backend.TexelARGB1555, MinSize: 8}, ErrShortBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Indexed(tt.dst, tt.src, grayPalette(), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Indexed() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDirectColor(t *testing.T) {
	// One texel: B=0x7F, G=0x40, R=0x10, A=0x7F.
	src := Mip{Width: 1, Height: 1, Data: []byte{0x7F, 0x40, 0x10, 0x7F}}

	img, err := DirectColor(make([]byte, 2), src, Options{Target: backend.TexelRGB565})
	if err != nil {
		t.Fatalf("DirectColor(RGB565) error = %v", err)
	}
	if got, want := binary.LittleEndian.Uint16(img.Data), BGRA7ToRGB565(0x7F, 0x40, 0x10); got != want {
		t.Errorf("RGB565 texel = %#04x, want %#04x", got, want)
	}

	img, err = DirectColor(make([]byte, 4), src, Options{Target: backend.TexelRGBA8})
	if err != nil {
		t.Fatalf("DirectColor(RGBA8) error = %v", err)
	}
	if want := []byte{0x20, 0x80, 0xFE, 0xFF}; !bytes.Equal(img.Data, want) {
		t.Errorf("RGBA8 texel = %v, want %v", img.Data, want)
	}

	if _, err := DirectColor(make([]byte, 4), src, Options{Target: backend.TexelARGB1555}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("DirectColor(ARGB1555) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDirectColorUpscale(t *testing.T) {
	// 2x1 lightmap upscaled to 8x8: factors 4 and 8.
	src := Mip{Width: 2, Height: 1, Data: []byte{0x7F, 0, 0, 0, 0, 0, 0x7F, 0}}
	need, err := Required(2, 1, backend.TexelRGB565, 8)
	if err != nil {
		t.Fatal(err)
	}
	img, err := DirectColor(make([]byte, need), src, Options{Target: backend.TexelRGB565, MinSize: 8})
	if err != nil {
		t.Fatalf("DirectColor() error = %v", err)
	}
	if img.Width != 8 || img.Height != 8 {
		t.Fatalf("size = %dx%d, want 8x8", img.Width, img.Height)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			got := binary.LittleEndian.Uint16(img.Data[(y*8+x)*2:])
			want := uint16(0x001F)
			if x >= 4 {
				want = 0xF800
			}
			if got != want {
				t.Fatalf("texel (%d,%d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
}

func TestPassthrough(t *testing.T) {
	src := Mip{Width: 8, Height: 8, Data: []byte{1, 2, 3}}
	img, err := Passthrough(src, backend.TexelRGB565VQ)
	if err != nil {
		t.Fatalf("Passthrough() error = %v", err)
	}
	if &img.Data[0] != &src.Data[0] || img.Format != backend.TexelRGB565VQ {
		t.Error("Passthrough() did not return the source data unchanged")
	}
	if _, err := Passthrough(src, backend.TexelRGB565); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Passthrough(RGB565) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Passthrough(Mip{Width: 8, Height: 8}, backend.TexelRGB565VQ); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Passthrough(empty) error = %v, want ErrInvalidDimensions", err)
	}
}
