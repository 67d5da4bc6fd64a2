// Command texdemo drives a render device through a few frames of texture
// uploads and draws, then prints the cache statistics.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texcache"
	_ "github.com/gogpu/texcache/backend/software"
	_ "github.com/gogpu/texcache/backend/wgpu"
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		backend    = flag.String("backend", "", "backend name (overrides config)")
		frames     = flag.Int("frames", 4, "frames to render")
		dump       = flag.String("dump", "", "directory for uploaded texture dumps")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := texcache.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = texcache.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *backend != "" {
		cfg.Device.Backend = *backend
	}
	if *dump != "" {
		cfg.Device.DumpDir = *dump
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	logger := cfg.NewLogger(os.Stderr)
	texcache.SetLogger(logger)

	dev, err := texcache.NewDevice(cfg.Options()...)
	if err != nil {
		log.Fatal(err)
	}
	if err := dev.Init(cfg.Device.Width, cfg.Device.Height); err != nil {
		log.Fatal(err)
	}
	defer dev.Exit()

	s := newScene(cfg.Device.Width, cfg.Device.Height)
	for i := 0; i < *frames; i++ {
		if err := s.render(dev, i); err != nil {
			if texcache.IsFatal(err) {
				log.Fatalf("frame %d: %v", i, err)
			}
			log.Printf("frame %d: %v", i, err)
		}
	}

	st := dev.Stats()
	fmt.Printf("backend:     %s\n", dev.Backend().Name())
	fmt.Printf("frames:      %d\n", st.Frames)
	fmt.Printf("resident:    %d\n", st.Resident)
	fmt.Printf("hits/misses: %d/%d\n", st.Hits, st.Misses)
	fmt.Printf("reuploads:   %d\n", st.Reuploads)
	fmt.Printf("uploads:     %d (%d conversions)\n", st.Uploads, st.Conversions)
	fmt.Printf("skipped:     %d\n", st.Skipped)
	fmt.Printf("scratch:     %d bytes, %d grows\n", st.ScratchSize, st.ScratchGrows)
}

// scene holds the demo content: a small palettized wall texture that is
// also drawn masked, a realtime water texture and a lightmap.
type scene struct {
	frame    *texcache.Frame
	wall     *texcache.TextureInfo
	water    *texcache.TextureInfo
	lightmap *texcache.TextureInfo
	facet    texcache.Facet
}

func newScene(width, height int) *scene {
	palette := make([]color.RGBA, 256)
	for i := range palette {
		palette[i] = color.RGBA{R: uint8(i), G: uint8(255 - i), B: uint8(i / 2), A: 0xFF}
	}

	return &scene{
		frame: &texcache.Frame{
			X:    width,
			Y:    height,
			FX:   float32(width),
			FY:   float32(height),
			FX2:  float32(width) / 2,
			FY2:  float32(height) / 2,
			FOV:  90,
			Zone: &texcache.Zone{},
		},
		wall:     indexed(100, 4, palette),
		water:    indexed(200, 16, palette),
		lightmap: lightmap(300, 8),
		facet: texcache.Facet{
			MapCoords: texcache.MapCoords{
				XAxis: mgl32.Vec3{1, 0, 0},
				YAxis: mgl32.Vec3{0, 1, 0},
			},
			Polys: []texcache.Poly{{Points: []mgl32.Vec3{
				{-64, -64, 256}, {64, -64, 256}, {64, 64, 256}, {-64, 64, 256},
			}}},
		},
	}
}

func indexed(id uint64, size int, palette []color.RGBA) *texcache.TextureInfo {
	data := make([]byte, size*size)
	for i := range data {
		data[i] = byte(i)
	}
	return &texcache.TextureInfo{
		CacheID: id,
		Format:  texcache.FormatP8,
		USize:   size,
		VSize:   size,
		UScale:  1,
		VScale:  1,
		Mips:    []*texcache.Mip{{USize: size, VSize: size, Data: data}},
		Palette: palette,
	}
}

func lightmap(id uint64, size int) *texcache.TextureInfo {
	data := make([]byte, size*size*4)
	for i := 0; i < len(data); i += 4 {
		v := byte(i / 4 % 0x80)
		data[i], data[i+1], data[i+2], data[i+3] = v, v, v, 0x7F
	}
	return &texcache.TextureInfo{
		CacheID:  id,
		Format:   texcache.FormatBGRA7,
		USize:    size,
		VSize:    size,
		UScale:   16,
		VScale:   16,
		Mips:     []*texcache.Mip{{USize: size, VSize: size, Data: data}},
		Lightmap: true,
	}
}

// render draws one frame. Every other frame the water texture changes.
func (s *scene) render(dev *texcache.Device, n int) error {
	flash := texcache.DefaultFlashScale
	if n == 1 {
		flash = mgl32.Vec4{0.25, 0.25, 0.25, 0}
	}
	if err := dev.Lock(flash, mgl32.Vec4{0.4, 0, 0, 0}, mgl32.Vec4{0, 0, 0, 1}, texcache.LockClearScreen); err != nil {
		return err
	}

	dev.SetSceneNode(s.frame)
	if err := dev.DrawComplexSurface(s.frame, texcache.Surface{Texture: s.wall, Lightmap: s.lightmap}, s.facet); err != nil {
		return err
	}
	if err := dev.DrawComplexSurface(s.frame, texcache.Surface{Texture: s.wall, PolyFlags: texcache.PolyMasked}, s.facet); err != nil {
		return err
	}

	s.water.Flags |= texcache.TextureRealtime
	if n%2 == 1 {
		for i := range s.water.Mips[0].Data {
			s.water.Mips[0].Data[i]++
		}
		s.water.Flags |= texcache.TextureRealtimeChanged
	}
	pts := []texcache.TransTexture{
		{Point: mgl32.Vec3{-32, 0, 128}, U: 0, V: 0, Light: mgl32.Vec3{1, 1, 1}},
		{Point: mgl32.Vec3{32, 0, 128}, U: 16, V: 0, Light: mgl32.Vec3{1, 1, 1}},
		{Point: mgl32.Vec3{32, 32, 128}, U: 16, V: 16, Light: mgl32.Vec3{0.5, 0.5, 1}},
	}
	if err := dev.DrawGouraudPolygon(s.frame, s.water, pts, texcache.PolyTranslucent); err != nil {
		return err
	}

	tile := texcache.Tile{X: 8, Y: 8, XL: 32, YL: 32, UL: 4, VL: 4, Z: 1, Light: mgl32.Vec3{1, 1, 1}}
	if err := dev.DrawTile(s.frame, s.wall, tile, texcache.PolyMasked); err != nil {
		return err
	}

	if err := dev.EndFlash(); err != nil {
		return err
	}
	return dev.Unlock(true)
}
