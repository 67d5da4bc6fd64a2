package texcache

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texcache/backend/software"
)

func testFrame(sky bool) *Frame {
	return &Frame{
		X:    640,
		Y:    480,
		FX:   640,
		FY:   480,
		FX2:  320,
		FY2:  240,
		FOV:  90,
		Zone: &Zone{Sky: sky},
	}
}

func testFacet() Facet {
	return Facet{
		MapCoords: MapCoords{
			Origin: mgl32.Vec3{0, 0, 0},
			XAxis:  mgl32.Vec3{1, 0, 0},
			YAxis:  mgl32.Vec3{0, 1, 0},
		},
		Polys: []Poly{
			{Points: []mgl32.Vec3{{0, 0, 10}, {8, 0, 10}, {8, 8, 10}, {0, 8, 10}}},
			{Points: []mgl32.Vec3{{0, 0, 10}, {1, 1, 10}}}, // degenerate, skipped
		},
	}
}

func TestSetBlendPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		sky   bool
		flags PolyFlags
		want  PolyFlags
	}{
		{"opaque occludes", false, 0, PolyOcclude},
		{"masked occludes", false, PolyMasked, PolyMasked | PolyOcclude},
		{"translucent clears masked", false, PolyTranslucent | PolyMasked, PolyTranslucent},
		{"modulated keeps masked", false, PolyModulated | PolyMasked, PolyModulated | PolyMasked},
		{"sky never occludes", true, PolyMasked, PolyMasked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, software.New())
			d.SetSceneNode(testFrame(tt.sky))
			if got := d.SetBlend(tt.flags); got != tt.want {
				t.Errorf("SetBlend(%#x) = %#x, want %#x", tt.flags, got, tt.want)
			}
		})
	}
}

func TestSetBlendElidesRedundantState(t *testing.T) {
	sw := software.New()
	d := newTestDevice(t, sw)

	d.SetBlend(PolyTranslucent)
	calls := sw.Counters().StateCalls
	d.SetBlend(PolyTranslucent)
	if got := sw.Counters().StateCalls; got != calls {
		t.Errorf("repeated SetBlend issued %d state calls", got-calls)
	}

	p := sw.Pipeline()
	if !p.BlendEnabled || p.Blend.Color.DstFactor != gputypes.BlendFactorOneMinusSrc {
		t.Errorf("translucent pipeline = %+v, want One, OneMinusSrc", p)
	}
	if p.DepthWrite {
		t.Error("translucent polygons write depth")
	}
}

func TestSetSceneNode(t *testing.T) {
	sw := software.New()
	d := newTestDevice(t, sw)

	f := testFrame(false)
	f.X, f.Y, f.XB, f.YB = 320, 200, 10, 20
	d.SetSceneNode(f)
	if got, want := sw.Viewport(), [4]int{10, 480 - 200 - 20, 320, 200}; got != want {
		t.Errorf("Viewport() = %v, want %v", got, want)
	}

	d.SetSceneNode(f)
	if vp, proj := d.Stats().ViewportChanges, d.Stats().ProjectionChanges; vp != 1 || proj != 1 {
		t.Errorf("changes after repeat = %d viewport, %d projection, want 1 and 1", vp, proj)
	}

	d.SetSceneNode(nil)
	d.SetSceneNode(f)
	if vp := d.Stats().ViewportChanges; vp != 2 {
		t.Errorf("ViewportChanges after invalidate = %d, want 2", vp)
	}
}

func TestDrawComplexSurface(t *testing.T) {
	sw := software.New()
	d := newTestDevice(t, sw)

	surf := Surface{Texture: indexedTexture(1, 8), Lightmap: lightmapTexture(2)}
	if err := d.DrawComplexSurface(testFrame(false), surf, testFacet()); err != nil {
		t.Fatal(err)
	}

	draws := sw.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want base and lightmap pass", len(draws))
	}
	base, light := draws[0], draws[1]
	if base.Texture == light.Texture {
		t.Error("lightmap pass used the base texture")
	}
	if base.Pipeline.BlendEnabled || !base.Pipeline.DepthWrite {
		t.Errorf("base pass pipeline = %+v, want opaque occluding", base.Pipeline)
	}
	if !light.Pipeline.BlendEnabled || light.Pipeline.Blend.Color.SrcFactor != gputypes.BlendFactorDst {
		t.Errorf("lightmap pass pipeline = %+v, want modulated", light.Pipeline)
	}

	// The point (8, 0) maps to u = 8 * 1/(1*8) on the base texture.
	if got := base.Vertices[1].UV; got != (mgl32.Vec2{1, 0}) {
		t.Errorf("base UV = %v, want [1 0]", got)
	}
	// Lightmap pan is biased by half a texel of world scale.
	if got := light.Vertices[0].UV; got != (mgl32.Vec2{8.0 / 128, 8.0 / 128}) {
		t.Errorf("lightmap UV = %v, want %v", got, mgl32.Vec2{8.0 / 128, 8.0 / 128})
	}
}

func TestDrawComplexSurfaceMasked(t *testing.T) {
	sw := software.New()
	d := newTestDevice(t, sw)

	surf := Surface{Texture: indexedTexture(1, 8), Lightmap: lightmapTexture(2), PolyFlags: PolyMasked}
	if err := d.DrawComplexSurface(testFrame(false), surf, testFacet()); err != nil {
		t.Fatal(err)
	}

	draws := sw.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(draws))
	}
	if !draws[0].Pipeline.AlphaTest {
		t.Error("masked base pass without alpha test")
	}
	if got := draws[1].Pipeline.DepthCompare; got != gputypes.CompareFunctionEqual {
		t.Errorf("masked lightmap DepthCompare = %v, want Equal", got)
	}
	if got := sw.Pipeline().DepthCompare; got != gputypes.CompareFunctionLessEqual {
		t.Errorf("DepthCompare after draw = %v, want LessEqual", got)
	}
}

func TestDrawComplexSurfaceSky(t *testing.T) {
	tests := []struct {
		name  string
		flags PolyFlags
		draws int
	}{
		{"opaque without lightmap pass", 0, 1},
		{"translucent skipped", PolyTranslucent, 0},
		{"masked skipped", PolyMasked, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := software.New()
			d := newTestDevice(t, sw)
			surf := Surface{Texture: indexedTexture(1, 8), Lightmap: lightmapTexture(2), PolyFlags: tt.flags}
			if err := d.DrawComplexSurface(testFrame(true), surf, testFacet()); err != nil {
				t.Fatal(err)
			}
			if got := len(sw.Draws()); got != tt.draws {
				t.Errorf("draws = %d, want %d", got, tt.draws)
			}
		})
	}
}

func gouraudPoints() []TransTexture {
	light := mgl32.Vec3{0.5, 0.25, 1}
	fog := mgl32.Vec4{0.1, 0.2, 0.3, 0.4}
	return []TransTexture{
		{Point: mgl32.Vec3{0, 0, 1}, U: 0, V: 0, Light: light, Fog: fog},
		{Point: mgl32.Vec3{1, 0, 1}, U: 8, V: 0, Light: light, Fog: fog},
		{Point: mgl32.Vec3{1, 1, 1}, U: 8, V: 8, Light: light, Fog: fog},
	}
}

func TestDrawGouraudPolygon(t *testing.T) {
	tests := []struct {
		name      string
		flags     PolyFlags
		draws     int
		wantColor mgl32.Vec4
	}{
		{"lit", 0, 1, mgl32.Vec4{0.5, 0.25, 1, 1}},
		{"modulated ignores light", PolyModulated, 1, mgl32.Vec4{1, 1, 1, 1}},
		{"fogged", PolyRenderFog, 2, mgl32.Vec4{0.5, 0.25, 1, 1}},
		{"translucent fog skipped", PolyRenderFog | PolyTranslucent, 1, mgl32.Vec4{0.5, 0.25, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := software.New()
			d := newTestDevice(t, sw)
			if err := d.DrawGouraudPolygon(testFrame(false), indexedTexture(1, 8), gouraudPoints(), tt.flags); err != nil {
				t.Fatal(err)
			}

			draws := sw.Draws()
			if len(draws) != tt.draws {
				t.Fatalf("draws = %d, want %d", len(draws), tt.draws)
			}
			if got := draws[0].Vertices[0].Color; got != tt.wantColor {
				t.Errorf("vertex color = %v, want %v", got, tt.wantColor)
			}
			if got := draws[0].Vertices[2].UV; got != (mgl32.Vec2{1, 1}) {
				t.Errorf("UV = %v, want [1 1]", got)
			}
			if tt.draws == 2 {
				fog := draws[1]
				if fog.Texture != 0 {
					t.Errorf("fog pass texture = %d, want untextured", fog.Texture)
				}
				if fog.Pipeline.Blend.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
					t.Errorf("fog pass blend = %+v, want highlighted", fog.Pipeline.Blend)
				}
				if got := fog.Vertices[0].Color; got != (mgl32.Vec4{0.1, 0.2, 0.3, 0.4}) {
					t.Errorf("fog color = %v", got)
				}
			}
		})
	}
}

func TestDrawTile(t *testing.T) {
	sw := software.New()
	d := newTestDevice(t, sw)
	frame := testFrame(false)

	tile := Tile{X: 320, Y: 240, XL: 64, YL: 32, U: 0, V: 0, UL: 8, VL: 4, Z: 2, Light: mgl32.Vec3{1, 0.5, 0.5}}
	if err := d.DrawTile(frame, indexedTexture(1, 8), tile, PolyMasked); err != nil {
		t.Fatal(err)
	}

	draws := sw.Draws()
	if len(draws) != 1 || len(draws[0].Vertices) != 4 {
		t.Fatalf("draws = %+v, want one quad", draws)
	}
	v := draws[0].Vertices
	p := d.scene.Projection()
	if v[0].Pos != (mgl32.Vec3{0, 0, 2}) {
		t.Errorf("corner 0 = %v, want view center at depth 2", v[0].Pos)
	}
	if want := p.RFX2 * 2 * 64; !mgl32.FloatEqual(v[2].Pos.X(), want) {
		t.Errorf("corner 2 x = %v, want %v", v[2].Pos.X(), want)
	}
	if got := v[2].UV; got != (mgl32.Vec2{1, 0.5}) {
		t.Errorf("corner 2 UV = %v, want [1 0.5]", got)
	}
	if got := v[0].Color; got != (mgl32.Vec4{1, 0.5, 0.5, 1}) {
		t.Errorf("tile color = %v", got)
	}
}
