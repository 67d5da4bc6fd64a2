package texcache

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texcache/backend"
	"github.com/gogpu/texcache/internal/state"
)

var white = mgl32.Vec4{1, 1, 1, 1}

// SetBlend applies flags to the pipeline, emitting only the state that
// changed, and returns the effective flags. Opaque polygons outside sky
// zones also occlude; translucent polygons are never masked.
func (d *Device) SetBlend(flags PolyFlags) PolyFlags {
	return PolyFlags(d.blend.Set(state.Flags(flags), d.scene.Sky()))
}

// SetSceneNode makes frame the active view, updating the viewport and
// projection when they changed. A nil frame forces both to be reissued by
// the next call.
func (d *Device) SetSceneNode(frame *Frame) {
	if frame == nil {
		d.scene.Set(nil)
		return
	}
	v := &state.View{
		X: frame.X, Y: frame.Y, XB: frame.XB, YB: frame.YB,
		FX: frame.FX, FY: frame.FY, FOV: frame.FOV,
	}
	if frame.Zone != nil {
		v.HasZone = true
		v.Sky = frame.Zone.Sky
	}
	d.scene.Set(v)
}

// useFrame makes frame the active view unless it is nil.
func (d *Device) useFrame(frame *Frame) {
	if frame != nil {
		d.SetSceneNode(frame)
	}
}

// DrawComplexSurface draws the polygons of a BSP surface facet with its
// base texture and, outside sky zones, a modulated lightmap pass.
// Translucent and masked surfaces are not drawn in sky zones.
func (d *Device) DrawComplexSurface(frame *Frame, surf Surface, facet Facet) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.useFrame(frame)
	sky := d.scene.Sky()
	if sky && surf.PolyFlags&(PolyTranslucent|PolyMasked) != 0 {
		return nil
	}

	d.SetBlend(surf.PolyFlags)
	if err := d.SetTexture(surf.Texture, surf.PolyFlags, 0); err != nil {
		return err
	}
	d.drawFacet(facet, white)

	if surf.Lightmap == nil || sky {
		return nil
	}

	d.SetBlend(PolyModulated)
	masked := surf.PolyFlags&PolyMasked != 0
	if masked {
		d.dev.SetDepthCompare(gputypes.CompareFunctionEqual)
	}
	err := d.SetTexture(surf.Lightmap, 0, -0.5)
	if err == nil {
		d.drawFacet(facet, white)
	}
	if masked {
		d.dev.SetDepthCompare(gputypes.CompareFunctionLessEqual)
	}
	return err
}

// drawFacet draws every polygon of facet with the current texture,
// projecting points onto the facet's texture axes.
func (d *Device) drawFacet(facet Facet, color mgl32.Vec4) {
	mc := facet.MapCoords
	uDot := mc.XAxis.Dot(mc.Origin)
	vDot := mc.YAxis.Dot(mc.Origin)

	for _, poly := range facet.Polys {
		if len(poly.Points) < 3 {
			continue
		}
		d.fan = d.fan[:0]
		for _, p := range poly.Points {
			d.fan = append(d.fan, backend.Vertex{
				Pos: p,
				UV: mgl32.Vec2{
					(mc.XAxis.Dot(p) - uDot - d.uPan) * d.uMult,
					(mc.YAxis.Dot(p) - vDot - d.vPan) * d.vMult,
				},
				Color: color,
			})
		}
		d.dev.DrawFan(d.fan)
	}
}

// DrawGouraudPolygon draws a lit, textured polygon. Vertex light is
// ignored for modulated polygons. Fogged opaque polygons get a second,
// untextured pass with the per-vertex fog color.
func (d *Device) DrawGouraudPolygon(frame *Frame, info *TextureInfo, pts []TransTexture, flags PolyFlags) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if len(pts) < 3 {
		return nil
	}
	d.useFrame(frame)
	d.SetBlend(flags)
	if err := d.SetTexture(info, flags&(PolyMasked|PolyNoSmooth), 0); err != nil {
		return err
	}

	modulated := flags&PolyModulated != 0
	d.fan = d.fan[:0]
	for _, pt := range pts {
		color := white
		if !modulated {
			color = pt.Light.Vec4(1)
		}
		d.fan = append(d.fan, backend.Vertex{
			Pos:   pt.Point,
			UV:    mgl32.Vec2{pt.U * d.uMult, pt.V * d.vMult},
			Color: color,
		})
	}
	d.dev.DrawFan(d.fan)

	if flags&(PolyRenderFog|PolyTranslucent|PolyModulated) == PolyRenderFog {
		d.ResetTexture()
		d.SetBlend(PolyHighlighted)
		for i, pt := range pts {
			d.fan[i].UV = mgl32.Vec2{}
			d.fan[i].Color = pt.Fog
		}
		d.dev.DrawFan(d.fan)
	}
	return nil
}

// DrawTile draws a screen-space rectangle at depth tile.Z. Textures drawn
// as tiles keep their source pixels.
func (d *Device) DrawTile(frame *Frame, info *TextureInfo, tile Tile, flags PolyFlags) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.useFrame(frame)
	d.SetBlend(flags)
	if err := d.setTexture(info, flags, 0, true); err != nil {
		return err
	}

	color := white
	if flags&PolyModulated == 0 {
		color = tile.Light.Vec4(1)
	}

	p := d.scene.Projection()
	var fx2, fy2 float32
	if frame != nil {
		fx2, fy2 = frame.FX2, frame.FY2
	}
	z := tile.Z
	x0, x1 := p.RFX2*z*(tile.X-fx2), p.RFX2*z*(tile.X+tile.XL-fx2)
	y0, y1 := p.RFY2*z*(tile.Y-fy2), p.RFY2*z*(tile.Y+tile.YL-fy2)
	u0, u1 := tile.U*d.uMult, (tile.U+tile.UL)*d.uMult
	v0, v1 := tile.V*d.vMult, (tile.V+tile.VL)*d.vMult

	d.fan = append(d.fan[:0],
		backend.Vertex{Pos: mgl32.Vec3{x0, y0, z}, UV: mgl32.Vec2{u0, v0}, Color: color},
		backend.Vertex{Pos: mgl32.Vec3{x1, y0, z}, UV: mgl32.Vec2{u1, v0}, Color: color},
		backend.Vertex{Pos: mgl32.Vec3{x1, y1, z}, UV: mgl32.Vec2{u1, v1}, Color: color},
		backend.Vertex{Pos: mgl32.Vec3{x0, y1, z}, UV: mgl32.Vec2{u0, v1}, Color: color},
	)
	d.dev.DrawFan(d.fan)
	return nil
}

// EndFlash draws the screen flash computed by Lock over the whole view.
// It does nothing when the frame has no flash.
func (d *Device) EndFlash() error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if d.colorMod == (mgl32.Vec4{}) {
		return nil
	}

	d.ResetTexture()
	d.SetBlend(PolyHighlighted)

	p := d.scene.Projection()
	rfx2 := p.RProjZ
	rfy2 := p.RProjZ * p.Aspect

	d.dev.SetDepthTest(false)
	d.fan = append(d.fan[:0],
		backend.Vertex{Pos: mgl32.Vec3{-rfx2, -rfy2, 1}, Color: d.colorMod},
		backend.Vertex{Pos: mgl32.Vec3{rfx2, -rfy2, 1}, Color: d.colorMod},
		backend.Vertex{Pos: mgl32.Vec3{rfx2, rfy2, 1}, Color: d.colorMod},
		backend.Vertex{Pos: mgl32.Vec3{-rfx2, rfy2, 1}, Color: d.colorMod},
	)
	d.dev.DrawFan(d.fan)
	d.dev.SetDepthTest(true)
	return nil
}

// ClearZ clears the depth buffer so later polygons draw over everything
// drawn so far.
func (d *Device) ClearZ(frame *Frame) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.useFrame(frame)
	d.SetBlend(PolyOcclude)
	d.dev.Clear(backend.ClearDepth, mgl32.Vec4{})
	return nil
}
