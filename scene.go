package texcache

import "github.com/go-gl/mathgl/mgl32"

// Zone carries the properties of the zone a scene node renders.
type Zone struct {
	// Sky marks a sky zone: nothing in it occludes and its translucent
	// and masked surfaces are skipped.
	Sky bool
}

// Frame is a scene node: the view being rendered.
type Frame struct {
	// X and Y are the view size in pixels; XB and YB its offset from the
	// top-left of the window.
	X, Y, XB, YB int

	// FX, FY are the view size and FX2, FY2 its center, as floats.
	FX, FY, FX2, FY2 float32

	// FOV is the horizontal field of view in degrees.
	FOV float32

	// Zone is nil when the frame has no level; the previous sky state
	// then stays in effect.
	Zone *Zone
}

// MapCoords is the texture mapping of a surface facet.
type MapCoords struct {
	Origin mgl32.Vec3
	XAxis  mgl32.Vec3
	YAxis  mgl32.Vec3
}

// Poly is a convex polygon in world space, drawn as a triangle fan.
type Poly struct {
	Points []mgl32.Vec3
}

// Facet is a set of coplanar polygons sharing one mapping.
type Facet struct {
	MapCoords MapCoords
	Polys     []Poly
}

// Surface is a BSP surface with its texture and optional lightmap.
type Surface struct {
	Texture   *TextureInfo
	Lightmap  *TextureInfo
	PolyFlags PolyFlags
}

// TransTexture is a transformed, lit vertex of a Gouraud polygon.
type TransTexture struct {
	Point mgl32.Vec3
	U, V  float32
	Light mgl32.Vec3
	Fog   mgl32.Vec4
}

// Tile is a screen-space rectangle drawn by DrawTile. X, Y, XL and YL are
// in pixels; U, V, UL and VL in texels; Z is the depth.
type Tile struct {
	X, Y, XL, YL float32
	U, V, UL, VL float32
	Z            float32
	Light        mgl32.Vec3
}
