package state

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texcache/backend"
)

// Depth range of the projection frustum.
const (
	NearPlane float32 = 1
	FarPlane  float32 = 32768
)

// View is the per-draw scene node input.
type View struct {
	// X, Y are the view size and XB, YB its offset, in pixels from the
	// top-left of the window.
	X, Y, XB, YB int

	// FX, FY are the view size as floats.
	FX, FY float32

	// FOV is the horizontal field of view in degrees.
	FOV float32

	// HasZone reports whether Sky is known for this view. Views without
	// zone information keep the previous sky state.
	HasZone bool
	Sky     bool
}

// Projection holds the values derived from the field of view.
type Projection struct {
	RProjZ float32
	Aspect float32
	RFX2   float32
	RFY2   float32
	Matrix mgl32.Mat4
}

// NewProjection computes the projection for a view of fx by fy pixels.
func NewProjection(fx, fy, fov float32) Projection {
	p := Projection{
		RProjZ: float32(math.Tan(float64(fov) * math.Pi / 360)),
		Aspect: fy / fx,
	}
	p.RFX2 = 2 * p.RProjZ / fx
	p.RFY2 = 2 * p.RProjZ * p.Aspect / fy
	p.Matrix = mgl32.Frustum(-p.RProjZ, p.RProjZ, -p.Aspect*p.RProjZ, p.Aspect*p.RProjZ, NearPlane, FarPlane)
	return p
}

// Scene caches the viewport and projection of the active scene node.
type Scene struct {
	sink backend.StateSink

	// Window size in pixels.
	width, height int

	x, y, xb, yb  int
	sizeX, sizeY  int
	fx, fy, fov   float32
	sky           bool
	proj          Projection
	viewportCalls uint64
	projCalls     uint64
}

// NewScene creates an invalidated Scene for a window of the given size.
func NewScene(sink backend.StateSink, width, height int) *Scene {
	s := &Scene{sink: sink, width: width, height: height}
	s.Invalidate()
	return s
}

// Resize changes the window size. The next Set reissues the viewport.
func (s *Scene) Resize(width, height int) {
	s.width, s.height = width, height
}

// Invalidate forgets the cached viewport and projection so the next Set
// reissues both.
func (s *Scene) Invalidate() {
	s.x = -1
	s.fx = -1
	s.sizeX = -1
}

// Set makes v the active scene node. A nil view invalidates the cache.
func (s *Scene) Set(v *View) {
	if v == nil {
		s.Invalidate()
		return
	}

	if v.X != s.x || v.Y != s.y || v.XB != s.xb || v.YB != s.yb ||
		s.width != s.sizeX || s.height != s.sizeY {
		// Window coordinates have their origin at the bottom-left.
		s.sink.SetViewport(v.XB, s.height-v.Y-v.YB, v.X, v.Y)
		s.x, s.y, s.xb, s.yb = v.X, v.Y, v.XB, v.YB
		s.sizeX, s.sizeY = s.width, s.height
		s.viewportCalls++
	}

	if v.HasZone {
		s.sky = v.Sky
	}

	if v.FX != s.fx || v.FY != s.fy || v.FOV != s.fov {
		s.proj = NewProjection(v.FX, v.FY, v.FOV)
		s.sink.SetProjection(s.proj.Matrix)
		s.fx, s.fy, s.fov = v.FX, v.FY, v.FOV
		s.projCalls++
	}
}

// Sky reports whether the active scene node is in a sky zone.
func (s *Scene) Sky() bool { return s.sky }

// Projection returns the derived projection of the active scene node.
func (s *Scene) Projection() Projection { return s.proj }

// Changes returns how many viewport and projection updates reached the sink.
func (s *Scene) Changes() (viewport, projection uint64) {
	return s.viewportCalls, s.projCalls
}
