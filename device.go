package texcache

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texcache/backend"
	"github.com/gogpu/texcache/internal/bindcache"
	"github.com/gogpu/texcache/internal/scratch"
	"github.com/gogpu/texcache/internal/state"
	"github.com/gogpu/texcache/internal/texdump"
)

// DefaultFlashScale is the flash scale of a frame without a screen flash.
var DefaultFlashScale = mgl32.Vec4{0.5, 0.5, 0.5, 0}

// statsInterval is the number of frames between periodic stats logs.
const statsInterval = 256

// RenderDevice is the set of driver entry points the engine calls.
type RenderDevice interface {
	Init(width, height int) error
	Exit()
	Flush()
	Lock(flashScale, flashFog, clearColor mgl32.Vec4, flags LockFlags) error
	Unlock(present bool) error
	DrawComplexSurface(frame *Frame, surf Surface, facet Facet) error
	DrawGouraudPolygon(frame *Frame, info *TextureInfo, pts []TransTexture, flags PolyFlags) error
	DrawTile(frame *Frame, info *TextureInfo, tile Tile, flags PolyFlags) error
	EndFlash() error
	ClearZ(frame *Frame) error
	SetTexture(info *TextureInfo, flags PolyFlags, panBias float32) error
	ResetTexture()
	SetBlend(flags PolyFlags) PolyFlags
	SetSceneNode(frame *Frame)
	Stats() Stats
}

var _ RenderDevice = (*Device)(nil)

// Stats contains device counters.
type Stats struct {
	Frames      uint64
	Binds       uint64
	Conversions uint64
	Uploads     uint64

	// Bind cache counters.
	Hits      uint64
	Misses    uint64
	Reuploads uint64
	Evictions uint64
	Resident  int

	// Skipped counts malformed textures that were not drawn.
	Skipped uint64

	// State changes that reached the backend.
	BlendChanges      uint64
	ViewportChanges   uint64
	ProjectionChanges uint64

	ScratchSize  int
	ScratchGrows int
}

// Device is a render device that caches converted textures and pipeline
// state on top of a backend.Device.
//
// Device is not safe for concurrent use. All calls must come from the
// render thread.
type Device struct {
	opts   deviceOptions
	dev    backend.Device
	caps   backend.Caps
	logger *slog.Logger

	scratch *scratch.Buffer
	binds   *bindcache.Cache
	blend   *state.Blend
	scene   *state.Scene
	dump    *texdump.Writer

	initialized bool
	closed      bool

	// Currently bound texture and its coordinate transform.
	bound        bool
	current      bindcache.Key
	uPan, vPan   float32
	uMult, vMult float32

	// tiles holds the cache IDs of textures drawn as tiles.
	tiles map[uint64]struct{}

	colorMod mgl32.Vec4
	fan      []backend.Vertex

	frames      uint64
	bindCalls   uint64
	conversions uint64
	uploads     uint64
	skipped     uint64
}

// NewDevice creates a device over the backend selected by opts.
// The device must be initialized with Init before drawing.
func NewDevice(opts ...DeviceOption) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dev := o.device
	switch {
	case dev != nil:
	case o.backendName != "":
		dev = backend.Get(o.backendName)
		if dev == nil {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrBackendNotAvailable, o.backendName, backend.Available())
		}
	default:
		dev = backend.Default()
		if dev == nil {
			return nil, fmt.Errorf("%w: no backend registered", ErrBackendNotAvailable)
		}
	}

	d := &Device{
		opts:   o,
		dev:    dev,
		logger: o.logger,
		tiles:  make(map[uint64]struct{}),
	}
	d.scratch = scratch.New(0, d.log)
	d.binds = bindcache.New(dev,
		bindcache.WithSoftLimit(o.maxResident),
		bindcache.WithEvictHook(d.evicted),
	)
	d.blend = state.NewBlend(dev)
	d.scene = state.NewScene(dev, 0, 0)
	return d, nil
}

// log returns the device logger, falling back to the package logger.
func (d *Device) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return Logger()
}

// Backend returns the underlying backend device.
func (d *Device) Backend() backend.Device { return d.dev }

// Caps returns the effective capabilities after option overrides.
func (d *Device) Caps() backend.Caps { return d.caps }

// Init initializes the backend for a window of the given size and puts
// the pipeline into its default state: occluding, depth tested with
// LessEqual, no blending and no alpha test.
func (d *Device) Init(width, height int) error {
	if d.closed {
		return fmt.Errorf("%w: device was closed", ErrNotInitialized)
	}

	propagateLogger(d.dev, d.log())
	if err := d.dev.Init(width, height); err != nil {
		return fmt.Errorf("texcache: init %s backend: %w", d.dev.Name(), err)
	}

	d.caps = d.dev.Caps()
	if d.opts.minTexSize >= 0 {
		d.caps.MinTexSize = d.opts.minTexSize
	}
	if d.opts.maxMipLevel >= 0 {
		d.caps.MaxMipLevel = d.opts.maxMipLevel
	}
	if n := d.caps.MinTexSize; n > 1 && n&(n-1) != 0 {
		return fmt.Errorf("texcache: minimum texture size %d is not a power of two", n)
	}

	if d.opts.dumpDir != "" {
		w, err := texdump.NewWriter(d.opts.dumpDir, "")
		if err != nil {
			return err
		}
		d.dump = w
	}

	d.blend.Reset(state.Occlude)
	d.dev.SetDepthTest(true)
	d.dev.SetDepthCompare(gputypes.CompareFunctionLessEqual)
	d.scene.Resize(width, height)
	d.scene.Invalidate()

	d.initialized = true
	d.log().Info("render device initialized",
		"backend", d.dev.Name(),
		"width", width,
		"height", height,
		"indexed", d.caps.IndexedFormat,
		"direct", d.caps.DirectFormat,
		"min_tex_size", d.caps.MinTexSize,
		"max_mip_level", d.caps.MaxMipLevel)
	return nil
}

// Exit flushes every texture, frees the scratch buffer and closes the
// backend. It is safe to call more than once.
func (d *Device) Exit() {
	if d.closed {
		return
	}
	d.Flush()
	d.scratch.Release()
	d.dev.Close()
	d.initialized = false
	d.closed = true
	d.log().Info("render device closed", "backend", d.dev.Name())
}

// Flush releases every cached texture. The next SetTexture of any texture
// converts and uploads it again.
func (d *Device) Flush() {
	d.ResetTexture()
	n := d.binds.Flush()
	clear(d.tiles)
	d.log().Info("flushing textures", "count", n)
}

// Lock starts a frame. It clears the depth buffer, and the color buffer
// to clearColor when flags has LockClearScreen, then computes the screen
// flash drawn by EndFlash.
func (d *Device) Lock(flashScale, flashFog, clearColor mgl32.Vec4, flags LockFlags) error {
	if !d.initialized {
		return ErrNotInitialized
	}

	d.dev.SetDepthCompare(gputypes.CompareFunctionLessEqual)
	d.SetBlend(PolyOcclude)

	buffers := backend.ClearDepth
	if flags&LockClearScreen != 0 {
		buffers |= backend.ClearColor
	}
	d.dev.Clear(buffers, clearColor)

	if flashScale != DefaultFlashScale || flashFog != (mgl32.Vec4{}) {
		d.colorMod = mgl32.Vec4{
			flashFog.X(),
			flashFog.Y(),
			flashFog.Z(),
			1 - min(flashScale.X()*2, 1),
		}
	} else {
		d.colorMod = mgl32.Vec4{}
	}
	return nil
}

// Unlock ends a frame, presenting it when present is true.
func (d *Device) Unlock(present bool) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if present {
		if err := d.dev.Present(); err != nil {
			return fmt.Errorf("texcache: present: %w", err)
		}
	}

	d.frames++
	if d.frames%statsInterval == 0 {
		s := d.Stats()
		d.log().Info("frame stats",
			"frames", s.Frames,
			"resident", s.Resident,
			"hits", s.Hits,
			"misses", s.Misses,
			"reuploads", s.Reuploads,
			"uploads", s.Uploads,
			"scratch", s.ScratchSize)
	}
	return nil
}

// Stats returns device counters.
func (d *Device) Stats() Stats {
	cs := d.binds.Stats()
	viewports, projections := d.scene.Changes()
	return Stats{
		Frames:            d.frames,
		Binds:             d.bindCalls,
		Conversions:       d.conversions,
		Uploads:           d.uploads,
		Hits:              cs.Hits,
		Misses:            cs.Misses,
		Reuploads:         cs.Reuploads,
		Evictions:         cs.Evictions,
		Resident:          cs.Entries,
		Skipped:           d.skipped,
		BlendChanges:      d.blend.Changes(),
		ViewportChanges:   viewports,
		ProjectionChanges: projections,
		ScratchSize:       d.scratch.Cap(),
		ScratchGrows:      d.scratch.Grows(),
	}
}
