// Package software provides an in-memory backend.Device that keeps every
// uploaded texel and records pipeline state, draws and call counts.
//
// It is the reference device for tests and headless runs.
package software

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texcache/backend"
)

// ErrNoStorage is returned by a partial upload into a level that was never
// fully uploaded.
var ErrNoStorage = errors.New("software: partial upload without storage")

// init registers the software backend on package import.
func init() {
	backend.Register(backend.BackendSoftware, func() backend.Device {
		return New()
	})
}

// Level is the stored contents of one mip level.
type Level struct {
	Width   int
	Height  int
	Format  backend.TexelFormat
	Data    []byte
	Palette []byte
}

// Texture is a stored texture object.
type Texture struct {
	Levels       map[int]*Level
	Filter       backend.Filter
	FullUploads  int
	PartUploads  int
	FilterWrites int
}

// Pipeline is the fixed-function state at the time of a draw.
type Pipeline struct {
	BlendEnabled bool
	Blend        gputypes.BlendState
	WriteMask    gputypes.ColorWriteMask
	DepthWrite   bool
	AlphaTest    bool
	DepthCompare gputypes.CompareFunction
	DepthTest    bool
}

// DrawCall is one recorded DrawFan.
type DrawCall struct {
	Texture  backend.Handle
	Pipeline Pipeline
	Vertices []backend.Vertex
}

// Counters counts device calls.
type Counters struct {
	Creates     int
	Deletes     int
	Binds       int
	Uploads     int
	Filters     int
	StateCalls  int
	Viewports   int
	Projections int
	Clears      int
	Draws       int
	Presents    int
}

// Device is the in-memory device.
type Device struct {
	caps        backend.Caps
	maxTextures int
	logger      *slog.Logger

	initialized   bool
	width, height int

	next     backend.Handle
	textures map[backend.Handle]*Texture
	bound    backend.Handle

	pipeline   Pipeline
	viewport   [4]int
	projection mgl32.Mat4
	clearColor mgl32.Vec4

	draws    []DrawCall
	counters Counters
	frames   int
}

// Option configures a Device.
type Option func(*Device)

// WithCaps sets the reported capabilities.
func WithCaps(c backend.Caps) Option {
	return func(d *Device) {
		d.caps = c
	}
}

// WithMaxTextures limits the number of live textures. CreateTexture fails
// with backend.ErrOutOfTextures beyond it. 0 means unlimited.
func WithMaxTextures(n int) Option {
	return func(d *Device) {
		d.maxTextures = n
	}
}

// DreamcastCaps returns 16-bit capabilities with an 8x8 minimum texture
// size and vector-quantized formats.
func DreamcastCaps() backend.Caps {
	return backend.Caps{
		IndexedFormat: backend.TexelARGB1555,
		DirectFormat:  backend.TexelRGB565,
		MinTexSize:    8,
		MaxMipLevel:   0,
		Compressed:    []backend.TexelFormat{backend.TexelARGB1555VQ, backend.TexelRGB565VQ},
	}
}

// PSPCaps returns capabilities with hardware palette lookup.
func PSPCaps() backend.Caps {
	return backend.Caps{
		IndexedFormat: backend.TexelIndex8,
		DirectFormat:  backend.TexelRGB565,
		MinTexSize:    8,
		MaxMipLevel:   0,
	}
}

// New creates a device with DreamcastCaps unless overridden.
func New(opts ...Option) *Device {
	d := &Device{
		caps:     DreamcastCaps(),
		logger:   slog.New(discardHandler{}),
		textures: make(map[backend.Handle]*Texture),
		pipeline: Pipeline{
			Blend:        gputypes.BlendStateReplace(),
			WriteMask:    gputypes.ColorWriteMaskAll,
			DepthWrite:   true,
			DepthCompare: gputypes.CompareFunctionLessEqual,
			DepthTest:    true,
		},
		projection: mgl32.Ident4(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetLogger sets the logger for device diagnostics. nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	d.logger = l
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.BackendSoftware }

// Init prepares the device for a window of the given size.
func (d *Device) Init(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("software: invalid window size %dx%d", width, height)
	}
	d.width, d.height = width, height
	d.initialized = true
	d.logger.Info("software device initialized", "width", width, "height", height)
	return nil
}

// Close releases every texture.
func (d *Device) Close() {
	d.textures = make(map[backend.Handle]*Texture)
	d.bound = 0
	d.initialized = false
}

// Caps returns the configured capabilities.
func (d *Device) Caps() backend.Caps { return d.caps }

// CreateTexture allocates a texture handle.
func (d *Device) CreateTexture() (backend.Handle, error) {
	if !d.initialized {
		return 0, backend.ErrNotInitialized
	}
	if d.maxTextures > 0 && len(d.textures) >= d.maxTextures {
		return 0, backend.ErrOutOfTextures
	}
	d.next++
	d.textures[d.next] = &Texture{Levels: make(map[int]*Level)}
	d.counters.Creates++
	return d.next, nil
}

// DeleteTexture releases a texture handle.
func (d *Device) DeleteTexture(h backend.Handle) {
	if _, ok := d.textures[h]; !ok {
		return
	}
	delete(d.textures, h)
	if d.bound == h {
		d.bound = 0
	}
	d.counters.Deletes++
}

// BindTexture makes h current.
func (d *Device) BindTexture(h backend.Handle) {
	d.bound = h
	d.counters.Binds++
}

// UploadTexture stores a copy of one mip level.
func (d *Device) UploadTexture(h backend.Handle, u backend.Upload) error {
	tex, ok := d.textures[h]
	if !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownHandle, h)
	}
	if err := d.checkUpload(u); err != nil {
		return err
	}

	lvl, ok := tex.Levels[u.Level]
	if u.Full {
		if u.Level == 0 {
			tex.Levels = make(map[int]*Level)
		}
		lvl = &Level{}
		tex.Levels[u.Level] = lvl
		tex.FullUploads++
	} else {
		if !ok {
			return fmt.Errorf("%w: texture %d level %d", ErrNoStorage, h, u.Level)
		}
		if lvl.Width != u.Width || lvl.Height != u.Height || lvl.Format != u.Format {
			return fmt.Errorf("%w: texture %d level %d is %dx%d %v, got %dx%d %v", ErrNoStorage,
				h, u.Level, lvl.Width, lvl.Height, lvl.Format, u.Width, u.Height, u.Format)
		}
		tex.PartUploads++
	}

	lvl.Width, lvl.Height, lvl.Format = u.Width, u.Height, u.Format
	lvl.Data = append(lvl.Data[:0], u.Data...)
	lvl.Palette = append(lvl.Palette[:0], u.Palette...)
	d.counters.Uploads++

	if d.logger.Enabled(context.Background(), slog.LevelDebug) {
		d.logger.Debug("texture upload", "handle", h, "level", u.Level,
			"size", fmt.Sprintf("%dx%d", u.Width, u.Height), "format", u.Format, "full", u.Full)
	}
	return nil
}

func (d *Device) checkUpload(u backend.Upload) error {
	switch {
	case u.Format == d.caps.IndexedFormat, u.Format == d.caps.DirectFormat:
	case d.caps.SupportsCompressed(u.Format):
		return nil
	default:
		return fmt.Errorf("%w: %v", backend.ErrUnsupportedFormat, u.Format)
	}
	if u.Width <= 0 || u.Height <= 0 || len(u.Data) < u.Width*u.Height*u.Format.BytesPerTexel() {
		return fmt.Errorf("software: upload of %dx%d %v with %d bytes", u.Width, u.Height, u.Format, len(u.Data))
	}
	if u.Format == backend.TexelIndex8 && len(u.Palette) < 512 {
		return fmt.Errorf("software: indexed upload with %d palette bytes", len(u.Palette))
	}
	return nil
}

// SetTextureFilter records the filters of h.
func (d *Device) SetTextureFilter(h backend.Handle, f backend.Filter) {
	if tex, ok := d.textures[h]; ok {
		tex.Filter = f
		tex.FilterWrites++
	}
	d.counters.Filters++
}

// SetBlend records the blend state.
func (d *Device) SetBlend(enabled bool, state gputypes.BlendState) {
	d.pipeline.BlendEnabled = enabled
	d.pipeline.Blend = state
	d.counters.StateCalls++
}

// SetColorWriteMask records the color write mask.
func (d *Device) SetColorWriteMask(mask gputypes.ColorWriteMask) {
	d.pipeline.WriteMask = mask
	d.counters.StateCalls++
}

// SetDepthWrite records the depth write flag.
func (d *Device) SetDepthWrite(enabled bool) {
	d.pipeline.DepthWrite = enabled
	d.counters.StateCalls++
}

// SetAlphaTest records the alpha test flag.
func (d *Device) SetAlphaTest(enabled bool) {
	d.pipeline.AlphaTest = enabled
	d.counters.StateCalls++
}

// SetDepthCompare records the depth comparison function.
func (d *Device) SetDepthCompare(fn gputypes.CompareFunction) {
	d.pipeline.DepthCompare = fn
	d.counters.StateCalls++
}

// SetDepthTest records the depth test flag.
func (d *Device) SetDepthTest(enabled bool) {
	d.pipeline.DepthTest = enabled
	d.counters.StateCalls++
}

// SetViewport records the viewport.
func (d *Device) SetViewport(x, y, width, height int) {
	d.viewport = [4]int{x, y, width, height}
	d.counters.Viewports++
}

// SetProjection records the projection matrix.
func (d *Device) SetProjection(m mgl32.Mat4) {
	d.projection = m
	d.counters.Projections++
}

// Clear records a clear.
func (d *Device) Clear(flags backend.ClearFlags, color mgl32.Vec4) {
	if flags&backend.ClearColor != 0 {
		d.clearColor = color
	}
	d.counters.Clears++
}

// DrawFan records a draw with the current texture and pipeline state.
func (d *Device) DrawFan(vertices []backend.Vertex) {
	d.draws = append(d.draws, DrawCall{
		Texture:  d.bound,
		Pipeline: d.pipeline,
		Vertices: append([]backend.Vertex(nil), vertices...),
	})
	d.counters.Draws++
}

// Present ends the frame and drops the recorded draws.
func (d *Device) Present() error {
	if !d.initialized {
		return backend.ErrNotInitialized
	}
	d.frames++
	d.draws = d.draws[:0]
	d.counters.Presents++
	return nil
}

// Texture returns the stored texture for h.
func (d *Device) Texture(h backend.Handle) (*Texture, bool) {
	t, ok := d.textures[h]
	return t, ok
}

// LiveTextures returns the number of allocated textures.
func (d *Device) LiveTextures() int { return len(d.textures) }

// Bound returns the current texture.
func (d *Device) Bound() backend.Handle { return d.bound }

// Pipeline returns the current fixed-function state.
func (d *Device) Pipeline() Pipeline { return d.pipeline }

// Viewport returns the current viewport as x, y, width, height.
func (d *Device) Viewport() [4]int { return d.viewport }

// Projection returns the current projection matrix.
func (d *Device) Projection() mgl32.Mat4 { return d.projection }

// Draws returns the draws recorded since the last Present.
func (d *Device) Draws() []DrawCall { return d.draws }

// Counters returns the call counters.
func (d *Device) Counters() Counters { return d.counters }

// Frames returns the number of presented frames.
func (d *Device) Frames() int { return d.frames }

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

var _ backend.Device = (*Device)(nil)
