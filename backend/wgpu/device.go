package wgpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texcache/backend"
)

// ErrNoAdapter is returned by Init when the HAL backend exposes no adapter.
var ErrNoAdapter = errors.New("wgpu: no adapter available")

// init registers the wgpu backend on package import.
func init() {
	backend.Register(backend.BackendWGPU, func() backend.Device {
		return &Device{maxMipLevel: DefaultMaxMipLevel}
	})
}

// DefaultMaxMipLevel is the highest mip level uploaded unless overridden.
const DefaultMaxMipLevel = 12

// texture tracks a HAL texture behind a handle. tex is nil until the first
// full upload.
type texture struct {
	tex     hal.Texture
	view    hal.TextureView
	width   int
	height  int
	levels  int
	filter  backend.Filter
	sampler hal.Sampler
}

// Pipeline is the fixed-function state recorded with each batch.
type Pipeline struct {
	BlendEnabled bool
	Blend        gputypes.BlendState
	WriteMask    gputypes.ColorWriteMask
	DepthWrite   bool
	AlphaTest    bool
	DepthCompare gputypes.CompareFunction
	DepthTest    bool
}

// Batch is a run of vertices drawn as one triangle fan.
type Batch struct {
	Texture  backend.Handle
	View     hal.TextureView
	Sampler  hal.Sampler
	Pipeline Pipeline
	First    int
	Count    int
}

// Stats contains upload statistics.
type Stats struct {
	Textures      int
	Samplers      int
	Uploads       int
	BytesUploaded int
	Frames        int
}

// Device implements backend.Device over hal.Device and hal.Queue.
//
// Thread Safety: resource maps are protected by a mutex; state and batch
// recording expect a single render thread.
type Device struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	// Set when Init opened the device itself.
	instance hal.Instance
	owned    bool

	maxMipLevel int
	logger      *slog.Logger

	nextID   backend.Handle
	textures map[backend.Handle]*texture
	samplers map[backend.Filter]hal.Sampler
	bound    backend.Handle

	pipeline   Pipeline
	viewport   [4]int
	projection mgl32.Mat4
	clearColor mgl32.Vec4

	vertices []backend.Vertex
	batches  []Batch
	stats    Stats
}

// New wraps an open HAL device and queue. The caller keeps ownership of
// both; Close releases only the resources the Device created.
func New(device hal.Device, queue hal.Queue) *Device {
	d := &Device{device: device, queue: queue, maxMipLevel: DefaultMaxMipLevel}
	d.reset()
	return d
}

func (d *Device) reset() {
	if d.textures == nil {
		d.textures = make(map[backend.Handle]*texture)
	}
	if d.samplers == nil {
		d.samplers = make(map[backend.Filter]hal.Sampler)
	}
	if d.logger == nil {
		d.logger = slog.New(nopHandler{})
	}
	d.pipeline = Pipeline{
		Blend:        gputypes.BlendStateReplace(),
		WriteMask:    gputypes.ColorWriteMaskAll,
		DepthWrite:   true,
		DepthCompare: gputypes.CompareFunctionLessEqual,
		DepthTest:    true,
	}
	d.projection = mgl32.Ident4()
}

// SetLogger sets the logger for device diagnostics. nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	d.logger = l
}

// SetMaxMipLevel sets the highest mip level reported in Caps.
func (d *Device) SetMaxMipLevel(level int) {
	if level >= 0 {
		d.maxMipLevel = level
	}
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.BackendWGPU }

// Init opens the best registered HAL backend unless the Device already
// wraps one.
func (d *Device) Init(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid window size %dx%d", width, height)
	}
	d.reset()
	d.viewport = [4]int{0, 0, width, height}

	if d.device != nil {
		return nil
	}

	api, err := hal.SelectBestBackend()
	if err != nil {
		return fmt.Errorf("wgpu: select backend: %w", err)
	}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoAdapter
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("wgpu: open device: %w", err)
	}

	d.instance = instance
	d.device = open.Device
	d.queue = open.Queue
	d.owned = true
	d.logger.Info("wgpu device opened", "adapter", adapters[0].Info.Name, "backend", api.Variant())
	return nil
}

// Close destroys every texture and sampler, and the HAL device if Init
// opened it.
func (d *Device) Close() {
	d.mu.Lock()
	textures := d.textures
	samplers := d.samplers
	d.textures = make(map[backend.Handle]*texture)
	d.samplers = make(map[backend.Filter]hal.Sampler)
	d.mu.Unlock()

	if d.device != nil {
		for _, t := range textures {
			d.destroy(t)
		}
		for _, s := range samplers {
			d.device.DestroySampler(s)
		}
	}

	if d.owned {
		d.device.Destroy()
		d.instance.Destroy()
		d.device, d.queue, d.instance = nil, nil, nil
		d.owned = false
	}
	d.bound = 0
	d.batches = d.batches[:0]
	d.vertices = d.vertices[:0]
}

// Caps reports RGBA8 storage with no minimum size.
func (d *Device) Caps() backend.Caps {
	return backend.Caps{
		IndexedFormat: backend.TexelRGBA8,
		DirectFormat:  backend.TexelRGBA8,
		MinTexSize:    1,
		MaxMipLevel:   d.maxMipLevel,
	}
}

// CreateTexture allocates a handle. HAL storage is created on the first
// full upload of level 0.
func (d *Device) CreateTexture() (backend.Handle, error) {
	if d.device == nil {
		return 0, backend.ErrNotInitialized
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.textures[d.nextID] = &texture{}
	return d.nextID, nil
}

// DeleteTexture destroys the HAL texture behind h.
func (d *Device) DeleteTexture(h backend.Handle) {
	d.mu.Lock()
	t, ok := d.textures[h]
	if ok {
		delete(d.textures, h)
	}
	d.mu.Unlock()

	if ok {
		d.destroy(t)
	}
	if d.bound == h {
		d.bound = 0
	}
}

func (d *Device) destroy(t *texture) {
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
	}
	t.tex, t.view = nil, nil
}

// BindTexture makes h current for subsequent draws.
func (d *Device) BindTexture(h backend.Handle) { d.bound = h }

// UploadTexture writes one mip level with Queue.WriteTexture.
func (d *Device) UploadTexture(h backend.Handle, u backend.Upload) error {
	if u.Format != backend.TexelRGBA8 {
		return fmt.Errorf("%w: %v", backend.ErrUnsupportedFormat, u.Format)
	}
	if u.Width <= 0 || u.Height <= 0 || len(u.Data) < u.Width*u.Height*4 {
		return fmt.Errorf("wgpu: upload of %dx%d with %d bytes", u.Width, u.Height, len(u.Data))
	}

	d.mu.Lock()
	t, ok := d.textures[h]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownHandle, h)
	}

	if u.Full && u.Level == 0 {
		if err := d.allocate(t, u); err != nil {
			return err
		}
	}
	if t.tex == nil || u.Level >= t.levels {
		return fmt.Errorf("wgpu: texture %d has no storage for level %d", h, u.Level)
	}

	dst := &hal.ImageCopyTexture{
		Texture:  t.tex,
		MipLevel: uint32(u.Level),
		Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
		Aspect:   gputypes.TextureAspectAll,
	}
	layout := &hal.ImageDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(u.Width * 4),
		RowsPerImage: uint32(u.Height),
	}
	size := &hal.Extent3D{
		Width:              uint32(u.Width),
		Height:             uint32(u.Height),
		DepthOrArrayLayers: 1,
	}
	if err := d.queue.WriteTexture(dst, u.Data[:u.Width*u.Height*4], layout, size); err != nil {
		return fmt.Errorf("wgpu: write texture %d level %d: %w", h, u.Level, err)
	}

	d.stats.Uploads++
	d.stats.BytesUploaded += u.Width * u.Height * 4
	if d.logger.Enabled(context.Background(), slog.LevelDebug) {
		d.logger.Debug("texture upload", "handle", h, "level", u.Level,
			"size", fmt.Sprintf("%dx%d", u.Width, u.Height), "full", u.Full)
	}
	return nil
}

// allocate (re)creates the HAL texture and its view for a full upload.
func (d *Device) allocate(t *texture, u backend.Upload) error {
	levels := u.Levels
	if levels < 1 {
		levels = 1
	}
	if t.tex != nil && t.width == u.Width && t.height == u.Height && t.levels == levels {
		return nil
	}
	d.destroy(t)

	desc := &hal.TextureDescriptor{
		Label: "texcache",
		Size: hal.Extent3D{
			Width:              uint32(u.Width),
			Height:             uint32(u.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(levels),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        u.Format.GPUFormat(),
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	}
	tex, err := d.device.CreateTexture(desc)
	if err != nil {
		return fmt.Errorf("wgpu: create texture: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     "texcache",
		Format:    desc.Format,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create texture view: %w", err)
	}

	t.tex, t.view = tex, view
	t.width, t.height, t.levels = u.Width, u.Height, levels
	return nil
}

// SetTextureFilter selects a shared sampler for h.
func (d *Device) SetTextureFilter(h backend.Handle, f backend.Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.textures[h]
	if !ok {
		return
	}
	s, ok := d.samplers[f]
	if !ok {
		var err error
		s, err = d.device.CreateSampler(samplerDescriptor(f))
		if err != nil {
			d.logger.Warn("wgpu: create sampler failed", "err", err)
			return
		}
		d.samplers[f] = s
	}
	t.filter = f
	t.sampler = s
}

func samplerDescriptor(f backend.Filter) *hal.SamplerDescriptor {
	desc := &hal.SamplerDescriptor{
		Label:        "texcache",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    f.Mag,
		MinFilter:    f.Min,
		MipmapFilter: f.Mipmap,
		LodMaxClamp:  32,
		Anisotropy:   1,
	}
	if f.Mipmap == gputypes.FilterModeUndefined {
		desc.MipmapFilter = gputypes.FilterModeNearest
		desc.LodMaxClamp = 0
	}
	return desc
}

// SetBlend records the blend state.
func (d *Device) SetBlend(enabled bool, state gputypes.BlendState) {
	d.pipeline.BlendEnabled = enabled
	d.pipeline.Blend = state
}

// SetColorWriteMask records the color write mask.
func (d *Device) SetColorWriteMask(mask gputypes.ColorWriteMask) { d.pipeline.WriteMask = mask }

// SetDepthWrite records the depth write flag.
func (d *Device) SetDepthWrite(enabled bool) { d.pipeline.DepthWrite = enabled }

// SetAlphaTest records the alpha test flag.
func (d *Device) SetAlphaTest(enabled bool) { d.pipeline.AlphaTest = enabled }

// SetDepthCompare records the depth comparison function.
func (d *Device) SetDepthCompare(fn gputypes.CompareFunction) { d.pipeline.DepthCompare = fn }

// SetDepthTest records the depth test flag.
func (d *Device) SetDepthTest(enabled bool) { d.pipeline.DepthTest = enabled }

// SetViewport records the viewport.
func (d *Device) SetViewport(x, y, width, height int) { d.viewport = [4]int{x, y, width, height} }

// SetProjection records the projection matrix.
func (d *Device) SetProjection(m mgl32.Mat4) { d.projection = m }

// Clear drops the batches recorded so far when the color buffer is cleared.
func (d *Device) Clear(flags backend.ClearFlags, color mgl32.Vec4) {
	if flags&backend.ClearColor != 0 {
		d.clearColor = color
		d.batches = d.batches[:0]
		d.vertices = d.vertices[:0]
	}
}

// DrawFan appends a batch with the current texture and state.
func (d *Device) DrawFan(vertices []backend.Vertex) {
	if len(vertices) < 3 {
		return
	}
	b := Batch{
		Texture:  d.bound,
		Pipeline: d.pipeline,
		First:    len(d.vertices),
		Count:    len(vertices),
	}
	d.mu.Lock()
	if t, ok := d.textures[d.bound]; ok {
		b.View, b.Sampler = t.view, t.sampler
	}
	d.mu.Unlock()

	d.vertices = append(d.vertices, vertices...)
	d.batches = append(d.batches, b)
}

// Batches returns the batches of the current frame and their vertices.
func (d *Device) Batches() ([]Batch, []backend.Vertex) { return d.batches, d.vertices }

// Present ends the frame.
func (d *Device) Present() error {
	if d.device == nil {
		return backend.ErrNotInitialized
	}
	d.batches = d.batches[:0]
	d.vertices = d.vertices[:0]
	d.stats.Frames++
	return nil
}

// Projection returns the current projection matrix.
func (d *Device) Projection() mgl32.Mat4 { return d.projection }

// Viewport returns the current viewport as x, y, width, height.
func (d *Device) Viewport() [4]int { return d.viewport }

// Stats returns upload statistics.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Textures = len(d.textures)
	s.Samplers = len(d.samplers)
	return s
}

// nopHandler is a slog.Handler that discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var _ backend.Device = (*Device)(nil)
