package backend

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrUnknownHandle is returned for operations on a texture handle the
	// device never created or has already deleted.
	ErrUnknownHandle = errors.New("backend: unknown texture handle")

	// ErrUnsupportedFormat is returned when an upload uses a texel format
	// the device cannot store.
	ErrUnsupportedFormat = errors.New("backend: unsupported texel format")

	// ErrOutOfTextures is returned when the device cannot allocate another
	// texture handle.
	ErrOutOfTextures = errors.New("backend: out of texture handles")
)

// Handle identifies a native texture object. The zero Handle means
// "no texture" and is never returned by CreateTexture.
type Handle uint64

// Filter selects the sampling filters of a texture.
// A Mipmap of gputypes.FilterModeUndefined disables mipmapped sampling.
type Filter struct {
	Mag    gputypes.FilterMode
	Min    gputypes.FilterMode
	Mipmap gputypes.FilterMode
}

// Upload describes one mip level handed to UploadTexture.
type Upload struct {
	// Level is the mip level, 0 being the largest.
	Level int

	// Levels is the total number of levels the texture will hold.
	// Only meaningful for full uploads of level 0.
	Levels int

	// Width and Height are the dimensions of Data in texels.
	Width, Height int

	// Format is the layout of Data.
	Format TexelFormat

	// Data holds Width*Height texels, or the opaque payload for
	// compressed formats.
	Data []byte

	// Palette is the 256-entry ARGB1555 table for TexelIndex8 uploads.
	Palette []byte

	// Full requests storage (re)allocation. A partial upload replaces the
	// contents of an existing level in place.
	Full bool
}

// ClearFlags selects the buffers cleared by Clear.
type ClearFlags uint8

const (
	// ClearColor clears the color buffer.
	ClearColor ClearFlags = 1 << iota
	// ClearDepth clears the depth buffer.
	ClearDepth
)

// Vertex is a transformed vertex submitted by DrawFan.
type Vertex struct {
	Pos   mgl32.Vec3
	UV    mgl32.Vec2
	Color mgl32.Vec4
}

// StateSink receives fixed-function pipeline state changes.
type StateSink interface {
	// SetBlend enables or disables blending with the given factors.
	SetBlend(enabled bool, state gputypes.BlendState)

	// SetColorWriteMask sets which color channels are written.
	SetColorWriteMask(mask gputypes.ColorWriteMask)

	// SetDepthWrite enables or disables writes to the depth buffer.
	SetDepthWrite(enabled bool)

	// SetAlphaTest enables or disables discarding of transparent texels.
	SetAlphaTest(enabled bool)

	// SetViewport sets the viewport rectangle in window coordinates.
	SetViewport(x, y, width, height int)

	// SetProjection sets the projection matrix.
	SetProjection(m mgl32.Mat4)
}

// Device is the GPU collaborator the render device drives.
//
// Implementations are not required to be safe for concurrent use; the
// render device calls them from a single render thread.
type Device interface {
	StateSink

	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init prepares the device for a viewport of the given size.
	Init(width, height int) error

	// Close releases all device resources.
	// The device should not be used after Close is called.
	Close()

	// Caps reports the texel formats and limits of the device.
	Caps() Caps

	// CreateTexture allocates a texture handle with no storage.
	CreateTexture() (Handle, error)

	// DeleteTexture releases a texture handle. Unknown handles are ignored.
	DeleteTexture(h Handle)

	// BindTexture makes h the current texture. Handle 0 unbinds.
	BindTexture(h Handle)

	// UploadTexture writes one mip level into h.
	UploadTexture(h Handle, u Upload) error

	// SetTextureFilter sets the sampling filters of h.
	SetTextureFilter(h Handle, f Filter)

	// SetDepthCompare sets the depth comparison function.
	SetDepthCompare(fn gputypes.CompareFunction)

	// SetDepthTest enables or disables depth testing.
	SetDepthTest(enabled bool)

	// Clear clears the selected buffers. Color is used for ClearColor.
	Clear(flags ClearFlags, color mgl32.Vec4)

	// DrawFan draws a triangle fan with the current state and texture.
	DrawFan(vertices []Vertex)

	// Present finishes the frame.
	Present() error
}
