package texcache

import "errors"

var (
	// ErrNotInitialized is returned by draw and texture calls before Init.
	ErrNotInitialized = errors.New("texcache: device not initialized")

	// ErrBackendNotAvailable is returned by NewDevice when no backend
	// matches the request.
	ErrBackendNotAvailable = errors.New("texcache: backend not available")

	// ErrUnsupportedFormat is returned when a texture cannot be converted
	// to, or stored in, any format the backend accepts.
	ErrUnsupportedFormat = errors.New("texcache: unsupported texture format")

	// ErrResourceExhausted is returned when the backend cannot allocate
	// another texture.
	ErrResourceExhausted = errors.New("texcache: out of texture resources")

	// ErrUpload is returned when the backend rejects a texture upload.
	ErrUpload = errors.New("texcache: texture upload failed")
)

// IsFatal reports whether err belongs to a class that should stop
// rendering: unsupported formats, resource exhaustion and failed uploads.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrResourceExhausted) ||
		errors.Is(err, ErrUpload)
}
