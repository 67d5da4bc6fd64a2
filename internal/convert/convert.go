package convert

import (
	"errors"
	"fmt"

	"github.com/gogpu/texcache/backend"
)

var (
	// ErrUnsupportedFormat is returned for a source/target pair with no
	// conversion.
	ErrUnsupportedFormat = errors.New("convert: unsupported format")

	// ErrInvalidDimensions is returned for mips whose size or data length
	// is inconsistent, or that cannot be upscaled by a power of two.
	ErrInvalidDimensions = errors.New("convert: invalid dimensions")

	// ErrShortBuffer is returned when the destination cannot hold the
	// converted texels.
	ErrShortBuffer = errors.New("convert: destination buffer too small")
)

// Mip is one source mip level.
type Mip struct {
	Width  int
	Height int
	Data   []byte
}

// check validates the mip against the given source texel size.
func (m Mip) check(srcBytes int) error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, m.Width, m.Height)
	}
	if len(m.Data) < m.Width*m.Height*srcBytes {
		return fmt.Errorf("%w: %dx%d mip with %d bytes", ErrInvalidDimensions, m.Width, m.Height, len(m.Data))
	}
	return nil
}

// Options controls a conversion.
type Options struct {
	// Target is the texel format to produce.
	Target backend.TexelFormat

	// MinSize is the smallest width and height of the output.
	// Values below 2 disable upscaling.
	MinSize int

	// Masked makes palette index 0 fully transparent.
	Masked bool
}

// Image is a converted mip. Data aliases the destination buffer passed to
// the conversion and is only valid until that buffer is reused.
type Image struct {
	Width   int
	Height  int
	Format  backend.TexelFormat
	Data    []byte
	Palette []byte
}

// Factors returns the horizontal and vertical replication factors that
// bring a width x height mip up to min.
func Factors(width, height, min int) (uTimes, vTimes int, err error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if uTimes, err = factor(width, min); err != nil {
		return 0, 0, err
	}
	if vTimes, err = factor(height, min); err != nil {
		return 0, 0, err
	}
	return uTimes, vTimes, nil
}

func factor(size, min int) (int, error) {
	if size >= min {
		return 1, nil
	}
	times := min / size
	if times*size != min || times&(times-1) != 0 {
		return 0, fmt.Errorf("%w: size %d cannot be replicated to %d", ErrInvalidDimensions, size, min)
	}
	return times, nil
}

// Required returns the number of destination bytes a conversion of a
// width x height mip to target needs, including the region used by the
// vertical upscale pass.
func Required(width, height int, target backend.TexelFormat, min int) (int, error) {
	bpt := target.BytesPerTexel()
	if bpt == 0 {
		return 0, fmt.Errorf("%w: target %v", ErrUnsupportedFormat, target)
	}
	uTimes, vTimes, err := Factors(width, height, min)
	if err != nil {
		return 0, err
	}
	first := width * uTimes * height * bpt
	if vTimes == 1 {
		return first, nil
	}
	return first + first*vTimes, nil
}

// prepare validates a conversion and returns the replication factors.
func prepare(dst []byte, src Mip, srcBytes int, target backend.TexelFormat, min int) (uTimes, vTimes int, err error) {
	if err = src.check(srcBytes); err != nil {
		return 0, 0, err
	}
	need, err := Required(src.Width, src.Height, target, min)
	if err != nil {
		return 0, 0, err
	}
	if len(dst) < need {
		return 0, 0, fmt.Errorf("%w: have %d, need %d", ErrShortBuffer, len(dst), need)
	}
	return Factors(src.Width, src.Height, min)
}

// Passthrough returns a compressed mip unchanged. Compressed data is never
// upscaled.
func Passthrough(src Mip, format backend.TexelFormat) (Image, error) {
	if !format.IsCompressed() {
		return Image{}, fmt.Errorf("%w: %v is not compressed", ErrUnsupportedFormat, format)
	}
	if src.Width <= 0 || src.Height <= 0 || len(src.Data) == 0 {
		return Image{}, fmt.Errorf("%w: compressed %dx%d mip with %d bytes", ErrInvalidDimensions, src.Width, src.Height, len(src.Data))
	}
	return Image{Width: src.Width, Height: src.Height, Format: format, Data: src.Data}, nil
}
