package texcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texcache/backend"
	"github.com/gogpu/texcache/internal/bindcache"
	"github.com/gogpu/texcache/internal/convert"
)

// errMalformed marks textures that are skipped instead of failing the draw.
var errMalformed = errors.New("malformed texture")

// SetTexture binds the native texture for info, converting and uploading
// it first when it is not resident or its realtime pixels changed.
//
// flags selects the masked variant (PolyMasked) and nearest filtering
// (PolyNoSmooth). panBias shifts the texture pan by that many texels of
// world scale; lightmaps use -0.5 to sample texel centers.
//
// A malformed texture is logged, left unbound and reported as a nil error
// so the frame goes on.
//
// A realtime change is consumed by the first draw that sees it: only the
// copy being drawn is refreshed, and the other variant of a palettized
// texture keeps its old pixels until a later change is drawn with it.
func (d *Device) SetTexture(info *TextureInfo, flags PolyFlags, panBias float32) error {
	return d.setTexture(info, flags, panBias, false)
}

// ResetTexture unbinds the current texture.
func (d *Device) ResetTexture() {
	if !d.bound {
		return
	}
	d.dev.BindTexture(0)
	d.bound = false
}

func (d *Device) setTexture(info *TextureInfo, flags PolyFlags, panBias float32, tile bool) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if !info.valid() {
		d.skip(info, errMalformed)
		return nil
	}

	d.uPan = info.Pan.X() + panBias*info.UScale
	d.vPan = info.Pan.Y() + panBias*info.VScale
	d.uMult = 1 / (info.UScale * float32(info.USize))
	d.vMult = 1 / (info.VScale * float32(info.VSize))

	if tile {
		d.tiles[info.CacheID] = struct{}{}
	}

	changed := info.Flags&TextureRealtimeChanged != 0
	key := bindcache.NewKey(info.CacheID, flags&PolyMasked != 0, info.indexed())
	if d.bound && key == d.current && !changed {
		return nil
	}

	entry, tr, err := d.binds.Lookup(key, changed)
	if err != nil {
		d.ResetTexture()
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	d.dev.BindTexture(entry.Handle)
	d.bindCalls++
	d.bound = true
	d.current = key

	if !tr.NeedsUpload() {
		return nil
	}

	info.Flags &^= TextureRealtimeChanged
	levels, err := d.upload(info, key, entry.Handle, tr == bindcache.Created)
	if err != nil {
		d.binds.Remove(key)
		d.ResetTexture()
		if errors.Is(err, errMalformed) {
			d.skip(info, err)
			return nil
		}
		return err
	}
	d.binds.MarkUploaded(key)
	d.dev.SetTextureFilter(entry.Handle, d.filter(info, flags, levels))

	d.releaseSource(info)
	return nil
}

// releaseSource drops the source pixels of info once no further upload can
// need them. Palettized textures keep them until both the plain and the
// masked copy are resident.
func (d *Device) releaseSource(info *TextureInfo) {
	if !d.opts.releaseSource || info.Flags&TextureRealtime != 0 || info.Lightmap {
		return
	}
	if _, isTile := d.tiles[info.CacheID]; isTile {
		return
	}
	if info.indexed() {
		for _, masked := range []bool{false, true} {
			if _, ok := d.binds.Peek(bindcache.NewKey(info.CacheID, masked, true)); !ok {
				return
			}
		}
	}
	for _, m := range info.Mips {
		if m != nil {
			m.Data = nil
		}
	}
}

// skip logs a texture that cannot be drawn and unbinds.
func (d *Device) skip(info *TextureInfo, err error) {
	d.skipped++
	d.ResetTexture()
	var id uint64
	if info != nil {
		id = info.CacheID
	}
	d.log().Warn("encountered texture with invalid mips", "cache_id", id, "err", err)
}

// upload converts and uploads every mip up to the maximum mip level and
// returns the number of levels written. full allocates storage; otherwise
// the levels are replaced in place.
func (d *Device) upload(info *TextureInfo, key bindcache.Key, h backend.Handle, full bool) (int, error) {
	levels := info.levels(d.caps.MaxMipLevel)
	for level := 0; level < levels; level++ {
		img, err := d.convert(info, key, info.Mips[level])
		if err != nil {
			return level, err
		}

		err = d.dev.UploadTexture(h, backend.Upload{
			Level:   level,
			Levels:  levels,
			Width:   img.Width,
			Height:  img.Height,
			Format:  img.Format,
			Data:    img.Data,
			Palette: img.Palette,
			Full:    full,
		})
		if err != nil {
			if errors.Is(err, backend.ErrUnsupportedFormat) {
				return level, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
			}
			return level, fmt.Errorf("%w: %v level %d: %w", ErrUpload, key, level, err)
		}
		d.uploads++

		if l := d.log(); l.Enabled(context.Background(), slog.LevelDebug) {
			l.Debug("texture uploaded", "key", key, "level", level,
				"width", img.Width, "height", img.Height, "format", img.Format, "full", full)
		}
		if level == 0 && d.dump != nil {
			if _, err := d.dump.Write(key.Pack(), level, img); err != nil {
				d.log().Warn("texture dump failed", "key", key, "err", err)
			}
		}
	}
	return levels, nil
}

// convert turns one source mip into the backend's native format using the
// scratch buffer. The returned image aliases the scratch buffer.
func (d *Device) convert(info *TextureInfo, key bindcache.Key, m *Mip) (convert.Image, error) {
	src := convert.Mip{Width: m.USize, Height: m.VSize, Data: m.Data}

	var (
		img convert.Image
		err error
	)
	switch info.Format {
	case FormatP8:
		img, err = d.convertWith(src, d.caps.IndexedFormat, func(dst []byte, opts convert.Options) (convert.Image, error) {
			opts.Masked = key.Variant == bindcache.VariantMasked
			return convert.Indexed(dst, src, info.Palette, opts)
		})
	case FormatBGRA7:
		img, err = d.convertWith(src, d.caps.DirectFormat, func(dst []byte, opts convert.Options) (convert.Image, error) {
			return convert.DirectColor(dst, src, opts)
		})
	case FormatCompressed:
		if !d.caps.SupportsCompressed(info.CompressedFormat) {
			return convert.Image{}, fmt.Errorf("%w: %v not accepted by %s backend", ErrUnsupportedFormat, info.CompressedFormat, d.dev.Name())
		}
		img, err = convert.Passthrough(src, info.CompressedFormat)
	default:
		return convert.Image{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, info.Format)
	}

	switch {
	case err == nil:
		return img, nil
	case errors.Is(err, convert.ErrInvalidDimensions):
		return convert.Image{}, fmt.Errorf("%w: %w", errMalformed, err)
	case errors.Is(err, convert.ErrUnsupportedFormat):
		return convert.Image{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	default:
		return convert.Image{}, err
	}
}

// convertWith sizes the scratch buffer for target and runs fn.
func (d *Device) convertWith(src convert.Mip, target backend.TexelFormat, fn func([]byte, convert.Options) (convert.Image, error)) (convert.Image, error) {
	need, err := convert.Required(src.Width, src.Height, target, d.caps.MinTexSize)
	if err != nil {
		return convert.Image{}, err
	}
	img, err := fn(d.scratch.EnsureCapacity(need), convert.Options{Target: target, MinSize: d.caps.MinTexSize})
	if err != nil {
		return convert.Image{}, err
	}
	d.conversions++
	return img, nil
}

// filter returns the sampling filters for a texture uploaded with levels
// mips.
func (d *Device) filter(info *TextureInfo, flags PolyFlags, levels int) backend.Filter {
	mode := gputypes.FilterModeLinear
	if flags&PolyNoSmooth != 0 || (d.opts.noFiltering && info.indexed()) {
		mode = gputypes.FilterModeNearest
	}
	f := backend.Filter{Mag: mode, Min: mode}
	if levels > 1 {
		f.Mipmap = mode
	}
	return f
}

// evicted is called by the bind cache after it released key's handle.
func (d *Device) evicted(key bindcache.Key) {
	if d.bound && key == d.current {
		d.bound = false
	}
}
