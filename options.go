package flipbook

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// Option configures how Build lays out a texture array.
//
// Example:
//
//	// Default: power-of-two layers, Catmull-Rom scaling
//	arr, err := flipbook.Build(dec)
//
//	// Pixel art: keep the screen size, nearest-neighbor if clamped
//	arr, err := flipbook.Build(dec,
//	    flipbook.WithPowerOfTwo(false),
//	    flipbook.WithInterpolator(draw.NearestNeighbor))
type Option func(*options)

type options struct {
	interp  draw.Interpolator
	pow2    bool
	maxSize int
	label   string
	mipmaps bool
	format  gputypes.TextureFormat
	workers int
}

func defaultOptions() options {
	return options{
		interp: draw.CatmullRom,
		pow2:   true,
		format: gputypes.TextureFormatRGBA8Unorm,
	}
}

// WithInterpolator sets the filter used when a frame is resized to the
// layer size. Frames that already match the layer size are copied as is.
func WithInterpolator(i draw.Interpolator) Option {
	return func(o *options) {
		if i != nil {
			o.interp = i
		}
	}
}

// WithPowerOfTwo controls whether layer sides are rounded up to the next
// power of two. The default is true.
func WithPowerOfTwo(enabled bool) Option {
	return func(o *options) {
		o.pow2 = enabled
	}
}

// WithMaxSize clamps both layer sides to n pixels. With power-of-two sizing
// the clamp is the largest power of two not above n. Zero means unlimited.
func WithMaxSize(n int) Option {
	return func(o *options) {
		o.maxSize = max(n, 0)
	}
}

// WithLabel sets the debug label of the texture array. By default a random
// UUID is used.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithMipmaps builds a full mip chain for every layer with a 2x2 box
// filter and sets MipLevelCount to match.
func WithMipmaps(enabled bool) Option {
	return func(o *options) {
		o.mipmaps = enabled
	}
}

// WithFormat sets the layer pixel format. TextureFormatRGBA8Unorm (the
// default) and TextureFormatBGRA8Unorm are supported; Build fails with
// ErrUnsupportedFormat for anything else.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithDeviceProvider lays the layers out in the surface format of the
// provider's device, so they can be uploaded without a swizzle pass.
// Surface formats other than the supported ones keep the current format.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		if p == nil {
			return
		}
		if f := p.SurfaceFormat(); supportedFormat(f) {
			o.format = f
		}
	}
}

func supportedFormat(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatRGBA8Unorm || f == gputypes.TextureFormatBGRA8Unorm
}

// WithWorkers sets how many goroutines scale layers and build mip chains.
// Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
