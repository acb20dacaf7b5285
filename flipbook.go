package flipbook

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math/bits"
	"time"

	"github.com/gogpu/flipbook/gif"
	"github.com/gogpu/flipbook/internal/mipmap"
	"github.com/gogpu/flipbook/internal/parallel"
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

var (
	// ErrNoFrames is returned when the source has no image blocks.
	ErrNoFrames = errors.New("flipbook: no frames")

	// ErrUnsupportedFormat is returned for a layer format other than
	// RGBA8Unorm or BGRA8Unorm.
	ErrUnsupportedFormat = errors.New("flipbook: unsupported texture format")
)

// FrameSource produces composited frames one at a time. *gif.Decoder
// implements it.
//
// NextFrame returns the whole logical screen as bottom-up RGBA rows, in a
// buffer the source may reuse. FrameDelayMilliseconds reports the delay of
// the frame NextFrame returned last.
type FrameSource interface {
	Width() int
	Height() int
	FrameCount() int
	HasAlpha() bool
	RepeatCount() int
	NextFrame() ([]byte, error)
	FrameDelayMilliseconds() int
}

// resetter is implemented by sources that can rewind to the first frame.
type resetter interface {
	Reset() error
}

var _ FrameSource = (*gif.Decoder)(nil)

// TextureArray is the CPU side of a 2D texture array: one layer per frame,
// plus the descriptor fields needed to create the GPU texture.
type TextureArray struct {
	Label         string
	Size          gputypes.Extent3D
	Format        gputypes.TextureFormat
	Dimension     gputypes.TextureDimension
	Usage         gputypes.TextureUsage
	MipLevelCount uint32

	// Layers holds one tightly packed, bottom-up image per array layer.
	Layers [][]byte

	// Mips holds mip levels 1 and up of every layer when mipmaps are
	// enabled: Mips[i][l-1] is level l of layer i.
	Mips [][][]byte

	// Delays holds how long each layer is shown.
	Delays []time.Duration

	// RepeatCount is the number of loops; 0 means forever.
	RepeatCount int

	// HasAlpha reports whether any layer can contain non-opaque pixels.
	HasAlpha bool
}

// BytesPerRow returns the row pitch of every layer.
func (a *TextureArray) BytesPerRow() uint32 {
	return 4 * a.Size.Width
}

// DataLayout returns the layout of one layer for a texture write.
func (a *TextureArray) DataLayout() gputypes.TextureDataLayout {
	return gputypes.TextureDataLayout{
		BytesPerRow:  a.BytesPerRow(),
		RowsPerImage: a.Size.Height,
	}
}

// MipSize returns the width and height of mip level n.
func (a *TextureArray) MipSize(n int) (uint32, uint32) {
	w, h := mipmap.LevelSize(int(a.Size.Width), int(a.Size.Height), n)
	return uint32(w), uint32(h) //nolint:gosec // bounded by Size
}

// Duration returns the total playback time of one loop.
func (a *TextureArray) Duration() time.Duration {
	var d time.Duration
	for _, delay := range a.Delays {
		d += delay
	}
	return d
}

// Layer returns a top-down RGBA copy of layer i, or nil if i is out of range.
func (a *TextureArray) Layer(i int) *image.NRGBA {
	if i < 0 || i >= len(a.Layers) {
		return nil
	}
	w, h := int(a.Size.Width), int(a.Size.Height)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	src := a.Layers[i]
	stride := 4 * w
	for y := range h {
		copy(img.Pix[y*stride:(y+1)*stride], src[(h-1-y)*stride:(h-y)*stride])
	}
	if a.Format == gputypes.TextureFormatBGRA8Unorm {
		swapRedBlue(img.Pix)
	}
	return img
}

// FromFile decodes the GIF at path and builds its texture array.
func FromFile(path string, opts ...Option) (*TextureArray, error) {
	dec, err := gif.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flipbook: %w", err)
	}
	defer func() { _ = dec.Close() }()
	return Build(dec, opts...)
}

// Build reads every frame of src into a new texture array. Sources that can
// rewind are rewound first, so a partly played decoder yields all frames.
func Build(src FrameSource, opts ...Option) (*TextureArray, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !supportedFormat(o.format) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, o.format)
	}

	n := src.FrameCount()
	if n == 0 {
		return nil, ErrNoFrames
	}
	if r, ok := src.(resetter); ok {
		if err := r.Reset(); err != nil {
			return nil, fmt.Errorf("flipbook: rewind: %w", err)
		}
	}

	sw, sh := src.Width(), src.Height()
	lw, lh := layerSide(sw, o), layerSide(sh, o)
	label := o.label
	if label == "" {
		label = uuid.NewString()
	}

	arr := &TextureArray{
		Label: label,
		Size: gputypes.Extent3D{
			Width:              uint32(lw), //nolint:gosec // bounded by the 16-bit screen size
			Height:             uint32(lh), //nolint:gosec // bounded by the 16-bit screen size
			DepthOrArrayLayers: uint32(n),  //nolint:gosec // n counts image blocks
		},
		Format:        o.format,
		Dimension:     gputypes.TextureDimension2D,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		MipLevelCount: 1,
		Layers:        make([][]byte, n),
		Delays:        make([]time.Duration, n),
		RepeatCount:   src.RepeatCount(),
		HasAlpha:      src.HasAlpha(),
	}
	if o.mipmaps {
		arr.MipLevelCount = uint32(mipmap.LevelCount(lw, lh)) //nolint:gosec // at most 17
		arr.Mips = make([][][]byte, n)
	}

	Logger().Debug("flipbook: layer size",
		"source", image.Pt(sw, sh),
		"layer", image.Pt(lw, lh),
		"frames", n,
		"workers", o.workers)

	// Frames decode in order; scaling and mipmaps run on the pool.
	pool := parallel.NewWorkerPool(o.workers)
	defer pool.Close()

	srcRect := image.Rect(0, 0, sw, sh)
	for i := range n {
		frame, err := src.NextFrame()
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			pool.Wait()
			return nil, fmt.Errorf("flipbook: frame %d: %w", i, err)
		}
		arr.Delays[i] = time.Duration(src.FrameDelayMilliseconds()) * time.Millisecond

		// The source reuses its buffer, so take a copy before queuing.
		frame = append([]byte(nil), frame...)
		pool.Submit(func() {
			layer := frame
			if lw != sw || lh != sh {
				// Both buffers are bottom-up, so scaling needs no flip.
				layer = make([]byte, 4*lw*lh)
				from := &image.NRGBA{Pix: frame, Stride: 4 * sw, Rect: srcRect}
				to := &image.NRGBA{Pix: layer, Stride: 4 * lw, Rect: image.Rect(0, 0, lw, lh)}
				o.interp.Scale(to, to.Rect, from, srcRect, draw.Src, nil)
			}
			if o.format == gputypes.TextureFormatBGRA8Unorm {
				swapRedBlue(layer)
			}
			arr.Layers[i] = layer
			if o.mipmaps {
				arr.Mips[i] = mipmap.Generate(layer, lw, lh)
			}
		})
	}
	pool.Wait()

	Logger().Info("flipbook: built texture array",
		"label", arr.Label,
		"width", lw,
		"height", lh,
		"layers", n,
		"alpha", arr.HasAlpha)
	return arr, nil
}

// layerSide returns the layer size for a source side of n pixels.
func layerSide(n int, o options) int {
	if o.pow2 {
		n = nextPowerOfTwo(n)
	}
	if o.maxSize > 0 && n > o.maxSize {
		n = o.maxSize
		if o.pow2 {
			n = 1 << (bits.Len(uint(n)) - 1)
		}
	}
	return max(n, 1)
}

// nextPowerOfTwo returns the smallest power of two that is >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
