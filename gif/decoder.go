// Package gif decodes GIF87a and GIF89a animations into fully composited
// RGBA frames.
//
// A Decoder walks the block structure of the stream, decompresses each
// image block's LZW data and draws it over the previous frame, honoring
// transparency, interlacing and the disposal method of the previous frame.
// Frames are produced lazily, one per NextFrame call, into a buffer owned by
// the decoder.
//
// Frame buffers hold 4 bytes per pixel (R, G, B, A) for the whole logical
// screen, with rows stored bottom-up: the first row of the GIF is the last
// row of the buffer. This is the layout texture uploads expect.
//
// The GIF89a format is documented at https://www.w3.org/Graphics/GIF/spec-gif89a.txt.
package gif

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	bst "github.com/mixcode/binarystruct"
)

// Decoder decodes the frames of one GIF stream. It is not safe for
// concurrent use.
type Decoder struct {
	br     *byteReader
	closer io.Closer

	version      string
	screen       ScreenDescriptor
	global       ColorTable
	hasGlobal    bool
	local        ColorTable
	framesOffset int64

	frameCount  int
	hasAlpha    bool
	repeatCount int
	delays      []int
	comments    []string

	gc         graphicControl
	frameIndex int
	frameDelay int
	done       bool
	err        error

	comp compositor
	lzw  lzwDecoder
}

// Open opens the GIF file at path. The file is closed by Close, or before
// Open returns when decoding the header or scanning the frames fails.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("gif: open file: %w", err)
	}
	d, err := NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

// NewDecoder reads the header, the logical screen descriptor and the global
// color table from rs, then scans the remaining blocks to count frames and
// collect metadata. The decoder is left positioned before the first frame.
//
// If rs implements io.Closer, Close closes it. On error rs is left open.
func NewDecoder(rs io.ReadSeeker) (*Decoder, error) {
	br, err := newByteReader(rs)
	if err != nil {
		return nil, err
	}
	d := &Decoder{br: br}
	d.lzw.br = br
	if c, ok := rs.(io.Closer); ok {
		d.closer = c
	}

	if err := d.readHeader(); err != nil {
		return nil, err
	}
	if err := d.scan(); err != nil {
		return nil, err
	}
	if err := d.Reset(); err != nil {
		return nil, err
	}

	Logger().Debug("gif: opened",
		"version", d.version,
		"width", d.screen.Width,
		"height", d.screen.Height,
		"frames", d.frameCount,
		"repeat", d.repeatCount,
		"alpha", d.hasAlpha)
	return d, nil
}

// readHeader reads the signature, the logical screen descriptor and the
// global color table, and records the offset of the first block.
func (d *Decoder) readHeader() error {
	sig, err := d.br.readString(6)
	if err != nil {
		return err
	}
	if sig != "GIF87a" && sig != "GIF89a" {
		return fmt.Errorf("%w: %q", ErrBadSignature, sig)
	}
	d.version = sig[3:]

	var lsd struct {
		Width, Height int `binary:"uint16"`
		Flags         byte
		Background    byte
		AspectRatio   byte
	}
	if err := d.readStruct(screenDescriptorSize, &lsd); err != nil {
		return err
	}
	d.screen = ScreenDescriptor{
		Width:           uint16(lsd.Width),
		Height:          uint16(lsd.Height),
		Flags:           lsd.Flags,
		BackgroundIndex: lsd.Background,
		AspectRatio:     lsd.AspectRatio,
	}

	if d.screen.HasGlobalColorTable() {
		if err := d.readColorTable(&d.global, d.screen.ColorTableSize()); err != nil {
			return fmt.Errorf("gif: global color table: %w", err)
		}
		d.hasGlobal = true
	}
	d.framesOffset = d.br.offset()
	return nil
}

// readStruct reads exactly n bytes and unpacks them into v. The bytes are
// read up front so a short stream reports ErrUnexpectedEndOfStream.
func (d *Decoder) readStruct(n int, v any) error {
	var raw [16]byte
	if err := d.br.readFull(raw[:n]); err != nil {
		return err
	}
	if _, err := bst.Read(bytes.NewReader(raw[:n]), bst.LittleEndian, v); err != nil {
		return fmt.Errorf("gif: unpack: %w", err)
	}
	return nil
}

func (d *Decoder) readColorTable(t *ColorTable, n int) error {
	clear(t.rgb[:])
	t.count = n
	return d.br.readFull(t.rgb[:3*n])
}

// readImageDescriptor reads the fields after the image separator and checks
// that the image lies within the logical screen.
func (d *Decoder) readImageDescriptor() (ImageDescriptor, error) {
	var raw struct {
		Left, Top, Width, Height int `binary:"uint16"`
		Flags                    byte
	}
	if err := d.readStruct(imageDescriptorSize, &raw); err != nil {
		return ImageDescriptor{}, err
	}
	desc := ImageDescriptor{
		Left:   uint16(raw.Left),
		Top:    uint16(raw.Top),
		Width:  uint16(raw.Width),
		Height: uint16(raw.Height),
		Flags:  raw.Flags,
	}
	if int(desc.Left)+int(desc.Width) > int(d.screen.Width) || int(desc.Top)+int(desc.Height) > int(d.screen.Height) {
		return desc, fmt.Errorf("%w: image %v outside screen %dx%d",
			ErrOutOfBounds, desc.Bounds(), d.screen.Width, d.screen.Height)
	}
	return desc, nil
}

func (d *Decoder) screenBounds() image.Rectangle {
	return image.Rect(0, 0, int(d.screen.Width), int(d.screen.Height))
}

// scan walks every block up to the trailer without decoding pixels,
// counting image blocks and collecting delays, the repeat count, comments
// and whether the frames can contain transparent pixels.
func (d *Decoder) scan() error {
	var gc graphicControl
	gc.reset()
	for {
		b, err := d.br.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case blockExtension:
			if err := d.readExtension(&gc, true); err != nil {
				return err
			}
		case blockImage:
			desc, err := d.readImageDescriptor()
			if err != nil {
				return err
			}
			if d.frameCount == 0 {
				// Disposing the first frame to previous restores the
				// zeroed initial buffer.
				d.hasAlpha = gc.transparent >= 0 || desc.Bounds() != d.screenBounds() ||
					gc.disposal == DisposalPrevious
			}
			if gc.disposal == DisposalBackground && gc.transparent >= 0 {
				d.hasAlpha = true
			}
			if desc.HasLocalColorTable() {
				if err := d.br.skip(3 * desc.ColorTableSize()); err != nil {
					return err
				}
			}
			// LZW minimum code size, validated when the frame is drawn.
			if _, err := d.br.ReadByte(); err != nil {
				return err
			}
			if err := d.br.skipSubBlocks(); err != nil {
				return err
			}
			d.delays = append(d.delays, gc.delayMS)
			d.frameCount++
			gc.reset()
		case blockTrailer:
			return nil
		default:
			return fmt.Errorf("%w: 0x%02x", ErrInvalidBlockType, b)
		}
	}
}

// Reset rewinds the decoder to the first frame and clears both frame
// buffers. The buffers are allocated on the first call and reused after.
func (d *Decoder) Reset() error {
	if err := d.br.seekTo(d.framesOffset); err != nil {
		return err
	}
	d.comp.reset(int(d.screen.Width), int(d.screen.Height))
	if d.hasGlobal {
		d.comp.global = &d.global
	}
	d.comp.background = d.screen.BackgroundIndex
	d.gc.reset()
	d.frameIndex = 0
	d.frameDelay = defaultDelayMS
	d.done = false
	d.err = nil
	return nil
}

// NextFrame decodes the next image block over the previous frame and
// returns the composited frame. The returned slice is owned by the decoder
// and is overwritten by the next call; copy it to keep it.
//
// After the last frame NextFrame returns the final buffer and io.EOF. Any
// other error ends decoding: later calls return the same error until Reset.
func (d *Decoder) NextFrame() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.done {
		return d.comp.frames[0], io.EOF
	}
	for {
		b, err := d.br.ReadByte()
		if err != nil {
			return nil, d.fail(err)
		}
		switch b {
		case blockExtension:
			if err := d.readExtension(&d.gc, false); err != nil {
				return nil, d.fail(err)
			}
		case blockImage:
			if err := d.drawFrame(); err != nil {
				return nil, d.fail(fmt.Errorf("gif: frame %d: %w", d.frameIndex, err))
			}
			return d.comp.frames[0], nil
		case blockTrailer:
			d.done = true
			return d.comp.frames[0], io.EOF
		default:
			return nil, d.fail(fmt.Errorf("%w: 0x%02x", ErrInvalidBlockType, b))
		}
	}
}

func (d *Decoder) fail(err error) error {
	d.err = err
	return err
}

// drawFrame disposes the previous frame and draws the image block whose
// separator was just read.
func (d *Decoder) drawFrame() error {
	desc, err := d.readImageDescriptor()
	if err != nil {
		return err
	}

	palette := &d.global
	switch {
	case desc.HasLocalColorTable():
		if err := d.readColorTable(&d.local, desc.ColorTableSize()); err != nil {
			return fmt.Errorf("gif: local color table: %w", err)
		}
		palette = &d.local
	case !d.hasGlobal:
		return fmt.Errorf("%w: image has no color table", ErrMalformedBlock)
	}

	d.comp.dispose()
	d.comp.begin(desc, palette, d.gc.transparent)
	if err := d.lzw.decode(&d.comp); err != nil {
		return err
	}
	if err := d.comp.end(&d.gc); err != nil {
		return err
	}

	Logger().Debug("gif: drew frame",
		"index", d.frameIndex,
		"rect", desc.Bounds(),
		"interlaced", desc.Interlaced(),
		"disposal", d.gc.disposal,
		"delay_ms", d.gc.delayMS)

	d.frameDelay = d.gc.delayMS
	d.frameIndex++
	d.gc.reset()
	return nil
}

// Close releases the byte source if it is an io.Closer. Close is safe to
// call more than once.
func (d *Decoder) Close() error {
	if d.closer == nil {
		return nil
	}
	c := d.closer
	d.closer = nil
	return c.Close()
}

// Width returns the logical screen width in pixels.
func (d *Decoder) Width() int { return int(d.screen.Width) }

// Height returns the logical screen height in pixels.
func (d *Decoder) Height() int { return int(d.screen.Height) }

// FrameCount returns the number of image blocks in the stream.
func (d *Decoder) FrameCount() int { return d.frameCount }

// HasAlpha reports whether composited frames can contain pixels that are
// not fully opaque.
func (d *Decoder) HasAlpha() bool { return d.hasAlpha }

// RepeatCount returns the Netscape looping count; 0 means forever, and is
// also returned when the stream has no looping extension.
func (d *Decoder) RepeatCount() int { return d.repeatCount }

// FrameDelayMilliseconds returns the delay of the frame most recently
// returned by NextFrame.
func (d *Decoder) FrameDelayMilliseconds() int { return d.frameDelay }

// FrameDelays returns the delay of every frame in milliseconds.
func (d *Decoder) FrameDelays() []int { return append([]int(nil), d.delays...) }

// Comments returns the text of the stream's comment extensions.
func (d *Decoder) Comments() []string { return append([]string(nil), d.comments...) }

// Screen returns the logical screen descriptor.
func (d *Decoder) Screen() ScreenDescriptor { return d.screen }

// Version returns "87a" or "89a".
func (d *Decoder) Version() string { return d.version }
