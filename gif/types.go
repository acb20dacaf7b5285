package gif

import (
	"fmt"
	"image"
)

// Block introducers.
const (
	blockExtension = 0x21
	blockImage     = 0x2C
	blockTrailer   = 0x3B
)

// Extension labels.
const (
	extPlainText      = 0x01
	extGraphicControl = 0xF9
	extComment        = 0xFE
	extApplication    = 0xFF
)

// Fixed block sizes of the extensions that declare one.
const (
	graphicControlSize = 4
	applicationSize    = 11
	plainTextSize      = 12
)

// Sizes of the descriptors, excluding the image separator.
const (
	screenDescriptorSize = 7
	imageDescriptorSize  = 9
)

// Packed field masks.
const (
	flagColorTable     = 1 << 7
	flagColorRes       = 7 << 4
	flagSorted         = 1 << 3
	flagImageSorted    = 1 << 5
	flagInterlace      = 1 << 6
	flagColorTableBits = 7

	gcTransparent = 1 << 0
	gcDisposal    = 7 << 2
)

// defaultDelayMS is the frame delay assumed when an image block has no
// graphic control extension.
const defaultDelayMS = 100

// ScreenDescriptor is the Logical Screen Descriptor that follows the header.
type ScreenDescriptor struct {
	Width           uint16
	Height          uint16
	Flags           uint8
	BackgroundIndex uint8
	AspectRatio     uint8 // ignored by the decoder
}

// HasGlobalColorTable reports whether a global color table follows.
func (s ScreenDescriptor) HasGlobalColorTable() bool { return s.Flags&flagColorTable != 0 }

// ColorResolution returns the number of bits per primary color of the source.
func (s ScreenDescriptor) ColorResolution() int { return int(s.Flags&flagColorRes>>4) + 1 }

// Sorted reports whether the global color table is sorted by importance.
func (s ScreenDescriptor) Sorted() bool { return s.Flags&flagSorted != 0 }

// ColorTableSize returns the number of entries of the global color table.
func (s ScreenDescriptor) ColorTableSize() int { return 2 << (s.Flags & flagColorTableBits) }

// ImageDescriptor describes one image block: its sub-rectangle within the
// logical screen and its local color table.
type ImageDescriptor struct {
	Left   uint16
	Top    uint16
	Width  uint16
	Height uint16
	Flags  uint8
}

// HasLocalColorTable reports whether a local color table follows.
func (d ImageDescriptor) HasLocalColorTable() bool { return d.Flags&flagColorTable != 0 }

// Interlaced reports whether rows are stored in four-pass interlaced order.
func (d ImageDescriptor) Interlaced() bool { return d.Flags&flagInterlace != 0 }

// Sorted reports whether the local color table is sorted by importance.
func (d ImageDescriptor) Sorted() bool { return d.Flags&flagImageSorted != 0 }

// ColorTableSize returns the number of entries of the local color table.
func (d ImageDescriptor) ColorTableSize() int { return 2 << (d.Flags & flagColorTableBits) }

// Bounds returns the image rectangle in top-down screen coordinates.
func (d ImageDescriptor) Bounds() image.Rectangle {
	return image.Rect(int(d.Left), int(d.Top), int(d.Left)+int(d.Width), int(d.Top)+int(d.Height))
}

// ColorTable is a GIF palette of 2 to 256 RGB triples. Storage is always
// 256 entries so any 8-bit index resolves; entries past Len are black.
type ColorTable struct {
	count int
	rgb   [3 * 256]byte
}

// Len returns the number of entries declared by the stream.
func (t *ColorTable) Len() int { return t.count }

// RGB returns entry i.
func (t *ColorTable) RGB(i uint8) (r, g, b uint8) {
	o := 3 * int(i)
	return t.rgb[o], t.rgb[o+1], t.rgb[o+2]
}

// Disposal is the action applied to a frame's rectangle before the next
// frame is drawn.
type Disposal uint8

// Disposal methods.
const (
	DisposalUnspecified Disposal = iota
	DisposalNone                 // leave the frame in place
	DisposalBackground           // restore the rectangle to the background
	DisposalPrevious             // restore the rectangle to the prior frame
)

// String returns the name of the disposal method.
func (d Disposal) String() string {
	switch d {
	case DisposalUnspecified:
		return "Unspecified"
	case DisposalNone:
		return "DoNotDispose"
	case DisposalBackground:
		return "RestoreToBackground"
	case DisposalPrevious:
		return "RestoreToPrevious"
	default:
		return fmt.Sprintf("Disposal(%d)", uint8(d))
	}
}

// graphicControl holds the Graphic Control Extension values that apply to
// the next image block.
type graphicControl struct {
	disposal    Disposal
	transparent int // -1 when no transparent index is set
	delayMS     int
	pending     bool // an extension was read and not yet consumed
}

func (gc *graphicControl) reset() {
	*gc = graphicControl{transparent: -1, delayMS: defaultDelayMS}
}
