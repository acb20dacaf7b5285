package gif

import (
	"fmt"
	"image"
)

// frameRecord is what the compositor remembers about the last drawn frame
// so it can be disposed before the next one.
type frameRecord struct {
	disposal    Disposal
	rect        image.Rectangle
	transparent bool
}

// compositor draws image blocks into a pair of RGBA buffers covering the
// logical screen. Rows are stored bottom-up: screen row 0 is the last row
// of each buffer.
type compositor struct {
	width, height int
	frames        [2][]byte // current, previous
	global        *ColorTable
	background    uint8

	// state of the image block being drawn
	rect        image.Rectangle
	interlaced  bool
	palette     *ColorTable
	transparent int
	drawn       int
	total       int
	row         int // image row of the cached line offset
	line        int // byte offset of the cached buffer row

	prev frameRecord
}

// reset allocates the buffers on first use and zeroes them afterwards.
func (c *compositor) reset(width, height int) {
	size := 4 * width * height
	for i := range c.frames {
		if len(c.frames[i]) != size {
			c.frames[i] = make([]byte, size)
		} else {
			clear(c.frames[i])
		}
	}
	c.width, c.height = width, height
	c.prev = frameRecord{}
}

// dispose applies the disposal method of the previous frame to buffer A and
// refreshes the snapshot in buffer B.
func (c *compositor) dispose() {
	cur, prev := c.frames[0], c.frames[1]
	switch c.prev.disposal {
	case DisposalBackground:
		copy(prev, cur)
		var px [4]byte
		if !c.prev.transparent && c.global != nil {
			r, g, b := c.global.RGB(c.background)
			px = [4]byte{r, g, b, 0xFF}
		}
		c.fillRect(c.prev.rect, px)
	case DisposalPrevious:
		c.copyRect(cur, prev, c.prev.rect)
		copy(prev, cur)
	default:
		copy(prev, cur)
	}
}

// lineOffset returns the byte offset of screen row y, column x.
func (c *compositor) lineOffset(x, y int) int {
	return 4 * ((c.height-1-y)*c.width + x)
}

func (c *compositor) fillRect(r image.Rectangle, px [4]byte) {
	pix := c.frames[0]
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := c.lineOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			copy(pix[o:o+4], px[:])
			o += 4
		}
	}
}

func (c *compositor) copyRect(dst, src []byte, r image.Rectangle) {
	n := 4 * r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := c.lineOffset(r.Min.X, y)
		copy(dst[o:o+n], src[o:o+n])
	}
}

// begin prepares drawing of one image block.
func (c *compositor) begin(desc ImageDescriptor, palette *ColorTable, transparent int) {
	c.rect = desc.Bounds()
	c.interlaced = desc.Interlaced()
	c.palette = palette
	c.transparent = transparent
	c.drawn = 0
	c.total = c.rect.Dx() * c.rect.Dy()
	c.row = -1
}

// put draws decoded indices at the next raster positions of the block.
// An index equal to the transparent index leaves the pixel untouched.
func (c *compositor) put(indices []uint8) error {
	if c.drawn+len(indices) > c.total {
		return fmt.Errorf("%w: more than %dx%d pixels decoded",
			ErrMalformedImageData, c.rect.Dx(), c.rect.Dy())
	}
	pix := c.frames[0]
	w := c.rect.Dx()
	for _, idx := range indices {
		row, col := c.drawn/w, c.drawn%w
		c.drawn++
		if int(idx) == c.transparent {
			continue
		}
		if row != c.row {
			y := row
			if c.interlaced {
				y = deinterlace(c.rect.Dy(), row)
			}
			c.row = row
			c.line = c.lineOffset(c.rect.Min.X, c.rect.Min.Y+y)
		}
		o := c.line + 4*col
		r, g, b := c.palette.RGB(idx)
		pix[o] = r
		pix[o+1] = g
		pix[o+2] = b
		pix[o+3] = 0xFF
	}
	return nil
}

// end checks the pixel count and records the block for disposal.
func (c *compositor) end(gc *graphicControl) error {
	if c.drawn != c.total {
		return fmt.Errorf("%w: %d of %dx%d pixels decoded",
			ErrMalformedImageData, c.drawn, c.rect.Dx(), c.rect.Dy())
	}
	c.prev = frameRecord{
		disposal:    gc.disposal,
		rect:        c.rect,
		transparent: gc.transparent >= 0,
	}
	return nil
}

// interlacePasses lists the first row and row stride of each pass.
var interlacePasses = [4]struct{ start, stride int }{{0, 8}, {4, 8}, {2, 4}, {1, 2}}

// deinterlace maps the n-th transmitted row of an interlaced image of
// height h to its display row.
func deinterlace(h, n int) int {
	for _, p := range interlacePasses[:3] {
		rows := 0
		if h > p.start {
			rows = (h-1-p.start)/p.stride + 1
		}
		if n < rows {
			return p.start + n*p.stride
		}
		n -= rows
	}
	return 1 + n*2
}
