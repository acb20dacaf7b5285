package gif

import (
	"bytes"
	"compress/lzw"
	"testing"
)

var (
	black = [3]byte{0, 0, 0}
	white = [3]byte{0xFF, 0xFF, 0xFF}
	red   = [3]byte{0xFF, 0, 0}
	green = [3]byte{0, 0xFF, 0}
)

// gifBuilder assembles GIF streams block by block for tests.
type gifBuilder struct {
	buf bytes.Buffer
}

// tableBits returns the packed size field for a palette of n entries.
func tableBits(n int) byte {
	bits := byte(0)
	for 2<<bits < n {
		bits++
	}
	return bits
}

func writeTable(buf *bytes.Buffer, pal [][3]byte) {
	n := 2 << tableBits(len(pal))
	for i := range n {
		if i < len(pal) {
			buf.Write(pal[i][:])
		} else {
			buf.Write([]byte{0, 0, 0})
		}
	}
}

func le16(v int) []byte { return []byte{byte(v), byte(v >> 8)} }

// newGIF starts a GIF89a stream. A nil palette omits the global table.
func newGIF(w, h int, global [][3]byte, background byte) *gifBuilder {
	g := &gifBuilder{}
	g.buf.WriteString("GIF89a")
	g.buf.Write(le16(w))
	g.buf.Write(le16(h))
	flags := byte(0)
	if global != nil {
		flags = 0x80 | 0x70 | tableBits(len(global))
	}
	g.buf.Write([]byte{flags, background, 0})
	if global != nil {
		writeTable(&g.buf, global)
	}
	return g
}

func (g *gifBuilder) netscape(loops int) *gifBuilder {
	g.buf.Write([]byte{0x21, 0xFF, 11})
	g.buf.WriteString("NETSCAPE2.0")
	g.buf.Write([]byte{3, 1})
	g.buf.Write(le16(loops))
	g.buf.WriteByte(0)
	return g
}

func (g *gifBuilder) comment(s string) *gifBuilder {
	g.buf.Write([]byte{0x21, 0xFE})
	g.buf.Write(subBlocks([]byte(s)))
	return g
}

// gce writes a graphic control extension; transparent < 0 means none.
func (g *gifBuilder) gce(disposal Disposal, transparent int, delayCS int) *gifBuilder {
	packed := byte(disposal) << 2
	idx := byte(0)
	if transparent >= 0 {
		packed |= 1
		idx = byte(transparent)
	}
	g.buf.Write([]byte{0x21, 0xF9, 4, packed})
	g.buf.Write(le16(delayCS))
	g.buf.Write([]byte{idx, 0})
	return g
}

type imageOpts struct {
	interlaced bool
	local      [][3]byte
	minCode    int
}

// image writes an image block whose indices are LZW-encoded with
// compress/lzw, which produces GIF-compatible streams.
func (g *gifBuilder) image(t testing.TB, left, top, w, h int, opts imageOpts, indices []byte) *gifBuilder {
	t.Helper()
	minCode := opts.minCode
	if minCode == 0 {
		minCode = 2
	}
	var data bytes.Buffer
	lw := lzw.NewWriter(&data, lzw.LSB, minCode)
	if _, err := lw.Write(indices); err != nil {
		t.Fatalf("lzw write: %v", err)
	}
	if err := lw.Close(); err != nil {
		t.Fatalf("lzw close: %v", err)
	}
	return g.imageRaw(left, top, w, h, opts, byte(minCode), subBlocks(data.Bytes()))
}

// imageRaw writes an image block with caller-provided sub-block data.
func (g *gifBuilder) imageRaw(left, top, w, h int, opts imageOpts, minCode byte, blocks []byte) *gifBuilder {
	g.buf.WriteByte(0x2C)
	g.buf.Write(le16(left))
	g.buf.Write(le16(top))
	g.buf.Write(le16(w))
	g.buf.Write(le16(h))
	flags := byte(0)
	if opts.local != nil {
		flags |= 0x80 | tableBits(len(opts.local))
	}
	if opts.interlaced {
		flags |= 0x40
	}
	g.buf.WriteByte(flags)
	if opts.local != nil {
		writeTable(&g.buf, opts.local)
	}
	g.buf.WriteByte(minCode)
	g.buf.Write(blocks)
	return g
}

func (g *gifBuilder) bytes() []byte {
	out := append([]byte(nil), g.buf.Bytes()...)
	return append(out, 0x3B)
}

// subBlocks splits data into 255-byte sub-blocks followed by a terminator.
func subBlocks(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := min(len(data), 255)
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return append(out, 0)
}

// codeWriter packs LZW codes LSB first, for hand-built code streams.
type codeWriter struct {
	out   []byte
	acc   uint32
	nbits uint
}

func (w *codeWriter) write(code int, width uint) {
	w.acc |= uint32(code) << w.nbits
	w.nbits += width
	for w.nbits >= 8 {
		w.out = append(w.out, byte(w.acc))
		w.acc >>= 8
		w.nbits -= 8
	}
}

func (w *codeWriter) bytes() []byte {
	if w.nbits > 0 {
		return append(w.out, byte(w.acc))
	}
	return w.out
}

func fill(n int, idx byte) []byte {
	return bytes.Repeat([]byte{idx}, n)
}

func openBytes(t testing.TB, data []byte) *Decoder {
	t.Helper()
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	return d
}

func nextFrame(t testing.TB, d *Decoder) []byte {
	t.Helper()
	buf, err := d.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame() error = %v", err)
	}
	return buf
}

// pixelAt returns the RGBA pixel at screen position (x, y), top-down.
func pixelAt(buf []byte, w, h, x, y int) [4]byte {
	o := 4 * ((h-1-y)*w + x)
	return [4]byte{buf[o], buf[o+1], buf[o+2], buf[o+3]}
}

func opaque(c [3]byte) [4]byte { return [4]byte{c[0], c[1], c[2], 0xFF} }
