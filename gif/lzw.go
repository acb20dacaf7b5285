package gif

import (
	"errors"
	"fmt"

	"github.com/gogpu/flipbook/internal/assert"
)

const (
	maxCodes     = 4096
	maxCodeWidth = 12
)

// errDataEnd reports that the image data sub-blocks ended before an end code.
var errDataEnd = errors.New("gif: image data ended")

// codeEntry is one dictionary string, stored as its last index plus the
// code of the string without it. Root codes have parent -1.
type codeEntry struct {
	parent int16
	last   uint8
}

// indexSink receives decoded color indices in raster order.
type indexSink interface {
	put(indices []uint8) error
}

// lzwDecoder decodes the variable-width LZW stream of one image block at a
// time. The dictionary and expansion stack are reused across blocks.
type lzwDecoder struct {
	br    *byteReader
	table [maxCodes]codeEntry
	stack [maxCodes]uint8

	block     [255]byte
	chunk     []byte // unread bytes of the current sub-block
	bits      uint32
	nbits     uint
	exhausted bool // the zero-length terminator sub-block has been read
}

// decode reads the LZW minimum code size and the image data sub-blocks of
// one image block, sending every decoded index to sink.
func (l *lzwDecoder) decode(sink indexSink) error {
	litWidth, err := l.br.ReadByte()
	if err != nil {
		return err
	}
	if litWidth < 2 || litWidth > 8 {
		return fmt.Errorf("%w: LZW minimum code size %d", ErrMalformedImageData, litWidth)
	}

	l.chunk = nil
	l.bits, l.nbits = 0, 0
	l.exhausted = false

	clearCode := 1 << litWidth
	endCode := clearCode + 1
	for c := range clearCode {
		l.table[c] = codeEntry{parent: -1, last: uint8(c)}
	}

	avail := clearCode + 2
	width := uint(litWidth) + 1
	prior := -1
	for {
		code, err := l.readCode(width)
		if errors.Is(err, errDataEnd) {
			Logger().Warn("gif: image data ended without an end code")
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case code == clearCode:
			avail = clearCode + 2
			width = uint(litWidth) + 1
			prior = -1
			continue
		case code == endCode:
			return l.finish()
		case prior == -1:
			if code >= avail {
				return fmt.Errorf("%w: code %d is not a root code", ErrMalformedImageData, code)
			}
		case code > avail:
			return fmt.Errorf("%w: code %d beyond dictionary size %d", ErrMalformedImageData, code, avail)
		case avail < maxCodes:
			first := code
			if code == avail {
				first = prior
			}
			l.table[avail] = codeEntry{parent: int16(prior), last: l.first(first)}
			avail++
			if avail&(avail-1) == 0 && avail < maxCodes {
				width++
			}
		}

		i := l.expand(code)
		if err := sink.put(l.stack[i:]); err != nil {
			return err
		}
		prior = code
	}
}

// finish consumes the block terminator that must follow the end code.
func (l *lzwDecoder) finish() error {
	if l.exhausted {
		return nil
	}
	l.chunk = nil
	n, err := l.br.ReadByte()
	if err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("%w: image data has no block terminator", ErrMalformedBlock)
	}
	return nil
}

// readCode returns the next width-bit code. When the terminator sub-block
// arrives early, buffered bits are returned once, zero padded, and every
// later call returns errDataEnd. This tolerates encoders that drop the end
// code and can hide a truncated file.
func (l *lzwDecoder) readCode(width uint) (int, error) {
	assert.That(width >= 3 && width <= maxCodeWidth, "LZW code width %d", width)

	for l.nbits < width {
		if len(l.chunk) == 0 {
			if l.exhausted {
				if l.nbits == 0 {
					return 0, errDataEnd
				}
				break
			}
			b, err := l.br.readSubBlock(&l.block)
			if err != nil {
				return 0, err
			}
			if b == nil {
				l.exhausted = true
				continue
			}
			l.chunk = b
		}
		l.bits |= uint32(l.chunk[0]) << l.nbits
		l.chunk = l.chunk[1:]
		l.nbits += 8
	}

	code := int(l.bits & (1<<width - 1))
	l.bits >>= width
	if l.nbits > width {
		l.nbits -= width
	} else {
		l.nbits = 0
	}
	return code, nil
}

// first returns the first index of the string for code.
func (l *lzwDecoder) first(code int) uint8 {
	for l.table[code].parent >= 0 {
		code = int(l.table[code].parent)
	}
	return l.table[code].last
}

// expand writes the string for code to the tail of the stack and returns
// the start index.
func (l *lzwDecoder) expand(code int) int {
	i := len(l.stack)
	for c := code; c >= 0; c = int(l.table[c].parent) {
		i--
		l.stack[i] = l.table[c].last
	}
	return i
}
