package gif

import (
	"fmt"
	"io"
)

const readAheadSize = 4096

// byteReader is a forward reader over an io.ReadSeeker with a small
// read-ahead buffer. It tracks the logical offset itself so relative skips
// inside the buffer never touch the source.
type byteReader struct {
	src  io.ReadSeeker
	buf  [readAheadSize]byte
	r, w int   // unread bytes are buf[r:w]
	pos  int64 // source offset of buf[r]
}

func newByteReader(src io.ReadSeeker) (*byteReader, error) {
	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("gif: seek: %w", err)
	}
	return &byteReader{src: src, pos: pos}, nil
}

// fill refills an empty buffer. It returns the raw source error.
func (br *byteReader) fill() error {
	br.r, br.w = 0, 0
	for range 100 {
		n, err := br.src.Read(br.buf[:])
		if n > 0 {
			br.w = n
			return nil
		}
		if err != nil {
			return err
		}
	}
	return io.ErrNoProgress
}

// Read implements io.Reader. Errors are those of the source.
func (br *byteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if br.r == br.w {
		if err := br.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, br.buf[br.r:br.w])
	br.r += n
	br.pos += int64(n)
	return n, nil
}

// ReadByte implements io.ByteReader.
func (br *byteReader) ReadByte() (byte, error) {
	if br.r == br.w {
		if err := br.fill(); err != nil {
			return 0, readError(err)
		}
	}
	b := br.buf[br.r]
	br.r++
	br.pos++
	return b, nil
}

func (br *byteReader) readFull(p []byte) error {
	if _, err := io.ReadFull(br, p); err != nil {
		return readError(err)
	}
	return nil
}

func (br *byteReader) readUint16() (uint16, error) {
	var b [2]byte
	if err := br.readFull(b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (br *byteReader) readString(n int) (string, error) {
	b := make([]byte, n)
	if err := br.readFull(b); err != nil {
		return "", err
	}
	return string(b), nil
}

// skip advances n bytes. A skip past the end of the source is reported by
// the next read.
func (br *byteReader) skip(n int) error {
	if n <= br.w-br.r {
		br.r += n
		br.pos += int64(n)
		return nil
	}
	rest := int64(n - (br.w - br.r))
	br.r, br.w = 0, 0
	if _, err := br.src.Seek(rest, io.SeekCurrent); err != nil {
		return fmt.Errorf("gif: seek: %w", err)
	}
	br.pos += int64(n)
	return nil
}

// seekTo moves to an absolute source offset.
func (br *byteReader) seekTo(off int64) error {
	start := br.pos - int64(br.r)
	if off >= start && off <= start+int64(br.w) {
		br.r = int(off - start)
		br.pos = off
		return nil
	}
	if _, err := br.src.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("gif: seek: %w", err)
	}
	br.r, br.w = 0, 0
	br.pos = off
	return nil
}

func (br *byteReader) offset() int64 { return br.pos }

// readSubBlock reads one data sub-block into p. It returns nil at the
// zero-length block that terminates a sub-block sequence.
func (br *byteReader) readSubBlock(p *[255]byte) ([]byte, error) {
	n, err := br.ReadByte()
	if err != nil || n == 0 {
		return nil, err
	}
	if err := br.readFull(p[:n]); err != nil {
		return nil, err
	}
	return p[:n], nil
}

// skipSubBlocks skips data sub-blocks up to and including the terminator.
func (br *byteReader) skipSubBlocks() error {
	for {
		n, err := br.ReadByte()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := br.skip(int(n)); err != nil {
			return err
		}
	}
}
