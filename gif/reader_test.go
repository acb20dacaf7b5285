package gif

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestByteReader_SkipAndSeek(t *testing.T) {
	data := make([]byte, 3*readAheadSize)
	for i := range data {
		data[i] = byte(i * 7)
	}
	br, err := newByteReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name string
		move func() error
		want int64
	}{
		{"skip inside buffer", func() error { return br.skip(10) }, 11},
		{"skip past buffer", func() error { return br.skip(readAheadSize + 5) }, readAheadSize + 17},
		{"seek back into buffer", func() error { return br.seekTo(readAheadSize + 20) }, readAheadSize + 20},
		{"seek to start", func() error { return br.seekTo(0) }, 0},
	}
	if _, err := br.ReadByte(); err != nil {
		t.Fatal(err)
	}
	for _, s := range steps {
		if err := s.move(); err != nil {
			t.Fatalf("%s: error = %v", s.name, err)
		}
		if got := br.offset(); got != s.want {
			t.Errorf("%s: offset() = %d, want %d", s.name, got, s.want)
		}
		b, err := br.ReadByte()
		if err != nil {
			t.Fatalf("%s: ReadByte() error = %v", s.name, err)
		}
		if b != data[s.want] {
			t.Errorf("%s: ReadByte() = %d, want %d", s.name, b, data[s.want])
		}
	}
}

func TestByteReader_SubBlocks(t *testing.T) {
	data := append(subBlocks(bytes.Repeat([]byte{'x'}, 300)), 0x3B)
	br, err := newByteReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	var (
		block [255]byte
		sizes []int
	)
	for {
		b, err := br.readSubBlock(&block)
		if err != nil {
			t.Fatalf("readSubBlock() error = %v", err)
		}
		if b == nil {
			break
		}
		sizes = append(sizes, len(b))
	}
	if len(sizes) != 2 || sizes[0] != 255 || sizes[1] != 45 {
		t.Errorf("sub-block sizes = %v, want [255 45]", sizes)
	}
	if b, _ := br.ReadByte(); b != 0x3B {
		t.Errorf("byte after terminator = 0x%02x, want 0x3b", b)
	}
}

func TestByteReader_EndOfStream(t *testing.T) {
	br, err := newByteReader(bytes.NewReader([]byte{1}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := br.readUint16(); !errors.Is(err, ErrUnexpectedEndOfStream) {
		t.Errorf("readUint16() error = %v, want ErrUnexpectedEndOfStream", err)
	}
	if err := br.skipSubBlocks(); !errors.Is(err, ErrUnexpectedEndOfStream) {
		t.Errorf("skipSubBlocks() error = %v, want ErrUnexpectedEndOfStream", err)
	}
}

type failingReader struct{ io.ReadSeeker }

var errDisk = errors.New("disk on fire")

func (failingReader) Read([]byte) (int, error) { return 0, errDisk }

func TestByteReader_SourceError(t *testing.T) {
	br, err := newByteReader(failingReader{bytes.NewReader(nil)})
	if err != nil {
		t.Fatal(err)
	}
	_, err = br.ReadByte()
	if !errors.Is(err, errDisk) {
		t.Errorf("ReadByte() error = %v, want %v", err, errDisk)
	}
	if IsFormatError(err) {
		t.Errorf("IsFormatError(%v) = true, want false", err)
	}
}
