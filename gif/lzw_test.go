package gif

import (
	"bytes"
	"compress/lzw"
	"errors"
	"math/rand/v2"
	"testing"
)

type sliceSink struct {
	got []uint8
}

func (s *sliceSink) put(indices []uint8) error {
	s.got = append(s.got, indices...)
	return nil
}

func newTestLZW(t *testing.T, minCode byte, blocks []byte) *lzwDecoder {
	t.Helper()
	br, err := newByteReader(bytes.NewReader(append([]byte{minCode}, blocks...)))
	if err != nil {
		t.Fatalf("newByteReader() error = %v", err)
	}
	return &lzwDecoder{br: br}
}

func TestLZW_MatchesCompressLZW(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for litWidth := 2; litWidth <= 8; litWidth++ {
		random := make([]byte, 20000)
		for i := range random {
			random[i] = byte(rng.IntN(1 << litWidth))
		}
		inputs := map[string][]byte{
			"random": random,
			"run":    fill(5000, 1),
			"single": {0},
		}
		for name, want := range inputs {
			var enc bytes.Buffer
			w := lzw.NewWriter(&enc, lzw.LSB, litWidth)
			if _, err := w.Write(want); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			l := newTestLZW(t, byte(litWidth), subBlocks(enc.Bytes()))
			var sink sliceSink
			if err := l.decode(&sink); err != nil {
				t.Errorf("litWidth %d %s: decode() error = %v", litWidth, name, err)
				continue
			}
			if !bytes.Equal(sink.got, want) {
				t.Errorf("litWidth %d %s: decoded %d indices, mismatch with %d encoded",
					litWidth, name, len(sink.got), len(want))
			}
		}
	}
}

func TestLZW_ClearResetsDictionary(t *testing.T) {
	// clear, 1, 1 (adds code 6), clear, 2, end.
	var w codeWriter
	for _, c := range []int{4, 1, 1, 4, 2, 5} {
		w.write(c, 3)
	}
	l := newTestLZW(t, 2, subBlocks(w.bytes()))
	var sink sliceSink
	if err := l.decode(&sink); err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if want := []uint8{1, 1, 2}; !bytes.Equal(sink.got, want) {
		t.Errorf("decoded %v, want %v", sink.got, want)
	}

	// Code 6 existed before the second clear but not after it.
	w = codeWriter{}
	for _, c := range []int{4, 1, 1, 4, 6, 5} {
		w.write(c, 3)
	}
	l = newTestLZW(t, 2, subBlocks(w.bytes()))
	sink = sliceSink{}
	if err := l.decode(&sink); !errors.Is(err, ErrMalformedImageData) {
		t.Errorf("decode() error = %v, want ErrMalformedImageData", err)
	}
}

func TestLZW_MissingEndCode(t *testing.T) {
	// Minimum code size 3: clear (8) then 1, four bits each, in one byte.
	l := newTestLZW(t, 3, subBlocks([]byte{0x18}))
	var sink sliceSink
	if err := l.decode(&sink); err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if want := []uint8{1}; !bytes.Equal(sink.got, want) {
		t.Errorf("decoded %v, want %v", sink.got, want)
	}
}

func TestLZW_TruncatedStream(t *testing.T) {
	l := newTestLZW(t, 2, []byte{5, 0x0C})
	var sink sliceSink
	if err := l.decode(&sink); !errors.Is(err, ErrUnexpectedEndOfStream) {
		t.Errorf("decode() error = %v, want ErrUnexpectedEndOfStream", err)
	}
}
