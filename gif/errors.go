package gif

import (
	"errors"
	"fmt"
	"io"
)

// Format errors. Every error returned for a structurally invalid file wraps
// exactly one of these, so callers can test with errors.Is.
var (
	// ErrBadSignature is returned when the stream does not start with
	// "GIF87a" or "GIF89a".
	ErrBadSignature = errors.New("gif: bad signature")

	// ErrMalformedBlock is returned when a fixed-size block has the wrong
	// declared size, a block terminator is missing, or an image block has
	// no color table to resolve its indices.
	ErrMalformedBlock = errors.New("gif: malformed block")

	// ErrInvalidBlockType is returned for an unknown top-level block byte.
	ErrInvalidBlockType = errors.New("gif: invalid block type")

	// ErrOutOfBounds is returned when an image block does not fit inside
	// the logical screen.
	ErrOutOfBounds = errors.New("gif: image out of bounds")

	// ErrMalformedImageData is returned when the LZW data is invalid or
	// does not decode to exactly width*height pixels.
	ErrMalformedImageData = errors.New("gif: malformed image data")
)

// ErrUnexpectedEndOfStream is returned when the byte source ends before the
// structure being read is complete.
var ErrUnexpectedEndOfStream = errors.New("gif: unexpected end of stream")

// IsFormatError reports whether err describes a structurally invalid file,
// as opposed to a failure of the underlying byte source.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrBadSignature) ||
		errors.Is(err, ErrMalformedBlock) ||
		errors.Is(err, ErrInvalidBlockType) ||
		errors.Is(err, ErrOutOfBounds) ||
		errors.Is(err, ErrMalformedImageData)
}

// readError maps a source error to the package taxonomy.
func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEndOfStream
	}
	return fmt.Errorf("gif: read: %w", err)
}
