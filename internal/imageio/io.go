// Package imageio writes texture-array layers as ordinary image files.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned for an unknown output format name.
var ErrUnsupportedFormat = errors.New("imageio: unsupported format")

// Format is an output image file format.
type Format int

// Supported output formats.
const (
	FormatPNG Format = iota
	FormatJPEG
	FormatBMP
	FormatTIFF
)

// jpegQuality is used for every JPEG layer.
const jpegQuality = 95

// ParseFormat returns the format for a name such as "png" or ".JPG".
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatBMP:
		return ".bmp"
	case FormatTIFF:
		return ".tif"
	default:
		return ".png"
	}
}

// Encode writes img to w in format f. JPEG drops the alpha channel.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("imageio: encode %v: %w", f, err)
	}
	return nil
}

// Save writes img to the file at path in format f.
func Save(path string, img image.Image, f Format) error {
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}

	if err := Encode(file, img, f); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

// LayerPath returns the path of layer i of the animation named base, for
// example "out/fire_003.png".
func LayerPath(dir, base string, i int, f Format) string {
	name := strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s_%03d%s", name, i, f.Ext()))
}
