// Package flipbook turns animated GIFs into texture-array data.
//
// # Overview
//
// A flipbook is a 2D texture array with one layer per animation frame. The
// gif sub-package decodes and composites the frames; Build scales each frame
// to the layer size and records the per-frame delays, so a renderer can
// upload the layers and step through them at playback time.
//
// # Quick Start
//
//	import "github.com/gogpu/flipbook"
//
//	arr, err := flipbook.FromFile("fire.gif")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(arr.Size.Width, arr.Size.Height, arr.Size.DepthOrArrayLayers)
//
// # Layer Layout
//
// Layers hold tightly packed 8-bit RGBA (or BGRA, see WithFormat) pixels
// with rows stored bottom-up, the order texture uploads expect. Layer
// returns a top-down copy as an image.NRGBA for inspection or export.
//
// # Sizing
//
// By default each side is rounded up to the next power of two, as the
// original frames are rarely power-of-two sized. WithPowerOfTwo(false)
// keeps the screen size; WithMaxSize clamps both sides.
package flipbook

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
