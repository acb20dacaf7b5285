// Package mipmap builds mip chains for tightly packed 8-bit RGBA layers.
package mipmap

import "math/bits"

// LevelCount returns the number of levels in a full chain for a w x h
// image, level 0 included.
func LevelCount(w, h int) int {
	return bits.Len(uint(max(w, h, 1)))
}

// LevelSize returns the size of level n of a w x h image.
func LevelSize(w, h, n int) (int, int) {
	return max(1, w>>n), max(1, h>>n)
}

// Generate returns levels 1 and up of the chain for the w x h image pix,
// each half the size of the previous one, down to 1x1.
//
// Each pixel is the box-filtered average of a 2x2 block of the level above.
// Row order does not matter, so bottom-up layers stay bottom-up.
func Generate(pix []byte, w, h int) [][]byte {
	n := LevelCount(w, h)
	levels := make([][]byte, 0, n-1)
	for range n - 1 {
		pix, w, h = downsample(pix, w, h)
		levels = append(levels, pix)
	}
	return levels
}

// downsample halves a w x h image. An odd last column or row is averaged
// with itself.
func downsample(src []byte, srcW, srcH int) ([]byte, int, int) {
	dstW, dstH := max(1, srcW/2), max(1, srcH/2)
	dst := make([]byte, 4*dstW*dstH)

	for dy := range dstH {
		y0 := 2 * dy
		y1 := min(y0+1, srcH-1)
		for dx := range dstW {
			x0 := 2 * dx
			x1 := min(x0+1, srcW-1)

			p0 := 4 * (y0*srcW + x0)
			p1 := 4 * (y0*srcW + x1)
			p2 := 4 * (y1*srcW + x0)
			p3 := 4 * (y1*srcW + x1)
			d := 4 * (dy*dstW + dx)
			for c := range 4 {
				sum := uint16(src[p0+c]) + uint16(src[p1+c]) + uint16(src[p2+c]) + uint16(src[p3+c])
				dst[d+c] = byte(sum / 4)
			}
		}
	}
	return dst, dstW, dstH
}
