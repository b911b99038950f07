// Package windowing maps float intensities to 8-bit grayscale with the
// radiological center/width (window/level) transform.
package windowing

import (
	"image"
	"math"

	"dicommpr/internal/models"
)

// MinWidth replaces any non-positive window width.
const MinWidth = 1.0

// Bounds returns the intensity range [low, high] covered by the window.
// Widths that are not positive are treated as MinWidth.
func Bounds(center, width float64) (low, high float64) {
	if !(width > 0) {
		width = MinWidth
	}
	return center - width/2, center + width/2
}

// MapValue applies the window to one intensity. Values at or below the low
// bound map to 0, at or above the high bound to 255. The scaled value is
// truncated, not rounded.
func MapValue(v, low, high float64) uint8 {
	if v < low {
		v = low
	}
	if v > high {
		v = high
	}
	n := (v - low) / (high - low)
	if !(n > 0) {
		return 0
	}
	if n >= 1 {
		return 255
	}
	return uint8(math.Floor(n * 255))
}

// Apply windows a plane into a grayscale canvas of the same shape: Cols
// pixels wide and Rows pixels high.
func Apply(p models.Plane, center, width float64) *image.Gray {
	low, high := Bounds(center, width)
	img := image.NewGray(image.Rect(0, 0, p.Cols, p.Rows))
	for r := 0; r < p.Rows; r++ {
		row := img.Pix[r*img.Stride : r*img.Stride+p.Cols]
		src := p.Data[r*p.Cols : (r+1)*p.Cols]
		for c, v := range src {
			row[c] = MapValue(v, low, high)
		}
	}
	return img
}
