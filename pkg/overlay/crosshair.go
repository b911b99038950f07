// Package overlay draws cross-reference lines and captions on normalized
// canvases.
package overlay

import (
	"image"
	"image/color"

	"dicommpr/internal/models"
)

// DefaultLineColor is the crosshair color used when none is configured.
var DefaultLineColor = color.RGBA{R: 255, A: 255}

// Crosshairs draws the reference lines of cursor c onto the three normalized
// canvases:
//
//	axial:    column c.X, row c.Y
//	coronal:  column c.X, row c.Z
//	sagittal: column c.Z, row c.Y
//
// A line whose coordinate falls outside its canvas is left out. The inputs
// are not modified.
func Crosshairs(axial, coronal, sagittal *image.Gray, c models.Cursor, lineColor color.RGBA) (ax, cor, sag *image.RGBA) {
	ax = Crosshair(axial, models.Axial, c, lineColor)
	cor = Crosshair(coronal, models.Coronal, c, lineColor)
	sag = Crosshair(sagittal, models.Sagittal, c, lineColor)
	return ax, cor, sag
}

// Crosshair draws the reference lines of cursor c onto the single canvas of
// axis.
func Crosshair(g *image.Gray, axis models.Axis, c models.Cursor, lineColor color.RGBA) *image.RGBA {
	img := Colorize(g)
	switch axis {
	case models.Axial:
		drawVertical(img, c.X, lineColor)
		drawHorizontal(img, c.Y, lineColor)
	case models.Coronal:
		drawVertical(img, c.X, lineColor)
		drawHorizontal(img, c.Z, lineColor)
	case models.Sagittal:
		drawVertical(img, c.Z, lineColor)
		drawHorizontal(img, c.Y, lineColor)
	}
	return img
}

// Colorize replicates each gray value across R, G and B with full alpha.
func Colorize(g *image.Gray) *image.RGBA {
	b := g.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+4*b.Dx()]
		for x, v := range src {
			dst[4*x] = v
			dst[4*x+1] = v
			dst[4*x+2] = v
			dst[4*x+3] = 0xff
		}
	}
	return out
}

func drawVertical(img *image.RGBA, x int, c color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(x, y, c)
	}
}

func drawHorizontal(img *image.RGBA, y int, c color.RGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetRGBA(x, y, c)
	}
}
