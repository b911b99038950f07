// Package display brings windowed planes into a common on-screen frame:
// per-axis orientation correction followed by a centered crop-or-pad onto a
// fixed-size black canvas.
package display

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"dicommpr/internal/models"
)

// Normalize orients src for its axis and fits it into a canvas of
// target.X columns by target.Y rows. A non-positive target dimension keeps
// the oriented source size along that dimension.
func Normalize(src image.Image, target image.Point, axis models.Axis) *image.Gray {
	gray := ToGray(Orient(src, axis))
	if target.X <= 0 {
		target.X = gray.Bounds().Dx()
	}
	if target.Y <= 0 {
		target.Y = gray.Bounds().Dy()
	}
	return FitCanvas(gray, target)
}

// Orient applies the viewing convention of each plane:
// sagittal planes are rotated 90 degrees counter-clockwise (the bounds swap,
// nothing is cut off), coronal planes are flipped top to bottom, axial planes
// are left alone.
func Orient(src image.Image, axis models.Axis) image.Image {
	switch axis {
	case models.Sagittal:
		return imaging.Rotate90(src)
	case models.Coronal:
		return imaging.FlipV(src)
	}
	return src
}

// ToGray returns a single-channel copy of img anchored at the origin.
// Color input is reduced to luminance.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return dst
}

// FitCanvas centers src on a black target.X x target.Y canvas. Rows or
// columns that do not fit are cropped evenly from both sides, missing ones
// are padded evenly; an odd leftover pixel goes to the trailing side.
func FitCanvas(src *image.Gray, target image.Point) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	W, H := target.X, target.Y

	srcX0 := max(0, (w-W)/2)
	srcY0 := max(0, (h-H)/2)
	dstX0 := max(0, (W-w)/2)
	dstY0 := max(0, (H-h)/2)

	crop := image.Rect(srcX0, srcY0, srcX0+min(w, W), srcY0+min(h, H)).Add(b.Min)

	canvas := imaging.New(W, H, color.Black)
	fitted := imaging.Paste(canvas, imaging.Crop(src, crop), image.Pt(dstX0, dstY0))
	return ToGray(fitted)
}
