package overlay

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// labelHeight matches the line height of gg's built-in 7x13 face.
const labelHeight = 13

// DrawLabel writes text lines in the top left corner of img and returns the
// result as a new image. The built-in bitmap face is used, so no font files
// are needed.
func DrawLabel(img image.Image, lines ...string) image.Image {
	ctx := gg.NewContextForImage(img)
	for i, line := range lines {
		y := float64((i + 1) * labelHeight)

		// Dark outline keeps the text readable on bright anatomy
		ctx.SetColor(color.Black)
		ctx.DrawString(line, 3, y+1)
		ctx.SetColor(color.RGBA{R: 255, G: 255, A: 255})
		ctx.DrawString(line, 2, y)
	}
	return ctx.Image()
}
