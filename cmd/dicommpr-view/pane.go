package main

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"dicommpr/internal/models"
)

const paneMinSize = 256

// slicePane shows one view and turns mouse input into viewer actions:
// left click places the crosshair, right drag adjusts the window, the wheel
// steps through planes.
type slicePane struct {
	widget.BaseWidget

	axis   models.Axis
	raster *fynecanvas.Image

	// Callbacks
	onTap        func(axis models.Axis, pt image.Point)
	onWindowDrag func(dx, dy float64)
	onStep       func(axis models.Axis, delta int)

	// Right-drag state
	dragging bool
	last     fyne.Position
}

func newSlicePane(axis models.Axis) *slicePane {
	raster := fynecanvas.NewImageFromImage(image.NewGray(image.Rect(0, 0, 1, 1)))
	raster.FillMode = fynecanvas.ImageFillContain
	raster.ScaleMode = fynecanvas.ImageScalePixels
	raster.SetMinSize(fyne.NewSize(paneMinSize, paneMinSize))

	p := &slicePane{axis: axis, raster: raster}
	p.ExtendBaseWidget(p)
	return p
}

func (p *slicePane) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.raster)
}

// SetImage replaces the displayed canvas.
func (p *slicePane) SetImage(img image.Image) {
	p.raster.Image = img
	p.raster.Refresh()
}

// Tapped handles left-click events.
func (p *slicePane) Tapped(ev *fyne.PointEvent) {
	if p.onTap == nil || p.raster.Image == nil {
		return
	}
	pt, ok := toCanvas(ev.Position, p.Size(), p.raster.Image.Bounds().Size())
	if !ok {
		return
	}
	p.onTap(p.axis, pt)
}

func (p *slicePane) Scrolled(ev *fyne.ScrollEvent) {
	if p.onStep == nil {
		return
	}
	if ev.Scrolled.DY > 0 {
		p.onStep(p.axis, 1)
	} else if ev.Scrolled.DY < 0 {
		p.onStep(p.axis, -1)
	}
}

func (p *slicePane) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonSecondary {
		p.dragging = true
		p.last = ev.Position
	}
}

func (p *slicePane) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonSecondary {
		p.dragging = false
	}
}

func (p *slicePane) MouseIn(*desktop.MouseEvent) {}

func (p *slicePane) MouseMoved(ev *desktop.MouseEvent) {
	if !p.dragging || p.onWindowDrag == nil {
		return
	}
	dx := float64(ev.Position.X - p.last.X)
	dy := float64(ev.Position.Y - p.last.Y)
	p.last = ev.Position
	p.onWindowDrag(dx, dy)
}

func (p *slicePane) MouseOut() {
	p.dragging = false
}

// toCanvas maps a position inside a widget of size widget, showing an
// image of size img scaled to fit and centered, to image pixel
// coordinates. Positions on the letterbox bars are rejected.
func toCanvas(pos fyne.Position, widget fyne.Size, img image.Point) (image.Point, bool) {
	if img.X <= 0 || img.Y <= 0 || widget.Width <= 0 || widget.Height <= 0 {
		return image.Point{}, false
	}

	scale := widget.Width / float32(img.X)
	if s := widget.Height / float32(img.Y); s < scale {
		scale = s
	}
	offX := (widget.Width - float32(img.X)*scale) / 2
	offY := (widget.Height - float32(img.Y)*scale) / 2

	x := int((pos.X - offX) / scale)
	y := int((pos.Y - offY) / scale)
	if pos.X < offX || pos.Y < offY || x >= img.X || y >= img.Y {
		return image.Point{}, false
	}
	return image.Pt(x, y), true
}
