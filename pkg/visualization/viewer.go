// Package visualization holds the viewer state of a loaded volume and turns
// it into display canvases: three orthogonal views for the interactive
// front end, single planes and plane sequences for export.
package visualization

import (
	"fmt"
	"image"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dicommpr/internal/models"
	"dicommpr/pkg/slicer"
	"dicommpr/pkg/windowing"
)

// ViewerState is an immutable snapshot of everything a render needs. The
// transition methods return modified copies and never touch the receiver, so
// a state can be shared between goroutines freely.
type ViewerState struct {
	// Volume is the loaded intensity grid. It is never modified.
	Volume *models.Volume

	// Meta holds the load-time defaults and patient labels
	Meta models.VolumeMetadata

	// Center and Width are the active window/level
	Center float64
	Width  float64

	// Cursor is the crosshair position in canvas coordinates, nil when unset
	Cursor *models.Cursor

	// indices holds the active plane per axis, always within range
	indices [3]int
}

// NewViewerState creates the state shown right after a load: every axis at
// its middle plane, window from the metadata, no crosshair.
func NewViewerState(vol *models.Volume, meta models.VolumeMetadata) ViewerState {
	s := ViewerState{Volume: vol, Meta: meta}
	for _, axis := range models.Axes {
		s.indices[axis] = slicer.MidIndex(vol, axis)
	}
	return s.WithWindow(meta.WindowCenter, meta.WindowWidth)
}

// Index returns the active plane along axis.
func (s ViewerState) Index(axis models.Axis) int {
	return s.indices[axis]
}

// Extent returns the number of planes along axis.
func (s ViewerState) Extent(axis models.Axis) int {
	return slicer.Extent(s.Volume, axis)
}

// WithIndex moves axis to index, clamped to the volume.
func (s ViewerState) WithIndex(axis models.Axis, index int) ViewerState {
	s.indices[axis] = slicer.ClampIndex(s.Volume, axis, index)
	return s
}

// Step moves axis by delta planes (Prev/Next, mouse wheel).
func (s ViewerState) Step(axis models.Axis, delta int) ViewerState {
	return s.WithIndex(axis, s.indices[axis]+delta)
}

// WithWindow sets the window/level. Widths that are not positive are
// replaced by windowing.MinWidth.
func (s ViewerState) WithWindow(center, width float64) ViewerState {
	if !(width > 0) {
		width = windowing.MinWidth
	}
	s.Center, s.Width = center, width
	return s
}

// DragWindow applies a right-button drag: moving down lowers the center,
// moving right widens the window. The dragged width never drops below
// windowing.MinWidth.
func (s ViewerState) DragWindow(dx, dy float64) ViewerState {
	return s.WithWindow(s.Center-dy, math.Max(s.Width+dx, windowing.MinWidth))
}

// ResetWindow restores the load-time window defaults.
func (s ViewerState) ResetWindow() ViewerState {
	return s.WithWindow(s.Meta.WindowCenter, s.Meta.WindowWidth)
}

// WithCursor places the crosshair.
func (s ViewerState) WithCursor(c models.Cursor) ViewerState {
	s.Cursor = &c
	return s
}

// WithoutCursor removes the crosshair.
func (s ViewerState) WithoutCursor() ViewerState {
	s.Cursor = nil
	return s
}

// WithTap places the crosshair from a click at pt on the canvas of axis.
// The coordinate the clicked view cannot express is taken from the current
// cursor, or from the axial plane index when there is none.
func (s ViewerState) WithTap(axis models.Axis, pt image.Point) ViewerState {
	c := models.Cursor{Z: s.indices[models.Axial]}
	if s.Cursor != nil {
		c = *s.Cursor
	}

	switch axis {
	case models.Axial:
		c.X, c.Y = pt.X, pt.Y
	case models.Coronal:
		c.X, c.Z = pt.X, pt.Y
	case models.Sagittal:
		c.Z, c.Y = pt.X, pt.Y
	}
	return s.WithCursor(c)
}

// Caption returns the text lines describing the view of axis.
func (s ViewerState) Caption(axis models.Axis) []string {
	return []string{
		fmt.Sprintf("%s %d/%d", axis, s.Index(axis)+1, s.Extent(axis)),
		fmt.Sprintf("C %.0f  W %.0f", s.Center, s.Width),
		s.Meta.PatientLabel(),
	}
}

// Info summarises the loaded volume for the command line.
func (s ViewerState) Info() string {
	var b strings.Builder
	d, h, w := s.Volume.Shape()
	fmt.Fprintf(&b, "Volume shape: %d x %d x %d (slices x rows x cols)\n", d, h, w)
	fmt.Fprintf(&b, "Intensity range: [%.1f, %.1f]\n", floats.Min(s.Volume.Data), floats.Max(s.Volume.Data))
	mean, std := stat.MeanStdDev(s.Volume.Data, nil)
	fmt.Fprintf(&b, "Intensity mean: %.1f, std dev %.1f\n", mean, std)

	origin := "volume statistics"
	if s.Meta.WindowFromSlice {
		origin = "first slice"
	}
	fmt.Fprintf(&b, "Default window: center %.1f, width %.1f (from %s)\n", s.Meta.WindowCenter, s.Meta.WindowWidth, origin)

	if len(s.Meta.PixelSpacing) == 2 {
		fmt.Fprintf(&b, "Pixel spacing: %.3f x %.3f mm\n", s.Meta.PixelSpacing[0], s.Meta.PixelSpacing[1])
	}
	if s.Meta.SliceThickness != nil {
		fmt.Fprintf(&b, "Slice thickness: %.3f mm\n", *s.Meta.SliceThickness)
	}
	b.WriteString(s.Meta.PatientLabel())
	return b.String()
}
