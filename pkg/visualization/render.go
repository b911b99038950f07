package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"dicommpr/internal/models"
	"dicommpr/pkg/display"
	"dicommpr/pkg/overlay"
	"dicommpr/pkg/slicer"
	"dicommpr/pkg/windowing"
)

// ErrNoVolume is returned when rendering a state that holds no volume.
var ErrNoVolume = errors.New("no volume loaded")

// Views are the three display canvases of one render. Each is an
// *image.Gray, or an *image.RGBA when a crosshair was drawn.
type Views struct {
	Axial    image.Image
	Coronal  image.Image
	Sagittal image.Image
}

// Get returns the canvas of axis.
func (v Views) Get(axis models.Axis) image.Image {
	switch axis {
	case models.Coronal:
		return v.Coronal
	case models.Sagittal:
		return v.Sagittal
	default:
		return v.Axial
	}
}

// Renderer turns a viewer state into display canvases.
type Renderer interface {
	Render(state ViewerState) (Views, error)
}

// CanvasRenderer renders every view into a canvas of the same size.
type CanvasRenderer struct {
	// Target is the canvas size (X = width, Y = height). Non-positive
	// dimensions follow the volume's axial width/height.
	Target image.Point

	// LineColor is the crosshair color; the zero value means red
	LineColor color.RGBA

	// Labels adds captions to exported planes
	Labels bool
}

// Render produces the three views of state. The crosshair is drawn when
// the state holds a cursor.
func (r CanvasRenderer) Render(state ViewerState) (Views, error) {
	if state.Volume == nil {
		return Views{}, ErrNoVolume
	}
	target := r.target(state)

	ax := renderPlane(state, models.Axial, target)
	cor := renderPlane(state, models.Coronal, target)
	sag := renderPlane(state, models.Sagittal, target)

	if state.Cursor == nil {
		return Views{Axial: ax, Coronal: cor, Sagittal: sag}, nil
	}

	axC, corC, sagC := overlay.Crosshairs(ax, cor, sag, *state.Cursor, r.lineColor())
	return Views{Axial: axC, Coronal: corC, Sagittal: sagC}, nil
}

// Plane renders the single view of axis exactly as Render would, captioned
// when Labels is set.
func (r CanvasRenderer) Plane(state ViewerState, axis models.Axis) (image.Image, error) {
	if state.Volume == nil {
		return nil, ErrNoVolume
	}
	gray := renderPlane(state, axis, r.target(state))

	var img image.Image = gray
	if state.Cursor != nil {
		img = overlay.Crosshair(gray, axis, *state.Cursor, r.lineColor())
	}
	if r.Labels {
		img = overlay.DrawLabel(img, state.Caption(axis)...)
	}
	return img, nil
}

// Save encodes the view of axis to w in the given format.
func (r CanvasRenderer) Save(w io.Writer, state ViewerState, axis models.Axis, format string) error {
	img, err := r.Plane(state, axis)
	if err != nil {
		return err
	}
	return Encode(w, img, format)
}

// SaveFile writes the view of axis to path.
func (r CanvasRenderer) SaveFile(path string, state ViewerState, axis models.Axis, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := r.Save(file, state, axis, format); err != nil {
		file.Close()
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return file.Close()
}

// SaveSliceSequence saves every plane along axis into outputDir, named
// slice_<axis>_<index>.<ext>.
func (r CanvasRenderer) SaveSliceSequence(state ViewerState, axis models.Axis, outputDir, format string) ([]string, error) {
	if state.Volume == nil {
		return nil, ErrNoVolume
	}
	ext, err := Extension(format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	n := slicer.Extent(state.Volume, axis)
	name := strings.ToLower(axis.String())
	for pos := 0; pos < n; pos++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d%s", name, pos, ext))
		if err := r.SaveFile(filename, state.WithIndex(axis, pos), axis, format); err != nil {
			return written, err
		}
		written = append(written, filename)
	}

	return written, nil
}

func (r CanvasRenderer) lineColor() color.RGBA {
	if r.LineColor == (color.RGBA{}) {
		return overlay.DefaultLineColor
	}
	return r.LineColor
}

func (r CanvasRenderer) target(state ViewerState) image.Point {
	t := r.Target
	if t.X <= 0 {
		t.X = state.Volume.Width
	}
	if t.Y <= 0 {
		t.Y = state.Volume.Height
	}
	return t
}

// Render produces the three views of state on a canvas of size target with
// the default crosshair color.
func Render(state ViewerState, target image.Point) (Views, error) {
	return CanvasRenderer{Target: target}.Render(state)
}

// Save encodes the view of axis on a canvas of size target.
func Save(w io.Writer, state ViewerState, axis models.Axis, target image.Point, format string) error {
	return CanvasRenderer{Target: target}.Save(w, state, axis, format)
}

// SaveSliceSequence saves every plane along axis on a canvas of size target.
func SaveSliceSequence(state ViewerState, axis models.Axis, outputDir string, target image.Point, format string) ([]string, error) {
	return CanvasRenderer{Target: target}.SaveSliceSequence(state, axis, outputDir, format)
}

// renderPlane is the pipeline shared by the views and the exports: extract,
// window, orient and fit.
func renderPlane(state ViewerState, axis models.Axis, target image.Point) *image.Gray {
	plane := slicer.Slice(state.Volume, axis, state.Index(axis))
	img8 := windowing.Apply(plane, state.Center, state.Width)
	return display.Normalize(img8, target, axis)
}

// Extension returns the file extension used for format.
func Extension(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return ".png", nil
	case "jpeg", "jpg":
		return ".jpg", nil
	case "tiff", "tif":
		return ".tif", nil
	}
	return "", fmt.Errorf("unsupported image format %q", format)
}

// FormatForPath guesses the output format from a file name, PNG by default.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".tif", ".tiff":
		return "tiff"
	}
	return "png"
}

// Encode writes img to w as PNG, JPEG or TIFF.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "", "png":
		return png.Encode(w, img)
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case "tiff", "tif":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported image format %q", format)
}
