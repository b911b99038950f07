package models

import (
	"fmt"
	"strings"
)

// SliceRecord represents a single decoded tomographic slice handed over by a
// slice source. Only Pixels, Rows and Cols are mandatory; everything else is
// optional metadata.
type SliceRecord struct {
	// Key identifies the slice within its source (file path or archive member).
	// It is the final, always-available sort key.
	Key string

	// Pixels holds Rows*Cols intensities in row-major order, already
	// calibrated (modality rescale applied by the source).
	Pixels []float64

	// Rows and Cols are the slice dimensions
	Rows int
	Cols int

	// Position is the z component of the slice's spatial position, if known
	Position *float64

	// Instance is the acquisition sequence number, if known
	Instance *int

	// WindowCenter and WindowWidth are the per-slice display defaults, if declared
	WindowCenter *float64
	WindowWidth  *float64

	// PixelSpacing is the (row, column) spacing in mm
	PixelSpacing []float64

	// SliceThickness is the nominal slice thickness in mm
	SliceThickness *float64

	PatientName string
	PatientID   string

	// Err is set when the source could not decode the slice.
	Err error
}

// Readable reports whether the record carries usable pixel data.
func (s *SliceRecord) Readable() error {
	if s.Err != nil {
		return s.Err
	}
	if len(s.Pixels) == 0 {
		return fmt.Errorf("no pixel data")
	}
	if s.Rows <= 0 || s.Cols <= 0 || len(s.Pixels) != s.Rows*s.Cols {
		return fmt.Errorf("pixel count %d does not match %dx%d", len(s.Pixels), s.Rows, s.Cols)
	}
	return nil
}

// Volume represents a 3D intensity grid assembled from slices. It is never
// modified after assembly; a reload produces a new Volume.
type Volume struct {
	// Data is the 3D volume data as a 1D array, index z*Width*Height + y*Width + x
	Data []float64

	// Width is the width of the volume in voxels
	Width int

	// Height is the height of the volume in voxels
	Height int

	// Depth is the number of stacked slices
	Depth int
}

// At returns the voxel at (x, y, z). Coordinates must be in range.
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[z*v.Width*v.Height+y*v.Width+x]
}

// Shape returns the extents in (depth, height, width) order.
func (v *Volume) Shape() (int, int, int) {
	return v.Depth, v.Height, v.Width
}

// VolumeMetadata holds the display defaults derived at load time plus the
// passthrough labels of the first slice.
type VolumeMetadata struct {
	WindowCenter float64
	WindowWidth  float64

	// WindowFromSlice is true when the defaults were declared by the first
	// slice rather than computed from volume statistics.
	WindowFromSlice bool

	PixelSpacing   []float64
	SliceThickness *float64
	PatientName    string
	PatientID      string
}

// PatientLabel formats the patient line shown by the front ends.
func (m VolumeMetadata) PatientLabel() string {
	name, id := m.PatientName, m.PatientID
	if name == "" {
		name = "Unknown"
	}
	if id == "" {
		id = "Unknown"
	}
	return fmt.Sprintf("Patient: %s    ID: %s", name, id)
}

// Axis names one of the three orthogonal viewing planes.
type Axis int

const (
	Axial Axis = iota
	Coronal
	Sagittal
)

// Axes lists the planes in display order.
var Axes = []Axis{Axial, Coronal, Sagittal}

func (a Axis) String() string {
	switch a {
	case Axial:
		return "Axial"
	case Coronal:
		return "Coronal"
	case Sagittal:
		return "Sagittal"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts the plane name or its first letter, case-insensitively.
// The volume axis letters z, y and x are accepted as well.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "axial", "a", "z":
		return Axial, nil
	case "coronal", "c", "y":
		return Coronal, nil
	case "sagittal", "s", "x":
		return Sagittal, nil
	}
	return Axial, fmt.Errorf("invalid axis: %s (must be axial, coronal or sagittal)", s)
}

// Plane is a 2D float grid extracted from a Volume.
type Plane struct {
	// Data holds Rows*Cols intensities in row-major order
	Data []float64
	Rows int
	Cols int

	// Axis is the plane's source axis
	Axis Axis

	// Index is the (clamped) position along Axis the plane was taken from
	Index int
}

// At returns the intensity at row r, column c.
func (p Plane) At(r, c int) float64 {
	return p.Data[r*p.Cols+c]
}

// Cursor is a crosshair position in post-normalization canvas coordinates:
// X is the axial/coronal column, Y the axial/sagittal row and Z the coronal
// row and sagittal column.
type Cursor struct {
	X, Y, Z int
}
