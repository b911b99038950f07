// Package slicer extracts axis-aligned planes from a volume.
package slicer

import (
	"dicommpr/internal/models"
)

// Extent returns the number of planes available along axis.
func Extent(vol *models.Volume, axis models.Axis) int {
	switch axis {
	case models.Coronal:
		return vol.Height
	case models.Sagittal:
		return vol.Width
	default:
		return vol.Depth
	}
}

// MidIndex returns the middle plane along axis, used as the default position
// after a load.
func MidIndex(vol *models.Volume, axis models.Axis) int {
	return Extent(vol, axis) / 2
}

// ClampIndex limits index to [0, Extent-1]. Sliders routinely overshoot while
// dragging, so this never fails.
func ClampIndex(vol *models.Volume, axis models.Axis, index int) int {
	n := Extent(vol, axis)
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// Slice extracts a 2D plane from the volume along the specified axis.
//
//	Axial:    volume[z, :, :]        -> (Height, Width)
//	Coronal:  volume[:, y, :]        -> (Depth, Width), rows follow the slice stack
//	Sagittal: volume[:, :, x]^T      -> (Height, Depth), columns follow the slice stack
func Slice(vol *models.Volume, axis models.Axis, index int) models.Plane {
	index = ClampIndex(vol, axis, index)
	w, h, d := vol.Width, vol.Height, vol.Depth

	p := models.Plane{Axis: axis, Index: index}

	switch axis {
	case models.Coronal:
		p.Rows, p.Cols = d, w
		p.Data = make([]float64, d*w)
		for z := 0; z < d; z++ {
			src := z*w*h + index*w
			copy(p.Data[z*w:(z+1)*w], vol.Data[src:src+w])
		}

	case models.Sagittal:
		p.Rows, p.Cols = h, d
		p.Data = make([]float64, h*d)
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				p.Data[y*d+z] = vol.Data[z*w*h+y*w+index]
			}
		}

	default:
		p.Axis = models.Axial
		p.Rows, p.Cols = h, w
		p.Data = make([]float64, h*w)
		copy(p.Data, vol.Data[index*w*h:(index+1)*w*h])
	}

	return p
}
