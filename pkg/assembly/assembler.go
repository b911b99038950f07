// Package assembly orders decoded slices into a Volume and derives its
// default display parameters.
package assembly

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"dicommpr/internal/models"
)

// Skip records one slice that was left out of the volume.
type Skip struct {
	Key    string
	Reason error
}

// LoadReport summarises an assembly: which slices made it into the volume,
// in depth order, and which were excluded.
type LoadReport struct {
	Used    []string
	Skipped []Skip
}

// Assemble sorts the records, stacks the readable ones along a new leading
// depth axis and computes the window defaults.
//
// Records are ordered by spatial position when one is present, otherwise by
// instance number, otherwise by Key. Positioned records come before
// instance-only records, which come before records with neither.
func Assemble(records []models.SliceRecord) (*models.Volume, models.VolumeMetadata, *LoadReport, error) {
	report := &LoadReport{}
	if len(records) == 0 {
		return nil, models.VolumeMetadata{}, report, &LoadError{Err: ErrNoSlices}
	}

	var readable []*models.SliceRecord
	for i := range records {
		rec := &records[i]
		if err := rec.Readable(); err != nil {
			report.Skipped = append(report.Skipped, Skip{Key: rec.Key, Reason: err})
			continue
		}
		readable = append(readable, rec)
	}
	if len(readable) == 0 {
		return nil, models.VolumeMetadata{}, report, &LoadError{Skipped: len(report.Skipped), Err: ErrNoReadableSlices}
	}

	SortRecords(readable)

	first := readable[0]
	rows, cols := first.Rows, first.Cols
	size := rows * cols

	vol := &models.Volume{
		Data:   make([]float64, size*len(readable)),
		Width:  cols,
		Height: rows,
		Depth:  len(readable),
	}
	for z, rec := range readable {
		if rec.Rows != rows || rec.Cols != cols {
			return nil, models.VolumeMetadata{}, report, &LoadError{
				Skipped: len(report.Skipped),
				Err:     fmt.Errorf("%w: %s is %dx%d, expected %dx%d", ErrShapeMismatch, rec.Key, rec.Cols, rec.Rows, cols, rows),
			}
		}
		copy(vol.Data[z*size:(z+1)*size], rec.Pixels)
		report.Used = append(report.Used, rec.Key)
	}

	meta := models.VolumeMetadata{
		PixelSpacing:   first.PixelSpacing,
		SliceThickness: first.SliceThickness,
		PatientName:    first.PatientName,
		PatientID:      first.PatientID,
	}
	if c, w, ok := declaredWindow(first); ok {
		meta.WindowCenter, meta.WindowWidth, meta.WindowFromSlice = c, w, true
	} else {
		meta.WindowCenter, meta.WindowWidth = StatisticalWindow(vol.Data)
	}

	return vol, meta, report, nil
}

// SortRecords orders records in place for stacking. The ordering is total:
// ties fall back to Key and then to the input order.
func SortRecords(recs []*models.SliceRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		ra, rb := sortRank(a), sortRank(b)
		if ra != rb {
			return ra < rb
		}
		switch ra {
		case 0:
			if *a.Position != *b.Position {
				return *a.Position < *b.Position
			}
		case 1:
			if *a.Instance != *b.Instance {
				return *a.Instance < *b.Instance
			}
		}
		return a.Key < b.Key
	})
}

func sortRank(r *models.SliceRecord) int {
	if r.Position != nil && !math.IsNaN(*r.Position) {
		return 0
	}
	if r.Instance != nil {
		return 1
	}
	return 2
}

// declaredWindow returns the slice's own window when both values are present
// and usable.
func declaredWindow(r *models.SliceRecord) (float64, float64, bool) {
	if r.WindowCenter == nil || r.WindowWidth == nil {
		return 0, 0, false
	}
	c, w := *r.WindowCenter, *r.WindowWidth
	if math.IsNaN(c) || math.IsInf(c, 0) || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return 0, 0, false
	}
	return c, w, true
}

// StatisticalWindow computes the fallback window: center is the median
// intensity, width the spread between the 1st and 99th percentiles.
func StatisticalWindow(data []float64) (center, width float64) {
	if len(data) == 0 {
		return 0, 1
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	center, err := stats.Median(sorted)
	if err != nil {
		center = sorted[len(sorted)/2]
	}
	return center, percentile(sorted, 0.99) - percentile(sorted, 0.01)
}

// percentile interpolates linearly between the closest ranks of sorted,
// placing q at position q*(n-1).
func percentile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
