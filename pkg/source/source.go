// Package source reads slice stacks from disk and hands them over as
// models.SliceRecord values. Decoding problems are reported per file; a
// Source only fails as a whole when it cannot be enumerated at all.
package source

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"dicommpr/internal/models"
)

// Source produces the slices of one series.
type Source interface {
	// Name describes the source for messages (usually its path)
	Name() string

	// Slices decodes every candidate file. Records that failed to decode are
	// still returned, with Err set, so the caller sees every outcome.
	Slices(ctx context.Context) ([]models.SliceRecord, *Report, error)
}

// Outcome is the result of decoding one file.
type Outcome struct {
	Key string
	Err error
}

// OK reports whether the file produced usable pixel data.
func (o Outcome) OK() bool { return o.Err == nil }

// Report collects one Outcome per discovered file.
type Report struct {
	Outcomes []Outcome
}

func (r *Report) add(key string, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Key: key, Err: err})
}

// Failed returns the number of files that could not be decoded.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Options tune how sources scan their input.
type Options struct {
	// Extensions limits DICOM directory scans to these file extensions
	// (".dcm"). Empty means every regular file is tried.
	Extensions []string

	// Workers bounds how many files are decoded at once; zero means one
	// per CPU
	Workers int

	// Verbose logs every skipped file
	Verbose bool
}

func (o Options) accepts(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(o.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range o.Extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}
	return false
}

func (o Options) logSkip(key string, err error) {
	if o.Verbose {
		log.Printf("Skipping %s: %v", key, err)
	}
}

// Open picks a source for path: a .zip archive of DICOM files, a directory of
// raster images (PNG, JPEG, TIFF), or a directory of DICOM files.
func Open(path string, opts Options) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("folder not found: %w", err)
	}

	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(path), ".zip") {
			return &DicomZip{Path: path, Options: opts}, nil
		}
		return nil, fmt.Errorf("%s is neither a directory nor a .zip archive", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	images, others := 0, 0
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if isImageFile(e.Name()) {
			images++
		} else {
			others++
		}
	}
	if images > 0 && others == 0 {
		return &ImageDir{Dir: path, Options: opts}, nil
	}
	return &DicomDir{Dir: path, Options: opts}, nil
}
