package assembly

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSlices is returned when a source produced no slice records at all.
	ErrNoSlices = errors.New("no slices found")

	// ErrNoReadableSlices is returned when every record failed to decode.
	ErrNoReadableSlices = errors.New("no readable image slices")

	// ErrShapeMismatch is returned when readable slices disagree on rows/cols.
	ErrShapeMismatch = errors.New("slice dimensions differ")
)

// LoadError is the only failure surfaced by a load attempt. The previously
// loaded volume, if any, stays active when one is returned.
type LoadError struct {
	// Source names what was being loaded (directory, archive, ...)
	Source string

	// Skipped is the number of records that were excluded before the failure
	Skipped int

	Err error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load failed: %v", e.Err)
	if e.Source != "" {
		msg = fmt.Sprintf("load %s failed: %v", e.Source, e.Err)
	}
	if e.Skipped > 0 {
		msg += fmt.Sprintf(" (%d unreadable slices skipped)", e.Skipped)
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }
