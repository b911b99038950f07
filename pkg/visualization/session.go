package visualization

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"dicommpr/pkg/assembly"
	"dicommpr/pkg/source"
)

// Session owns the state currently on screen. Loads build a complete new
// state off to the side and publish it with a single store, so readers
// never see a partly loaded volume, and a failed load leaves the previous
// one in place.
type Session struct {
	state atomic.Pointer[ViewerState]

	// mu serialises loads
	mu sync.Mutex

	// Verbose logs a summary of every load
	Verbose bool
}

// State returns the active state, or nil before the first successful load.
func (s *Session) State() *ViewerState {
	return s.state.Load()
}

// Load reads src, assembles its volume and makes it active. Every failure,
// including cancellation of ctx, is returned as an *assembly.LoadError.
func (s *Session) Load(ctx context.Context, src source.Source) (*assembly.LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, files, err := src.Slices(ctx)
	if err != nil {
		return nil, &assembly.LoadError{Source: src.Name(), Err: err}
	}

	vol, meta, report, err := assembly.Assemble(records)
	if err != nil {
		var loadErr *assembly.LoadError
		if errors.As(err, &loadErr) {
			loadErr.Source = src.Name()
			return report, loadErr
		}
		return report, &assembly.LoadError{Source: src.Name(), Err: err}
	}

	// Cancelled loads are never published
	if err := ctx.Err(); err != nil {
		return report, &assembly.LoadError{Source: src.Name(), Skipped: len(report.Skipped), Err: err}
	}

	state := NewViewerState(vol, meta)
	s.state.Store(&state)

	if s.Verbose && files != nil {
		log.Printf("Loaded %s: %d slices, %d of %d files failed", src.Name(), vol.Depth, files.Failed(), len(files.Outcomes))
	}
	return report, nil
}

// Update applies fn to the active state and publishes the result. It
// returns the new state, or nil when nothing is loaded. A load that lands
// concurrently wins; fn is then applied to the freshly loaded state.
func (s *Session) Update(fn func(ViewerState) ViewerState) *ViewerState {
	for {
		cur := s.state.Load()
		if cur == nil {
			return nil
		}
		next := fn(*cur)
		if s.state.CompareAndSwap(cur, &next) {
			return &next
		}
	}
}
