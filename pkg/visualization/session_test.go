package visualization

import (
	"context"
	"errors"
	"testing"

	"dicommpr/internal/models"
	"dicommpr/pkg/assembly"
	"dicommpr/pkg/source"
)

// memorySource serves fixed records
type memorySource struct {
	name    string
	records []models.SliceRecord
	err     error
}

func (m *memorySource) Name() string { return m.name }

func (m *memorySource) Slices(ctx context.Context) ([]models.SliceRecord, *source.Report, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	report := &source.Report{}
	for _, r := range m.records {
		report.Outcomes = append(report.Outcomes, source.Outcome{Key: r.Key, Err: r.Readable()})
	}
	return m.records, report, nil
}

// seriesSource returns depth 4x4 slices of value with a declared window
func seriesSource(name string, depth int, value float64) *memorySource {
	center, width := 100.0, 50.0
	src := &memorySource{name: name}
	for z := 0; z < depth; z++ {
		pixels := make([]float64, 16)
		for i := range pixels {
			pixels[i] = value
		}
		instance := z
		src.records = append(src.records, models.SliceRecord{
			Key:          name + string(rune('a'+z)),
			Pixels:       pixels,
			Rows:         4,
			Cols:         4,
			Instance:     &instance,
			WindowCenter: &center,
			WindowWidth:  &width,
		})
	}
	return src
}

// TestSessionLoad verifies a successful load becomes the active state
func TestSessionLoad(t *testing.T) {
	var s Session
	if s.State() != nil {
		t.Fatal("Expected no state before the first load")
	}

	src := seriesSource("series", 3, 100)
	src.records = append(src.records, models.SliceRecord{Key: "broken", Err: errors.New("bad file")})

	report, err := s.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(report.Used) != 3 || len(report.Skipped) != 1 {
		t.Errorf("Expected 3 used and 1 skipped, got %d/%d", len(report.Used), len(report.Skipped))
	}

	state := s.State()
	if state == nil || state.Volume.Depth != 3 {
		t.Fatalf("Expected a 3 slice volume, got %+v", state)
	}
	if state.Center != 100 || state.Width != 50 || state.Index(models.Axial) != 1 {
		t.Errorf("Unexpected defaults: %v/%v index %d", state.Center, state.Width, state.Index(models.Axial))
	}
}

// TestSessionFailedLoadKeepsPrevious verifies failures are LoadErrors and leave
// the active volume untouched
func TestSessionFailedLoadKeepsPrevious(t *testing.T) {
	var s Session
	if _, err := s.Load(context.Background(), seriesSource("good", 2, 100)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	before := s.State()

	tests := []struct {
		name string
		src  *memorySource
		want error
	}{
		{"empty", &memorySource{name: "empty"}, assembly.ErrNoSlices},
		{"unreadable", &memorySource{name: "unreadable", records: []models.SliceRecord{{Key: "x", Err: errors.New("bad")}}}, assembly.ErrNoReadableSlices},
		{"enumeration", &memorySource{name: "missing", err: errors.New("folder not found")}, nil},
	}

	for _, tt := range tests {
		_, err := s.Load(context.Background(), tt.src)
		var loadErr *assembly.LoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("%s: expected *assembly.LoadError, got %v", tt.name, err)
		}
		if loadErr.Source != tt.src.name {
			t.Errorf("%s: expected source %q, got %q", tt.name, tt.src.name, loadErr.Source)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
		if s.State() != before {
			t.Errorf("%s: active state replaced by a failed load", tt.name)
		}
	}
}

// TestSessionCancelledLoad verifies a cancelled load is not published
func TestSessionCancelledLoad(t *testing.T) {
	var s Session
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, seriesSource("series", 2, 100))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	var loadErr *assembly.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Expected *assembly.LoadError, got %T", err)
	}
	if s.State() != nil {
		t.Error("Cancelled load was published")
	}
}

// TestSessionUpdate verifies state transitions are published
func TestSessionUpdate(t *testing.T) {
	var s Session
	if s.Update(func(v ViewerState) ViewerState { return v }) != nil {
		t.Error("Expected nil update without a volume")
	}

	if _, err := s.Load(context.Background(), seriesSource("series", 3, 100)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	next := s.Update(func(v ViewerState) ViewerState {
		return v.Step(models.Axial, 1).DragWindow(0, 10)
	})
	if next.Index(models.Axial) != 2 || next.Center != 90 {
		t.Errorf("Unexpected updated state: index %d center %v", next.Index(models.Axial), next.Center)
	}
	if s.State() != next {
		t.Error("Update did not publish the new state")
	}
}
