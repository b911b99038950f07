package windowing

import (
	"math"
	"testing"

	"dicommpr/internal/models"
)

func rampPlane(values ...float64) models.Plane {
	return models.Plane{Data: values, Rows: 1, Cols: len(values)}
}

func TestApplyUniformMidpoint(t *testing.T) {
	p := models.Plane{Data: make([]float64, 16), Rows: 4, Cols: 4}
	for i := range p.Data {
		p.Data[i] = 100
	}
	img := Apply(p, 100, 50)
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("expected 4x4 canvas, got %v", b)
	}
	for i, v := range img.Pix {
		if v != 127 {
			t.Fatalf("pixel %d: expected 127, got %d", i, v)
		}
	}
}

func TestApplyClipsOutsideWindow(t *testing.T) {
	// low = 75, high = 125
	img := Apply(rampPlane(-1000, 75, 74.9, 125, 125.1, 1e9), 100, 50)
	want := []uint8{0, 0, 0, 255, 255, 255}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Errorf("value %d: expected %d, got %d", i, want[i], img.Pix[i])
		}
	}
}

func TestApplyTruncates(t *testing.T) {
	// (v - 0) / 255 * 255 lands exactly on integers; 1.99 must become 1
	low, high := Bounds(127.5, 255)
	if low != 0 || high != 255 {
		t.Fatalf("unexpected bounds %v %v", low, high)
	}
	if got := MapValue(1.99, low, high); got != 1 {
		t.Errorf("expected truncation to 1, got %d", got)
	}
	if got := MapValue(254.999, low, high); got != 254 {
		t.Errorf("expected truncation to 254, got %d", got)
	}
}

func TestNonPositiveWidthActsAsOne(t *testing.T) {
	p := rampPlane(-2, 9.4, 9.5, 9.75, 10, 10.25, 10.5, 11, math.Inf(1))
	ref := Apply(p, 10, 1.0)
	for _, w := range []float64{0, -1, -4000, math.NaN()} {
		got := Apply(p, 10, w)
		for i := range ref.Pix {
			if got.Pix[i] != ref.Pix[i] {
				t.Errorf("width %v, value %d: expected %d, got %d", w, i, ref.Pix[i], got.Pix[i])
			}
		}
	}
}

func TestApplyIsMonotonic(t *testing.T) {
	values := make([]float64, 0, 500)
	for v := -250.0; v < 250; v++ {
		values = append(values, v)
	}
	for _, win := range [][2]float64{{0, 100}, {40, 400}, {-600, 1500}, {3, 0.5}} {
		img := Apply(rampPlane(values...), win[0], win[1])
		for i := 1; i < len(img.Pix); i++ {
			if img.Pix[i] < img.Pix[i-1] {
				t.Fatalf("window %v: output decreased at %v", win, values[i])
			}
		}
	}
}

func TestNaNMapsToZero(t *testing.T) {
	img := Apply(rampPlane(math.NaN()), 0, 10)
	if img.Pix[0] != 0 {
		t.Errorf("expected 0 for NaN, got %d", img.Pix[0])
	}
}
