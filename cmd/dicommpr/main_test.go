package main

import (
	"path/filepath"
	"testing"

	"dicommpr/internal/models"
	"dicommpr/pkg/config"
	"dicommpr/pkg/source"
)

func TestParseCursor(t *testing.T) {
	c, err := parseCursor(" 3, 4 ,5")
	if err != nil {
		t.Fatalf("parseCursor failed: %v", err)
	}
	if c != (models.Cursor{X: 3, Y: 4, Z: 5}) {
		t.Errorf("Unexpected cursor %+v", c)
	}

	for _, bad := range []string{"", "1,2", "1,2,z", "1,2,3,4"} {
		if _, err := parseCursor(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestOutputTarget(t *testing.T) {
	dir := t.TempDir()
	src := &source.DicomDir{Dir: dir}
	cfg := config.DefaultConfig()

	path, format, err := outputTarget("", "", cfg, src, models.Axial, false, 7)
	if err != nil {
		t.Fatalf("outputTarget failed: %v", err)
	}
	if path != filepath.Join(dir, "slice_mid.png") || format != "png" {
		t.Errorf("Unexpected default target %s (%s)", path, format)
	}

	path, _, _ = outputTarget("", "jpeg", cfg, src, models.Sagittal, false, 7)
	if path != filepath.Join(dir, "slice_sagittal_007.jpg") {
		t.Errorf("Unexpected sagittal target %s", path)
	}

	cfg.Output.Dir = "exports"
	path, _, _ = outputTarget("", "", cfg, src, models.Axial, true, 2)
	if path != filepath.Join("exports", "slice_axial_002.png") {
		t.Errorf("Expected configured output directory, got %s", path)
	}

	path, format, _ = outputTarget("out/view.TIFF", "", cfg, src, models.Axial, false, 0)
	if path != "out/view.TIFF" || format != "tiff" {
		t.Errorf("Explicit output not honoured: %s (%s)", path, format)
	}

	if _, _, err := outputTarget("", "bmp", cfg, src, models.Axial, false, 0); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
