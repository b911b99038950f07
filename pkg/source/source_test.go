package source

import (
	"archive/zip"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom/dicomtag"
	"github.com/suyashkumar/dicom/element"
)

// writePNG writes a w x h gray PNG whose pixels all equal v
func writePNG(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"slice_012.png", 12, true},
		{"IM-0001-0042.jpg", 10042, true},
		{"scan.tiff", 0, false},
	}
	for _, tt := range tests {
		got, ok := extractNumber(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: expected %d/%v, got %d/%v", tt.name, tt.want, tt.ok, got, ok)
		}
	}
}

func TestImageDirSlices(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "slice_2.png"), 3, 2, 20)
	writePNG(t, filepath.Join(dir, "slice_1.png"), 3, 2, 10)
	if err := os.WriteFile(filepath.Join(dir, "slice_3.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := src.(*ImageDir); !ok {
		t.Fatalf("expected *ImageDir, got %T", src)
	}

	records, report, err := src.Slices(context.Background())
	if err != nil {
		t.Fatalf("Slices failed: %v", err)
	}
	if len(records) != 3 || len(report.Outcomes) != 3 {
		t.Fatalf("expected 3 records and outcomes, got %d/%d", len(records), len(report.Outcomes))
	}
	if report.Failed() != 1 {
		t.Errorf("expected 1 failure, got %d", report.Failed())
	}
	for _, rec := range records {
		if rec.Err != nil {
			continue
		}
		if rec.Rows != 2 || rec.Cols != 3 || rec.Instance == nil {
			t.Errorf("unexpected record %+v", rec)
		}
		if want := float64(*rec.Instance * 10); rec.Pixels[0] != want {
			t.Errorf("%s: expected pixel %v, got %v", rec.Key, want, rec.Pixels[0])
		}
	}
}

func TestOpenPicksSource(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 1, 1, 0)
	if err := os.WriteFile(filepath.Join(dir, "IM0001"), []byte{0}, 0644); err != nil {
		t.Fatal(err)
	}
	src, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := src.(*DicomDir); !ok {
		t.Errorf("expected *DicomDir for mixed folder, got %T", src)
	}

	zipPath := filepath.Join(dir, "series.zip")
	if err := os.WriteFile(zipPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if src, err = Open(zipPath, Options{}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := src.(*DicomZip); !ok {
		t.Errorf("expected *DicomZip, got %T", src)
	}

	if _, err := Open(filepath.Join(dir, "missing"), Options{}); err == nil {
		t.Error("expected error for missing folder")
	}
	if _, err := Open(filepath.Join(dir, "IM0001"), Options{}); err == nil {
		t.Error("expected error for a plain file")
	}
}

func TestDicomDirReportsGarbage(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"IM0001", "IM0002.dcm", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("definitely not DICOM"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	src := &DicomDir{Dir: dir}
	records, report, err := src.Slices(context.Background())
	if err != nil {
		t.Fatalf("Slices failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (hidden file skipped), got %d", len(records))
	}
	if report.Failed() != 2 {
		t.Errorf("expected 2 failures, got %d", report.Failed())
	}

	src.Extensions = []string{"dcm"}
	records, _, err = src.Slices(context.Background())
	if err != nil {
		t.Fatalf("Slices failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected extension filter to keep 1 file, got %d", len(records))
	}
}

func TestDicomDirHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "IM0001"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := (&DicomDir{Dir: dir}).Slices(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDicomZipSlices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if _, err := zw.Create("series/"); err != nil {
		t.Fatal(err)
	}
	w, err := zw.Create("series/1.dcm")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("garbage")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	records, report, err := (&DicomZip{Path: path}).Slices(context.Background())
	if err != nil {
		t.Fatalf("Slices failed: %v", err)
	}
	if len(records) != 1 || records[0].Key != "series/1.dcm" {
		t.Fatalf("unexpected records %+v", records)
	}
	if report.Failed() != 1 {
		t.Errorf("expected garbage member to fail, got %d failures", report.Failed())
	}
}

func TestRecordFromDataSetMetadata(t *testing.T) {
	ds := &element.DataSet{Elements: []*element.Element{
		{Tag: dicomtag.Rows, Value: []interface{}{uint16(512)}},
		{Tag: dicomtag.Columns, Value: []interface{}{uint16(256)}},
		{Tag: dicomtag.WindowCenter, Value: []interface{}{"40", "-600"}},
		{Tag: dicomtag.WindowWidth, Value: []interface{}{" 400", "1500"}},
		{Tag: dicomtag.ImagePositionPatient, Value: []interface{}{"-120.5", "-100", "37.25"}},
		{Tag: dicomtag.InstanceNumber, Value: []interface{}{"17"}},
		{Tag: dicomtag.PixelSpacing, Value: []interface{}{"0.7", "0.8"}},
		{Tag: dicomtag.SliceThickness, Value: []interface{}{"2.5"}},
		{Tag: dicomtag.PatientName, Value: []interface{}{"Doe^Jane"}},
		{Tag: dicomtag.PatientID, Value: []interface{}{"ANON44302 "}},
		nil,
	}}

	rec := RecordFromDataSet(ds, "IM0017")
	if !errors.Is(rec.Err, errNoPixelData) {
		t.Errorf("expected errNoPixelData, got %v", rec.Err)
	}
	if rec.Rows != 512 || rec.Cols != 256 {
		t.Errorf("unexpected shape %dx%d", rec.Rows, rec.Cols)
	}
	if rec.WindowCenter == nil || *rec.WindowCenter != 40 || rec.WindowWidth == nil || *rec.WindowWidth != 400 {
		t.Errorf("unexpected window %v/%v", rec.WindowCenter, rec.WindowWidth)
	}
	if rec.Position == nil || *rec.Position != 37.25 {
		t.Errorf("unexpected position %v", rec.Position)
	}
	if rec.Instance == nil || *rec.Instance != 17 {
		t.Errorf("unexpected instance %v", rec.Instance)
	}
	if len(rec.PixelSpacing) != 2 || rec.PixelSpacing[1] != 0.8 {
		t.Errorf("unexpected spacing %v", rec.PixelSpacing)
	}
	if rec.SliceThickness == nil || *rec.SliceThickness != 2.5 {
		t.Errorf("unexpected thickness %v", rec.SliceThickness)
	}
	if rec.PatientName != "Doe^Jane" || rec.PatientID != "ANON44302" {
		t.Errorf("unexpected patient %q/%q", rec.PatientName, rec.PatientID)
	}
}

func TestRecordFromDataSetMalformedValues(t *testing.T) {
	ds := &element.DataSet{Elements: []*element.Element{
		{Tag: dicomtag.WindowCenter, Value: []interface{}{"abc"}},
		{Tag: dicomtag.ImagePositionPatient, Value: []interface{}{"1", "2"}},
		{Tag: dicomtag.InstanceNumber, Value: []interface{}{}},
	}}
	rec := RecordFromDataSet(ds, "x")
	if rec.WindowCenter != nil || rec.Position != nil || rec.Instance != nil {
		t.Errorf("malformed values should be ignored: %+v", rec)
	}
}

func TestDecodeDicomNeverPanics(t *testing.T) {
	for _, data := range [][]byte{nil, {}, make([]byte, 200), []byte("DICM")} {
		rec := DecodeDicom(data, "k")
		if rec.Err == nil {
			t.Errorf("expected error for %d bytes", len(data))
		}
		if rec.Key != "k" {
			t.Errorf("key lost: %q", rec.Key)
		}
	}
}

func TestImageToFloat(t *testing.T) {
	g16 := image.NewGray16(image.Rect(0, 0, 2, 1))
	g16.SetGray16(1, 0, color.Gray16{Y: 4000})
	px, rows, cols := ImageToFloat(g16)
	if rows != 1 || cols != 2 || px[0] != 0 || px[1] != 4000 {
		t.Errorf("unexpected Gray16 conversion %v %d %d", px, rows, cols)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgba.Set(0, 0, color.White)
	px, _, _ = ImageToFloat(rgba)
	if px[0] != 65535 {
		t.Errorf("expected white to map to 65535, got %v", px[0])
	}
}

func TestNativeToFloat(t *testing.T) {
	got := NativeToFloat([][]int{{1}, {-1024, 7}, {}})
	want := []float64{1, -1024, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
