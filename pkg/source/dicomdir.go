package source

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dicommpr/internal/models"
)

// DicomDir reads every DICOM file directly inside Dir.
type DicomDir struct {
	Dir string
	Options
}

func (d *DicomDir) Name() string { return d.Dir }

// Slices decodes the directory's files in parallel. Records come back in
// file name order; files that are not DICOM, or carry no pixel data, come
// back as failed records.
func (d *DicomDir) Slices(ctx context.Context) ([]models.SliceRecord, *Report, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && d.accepts(e.Name()) {
			paths = append(paths, filepath.Join(d.Dir, e.Name()))
		}
	}

	records, err := decodeAll(ctx, len(paths), d.Workers, func(i int) models.SliceRecord {
		data, err := os.ReadFile(paths[i])
		if err != nil {
			return models.SliceRecord{Key: paths[i], Err: err}
		}
		return DecodeDicom(data, paths[i])
	})
	if err != nil {
		return nil, nil, err
	}

	return records, d.collect(records), nil
}

// DicomZip reads the DICOM members of a zip archive, as found in bulk
// imaging downloads.
type DicomZip struct {
	Path string
	Options
}

func (z *DicomZip) Name() string { return z.Path }

func (z *DicomZip) Slices(ctx context.Context) ([]models.SliceRecord, *Report, error) {
	rc, err := zip.OpenReader(z.Path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	return z.slicesFromReader(ctx, &rc.Reader)
}

func (z *DicomZip) slicesFromReader(ctx context.Context, rc *zip.Reader) ([]models.SliceRecord, *Report, error) {
	var members []*zip.File
	for _, f := range rc.File {
		if !f.FileInfo().IsDir() && z.accepts(f.Name) {
			members = append(members, f)
		}
	}

	records, err := decodeAll(ctx, len(members), z.Workers, func(i int) models.SliceRecord {
		f := members[i]
		data, err := readZipMember(f)
		if err != nil {
			return models.SliceRecord{Key: f.Name, Err: err}
		}
		return DecodeDicom(data, f.Name)
	})
	if err != nil {
		return nil, nil, err
	}

	return records, z.collect(records), nil
}

func readZipMember(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}
