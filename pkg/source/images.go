package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/tiff"

	"dicommpr/internal/models"
)

// ImageDir reads a stack of raster slices (PNG, JPEG or TIFF). Raster files
// carry no spatial metadata, so the number embedded in each filename is used
// as the sequence number.
type ImageDir struct {
	Dir string
	Options
}

func (d *ImageDir) Name() string { return d.Dir }

func (d *ImageDir) Slices(ctx context.Context) ([]models.SliceRecord, *Report, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isImageFile(e.Name()) {
			names = append(names, e.Name())
		}
	}

	records, err := decodeAll(ctx, len(names), d.Workers, func(i int) models.SliceRecord {
		path := filepath.Join(d.Dir, names[i])
		rec := models.SliceRecord{Key: path}
		if n, ok := extractNumber(names[i]); ok {
			rec.Instance = &n
		}

		img, err := loadImage(path)
		if err != nil {
			rec.Err = err
			return rec
		}
		rec.Pixels, rec.Rows, rec.Cols = ImageToFloat(img)
		return rec
	})
	if err != nil {
		return nil, nil, err
	}

	return records, d.collect(records), nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	}
	return false
}

// extractNumber extracts the numeric part from a filename ("slice_012.png"
// gives 12). Digits are concatenated in order.
func extractNumber(filename string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr == "" {
		return 0, false
	}
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, false
	}
	return num, true
}

// loadImage loads an image from a file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	return img, nil
}
