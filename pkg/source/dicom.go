package source

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/dicomtag"
	"github.com/suyashkumar/dicom/element"

	"dicommpr/internal/models"
)

var errNoPixelData = errors.New("no pixel data")

// safelyDicomParse turns panics raised by the dicom parser on malformed input
// into ordinary errors.
func safelyDicomParse(p dicom.Parser, opts dicom.ParseOptions) (parsedData *element.DataSet, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	return p.Parse(opts)
}

// DecodeDicom parses one DICOM file held in memory into a SliceRecord. It
// never fails outright: problems are reported through the record's Err.
func DecodeDicom(data []byte, key string) (rec models.SliceRecord) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			rec = models.SliceRecord{Key: key, Err: fmt.Errorf("%v", panicErr)}
		}
	}()

	p, err := dicom.NewParserFromBytes(data, nil)
	if err != nil {
		return models.SliceRecord{Key: key, Err: err}
	}

	parsedData, err := safelyDicomParse(p, dicom.ParseOptions{
		DropPixelData: false,
	})
	if parsedData == nil || err != nil {
		return models.SliceRecord{Key: key, Err: fmt.Errorf("error reading dicom: %v", err)}
	}

	return RecordFromDataSet(parsedData, key)
}

// RecordFromDataSet extracts pixels and display metadata from a parsed
// dataset. The modality rescale (slope/intercept) is applied to the pixels.
func RecordFromDataSet(ds *element.DataSet, key string) models.SliceRecord {
	rec := models.SliceRecord{Key: key}

	rescaleSlope, rescaleIntercept := 1.0, 0.0
	var pixelInfo *element.PixelDataInfo

	for _, elem := range ds.Elements {
		if elem == nil || len(elem.Value) == 0 {
			continue
		}

		switch elem.Tag {
		case dicomtag.Rows:
			if v, ok := intValue(elem.Value[0]); ok {
				rec.Rows = v
			}
		case dicomtag.Columns:
			if v, ok := intValue(elem.Value[0]); ok {
				rec.Cols = v
			}
		case dicomtag.RescaleSlope:
			if v, ok := floatValue(elem.Value[0]); ok {
				rescaleSlope = v
			}
		case dicomtag.RescaleIntercept:
			if v, ok := floatValue(elem.Value[0]); ok {
				rescaleIntercept = v
			}
		case dicomtag.WindowCenter:
			// May be multi-valued; the first window is the default one
			if v, ok := floatValue(elem.Value[0]); ok {
				rec.WindowCenter = &v
			}
		case dicomtag.WindowWidth:
			if v, ok := floatValue(elem.Value[0]); ok {
				rec.WindowWidth = &v
			}
		case dicomtag.ImagePositionPatient:
			if len(elem.Value) >= 3 {
				if v, ok := floatValue(elem.Value[2]); ok {
					rec.Position = &v
				}
			}
		case dicomtag.InstanceNumber:
			if v, ok := intValue(elem.Value[0]); ok {
				rec.Instance = &v
			}
		case dicomtag.PixelSpacing:
			var spacing []float64
			for _, raw := range elem.Value {
				v, ok := floatValue(raw)
				if !ok {
					spacing = nil
					break
				}
				spacing = append(spacing, v)
			}
			rec.PixelSpacing = spacing
		case dicomtag.SliceThickness:
			if v, ok := floatValue(elem.Value[0]); ok {
				rec.SliceThickness = &v
			}
		case dicomtag.PatientName:
			rec.PatientName = personName(elem.Value[0])
		case dicomtag.PatientID:
			if s, ok := elem.Value[0].(string); ok {
				rec.PatientID = strings.TrimSpace(s)
			}
		case dicomtag.PixelData:
			if info, ok := elem.Value[0].(element.PixelDataInfo); ok {
				pixelInfo = &info
			}
		}
	}

	if pixelInfo == nil || len(pixelInfo.Frames) == 0 {
		rec.Err = errNoPixelData
		return rec
	}

	// Multi-frame objects contribute their first frame only
	frame := pixelInfo.Frames[0]
	if frame.IsEncapsulated() {
		img, err := frame.GetImage()
		if err != nil {
			rec.Err = fmt.Errorf("decoding encapsulated frame: %w", err)
			return rec
		}
		rec.Pixels, rec.Rows, rec.Cols = ImageToFloat(img)
	} else {
		rec.Pixels = NativeToFloat(frame.NativeData.Data)
	}

	for i, v := range rec.Pixels {
		rec.Pixels[i] = v*rescaleSlope + rescaleIntercept
	}

	return rec
}

// NativeToFloat flattens native pixel samples, keeping the first sample of
// each pixel.
func NativeToFloat(samples [][]int) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		if len(s) > 0 {
			out[i] = float64(s[0])
		}
	}
	return out
}

// ImageToFloat converts a decoded image to row-major luminance values. Gray
// images keep their native depth, anything else is reduced to 16-bit gray.
func ImageToFloat(img image.Image) (pixels []float64, rows, cols int) {
	b := img.Bounds()
	rows, cols = b.Dy(), b.Dx()
	pixels = make([]float64, rows*cols)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			var v float64
			switch im := img.(type) {
			case *image.Gray:
				v = float64(im.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			case *image.Gray16:
				v = float64(im.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			default:
				v = float64(color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y)
			}
			pixels[y*cols+x] = v
		}
	}
	return pixels, rows, cols
}

func floatValue(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := intValue(raw); ok {
		return float64(i), true
	}
	return 0, false
}

func intValue(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case uint16:
		return int(v), true
	case int16:
		return int(v), true
	case uint32:
		return int(v), true
	case int32:
		return int(v), true
	case int:
		return v, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	}
	return 0, false
}

// personName renders a PN value ("Family^Given") for display.
func personName(raw interface{}) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
