package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"dicommpr/internal/models"
	"dicommpr/pkg/config"
	"dicommpr/pkg/source"
	"dicommpr/pkg/visualization"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Parse command line arguments
	inputPath := flag.String("input", "", "DICOM folder, .zip archive of DICOM files, or folder of PNG/JPEG/TIFF slices")
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	initConfig := flag.String("init-config", "", "Write a default configuration file to this path and exit")
	axisName := flag.String("axis", "axial", "Plane to save: axial, coronal or sagittal")
	index := flag.Int("index", -1, "Plane index along -axis (default: middle plane)")
	center := flag.Float64("center", math.NaN(), "Window center (default: from the first slice or volume statistics)")
	width := flag.Float64("width", math.NaN(), "Window width")
	rows := flag.Int("rows", -1, "Canvas height in pixels (0 = volume height)")
	cols := flag.Int("cols", -1, "Canvas width in pixels (0 = volume width)")
	cursor := flag.String("cursor", "", "Draw a crosshair at canvas position x,y,z on the saved image")
	output := flag.String("output", "", "Output image path (default: slice_mid.png in the input folder)")
	format := flag.String("format", "", "Output format when -output has no known extension: png, jpeg or tiff")
	exportSeries := flag.String("export-series", "", "Save every plane along -axis into this directory")
	labels := flag.Bool("labels", false, "Draw axis, window and patient captions on saved images")
	infoOnly := flag.Bool("info", false, "Print the volume summary without saving anything")
	flag.Parse()

	if *initConfig != "" {
		if err := config.CreateDefaultConfigFile(*initConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *initConfig)
		return
	}

	if *inputPath == "" && flag.NArg() > 0 {
		*inputPath = flag.Arg(0)
	}
	if *inputPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <DICOM_FOLDER>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *rows >= 0 {
		cfg.Display.Rows = *rows
	}
	if *cols >= 0 {
		cfg.Display.Cols = *cols
	}
	if *labels {
		cfg.Display.Labels = true
	}

	axis, err := models.ParseAxis(*axisName)
	if err != nil {
		log.Fatalln(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := source.Open(*inputPath, source.Options{
		Extensions: cfg.Load.Extensions,
		Workers:    cfg.Load.Workers,
		Verbose:    cfg.Output.Verbose,
	})
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *inputPath, err)
	}

	session := &visualization.Session{Verbose: cfg.Output.Verbose}
	report, err := session.Load(ctx, src)
	if err != nil {
		log.Fatalf("Failed to load DICOM series: %v", err)
	}
	state := *session.State()

	fmt.Println(state.Info())
	if len(report.Skipped) > 0 {
		fmt.Printf("Skipped %d unreadable files\n", len(report.Skipped))
	}
	if *infoOnly {
		return
	}

	// Command line window overrides the load-time defaults
	c, w := state.Center, state.Width
	if !math.IsNaN(*center) {
		c = *center
	}
	if !math.IsNaN(*width) {
		w = *width
	}
	state = state.WithWindow(c, w)
	if *index >= 0 {
		state = state.WithIndex(axis, *index)
	}
	if *cursor != "" {
		cur, err := parseCursor(*cursor)
		if err != nil {
			log.Fatalln(err)
		}
		state = state.WithCursor(cur)
	}

	renderer := visualization.CanvasRenderer{
		Target:    cfg.Target(state.Volume.Height, state.Volume.Width),
		LineColor: cfg.LineColor(),
		Labels:    cfg.Display.Labels,
	}

	if *exportSeries != "" {
		outFormat := pick(*format, cfg.Output.Format)
		written, err := renderer.SaveSliceSequence(state, axis, *exportSeries, outFormat)
		if err != nil {
			log.Fatalf("Failed to save %s slices: %v", axis, err)
		}
		fmt.Printf("Saved %d %s slices to %s\n", len(written), strings.ToLower(axis.String()), *exportSeries)
		return
	}

	outPath, outFormat, err := outputTarget(*output, *format, cfg, src, axis, *index >= 0, state.Index(axis))
	if err != nil {
		log.Fatalln(err)
	}
	if err := renderer.SaveFile(outPath, state, axis, outFormat); err != nil {
		log.Fatalf("Failed to save slice: %v", err)
	}
	fmt.Printf("Saved %s slice %d to %s\n", strings.ToLower(axis.String()), state.Index(axis), outPath)
}

// outputTarget resolves where the single saved plane goes and in which
// format. Without -output the image lands next to the input (or in the
// configured output directory) as slice_mid, or slice_<axis>_<index> when a
// plane was chosen explicitly.
func outputTarget(output, format string, cfg *config.Config, src source.Source, axis models.Axis, explicit bool, index int) (string, string, error) {
	if output != "" {
		if format == "" {
			format = visualization.FormatForPath(output)
		}
		return output, format, nil
	}

	format = pick(format, cfg.Output.Format)
	ext, err := visualization.Extension(format)
	if err != nil {
		return "", "", err
	}

	dir := cfg.Output.Dir
	if dir == "" {
		dir = src.Name()
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
	}

	name := "slice_mid" + ext
	if explicit || axis != models.Axial {
		name = fmt.Sprintf("slice_%s_%03d%s", strings.ToLower(axis.String()), index, ext)
	}
	return filepath.Join(dir, name), format, nil
}

func pick(flagValue, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	return fallback
}

// parseCursor reads an "x,y,z" canvas position.
func parseCursor(s string) (models.Cursor, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.Cursor{}, fmt.Errorf("cursor must be x,y,z: %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.Cursor{}, fmt.Errorf("cursor must be x,y,z: %q", s)
		}
		v[i] = n
	}
	return models.Cursor{X: v[0], Y: v[1], Z: v[2]}, nil
}
