// Command dicommpr-view is the interactive viewer: axial, coronal and
// sagittal views of a DICOM series with linked crosshairs and window/level
// control.
package main

import (
	"flag"
	"log"

	"fyne.io/fyne/v2/app"

	"dicommpr/pkg/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "Path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a := app.NewWithID("dicommpr.viewer")
	vw := newViewerWindow(a, cfg)

	// Handle command line arguments
	if flag.NArg() > 0 {
		vw.load(flag.Arg(0))
	}

	vw.ShowAndRun()
}
