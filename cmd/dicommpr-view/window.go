package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"dicommpr/internal/models"
	"dicommpr/pkg/assembly"
	"dicommpr/pkg/config"
	"dicommpr/pkg/source"
	"dicommpr/pkg/visualization"
)

const appTitle = "DICOM MPR Viewer"

// viewerWindow is the main window: three linked views with per-view plane
// sliders and shared window/level controls.
type viewerWindow struct {
	fyne.Window

	cfg      *config.Config
	session  *visualization.Session
	renderer visualization.CanvasRenderer

	panes        [3]*slicePane
	indexSliders [3]*widget.Slider
	indexLabels  [3]*widget.Label
	centerSlider *widget.Slider
	widthSlider  *widget.Slider
	viewSelect   *widget.Select
	folderEntry  *widget.Entry
	patientLabel *widget.Label
	statusBar    *widget.Label

	// syncing suppresses slider callbacks while the sliders are being
	// updated from the state
	syncing bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newViewerWindow(a fyne.App, cfg *config.Config) *viewerWindow {
	vw := &viewerWindow{
		Window:  a.NewWindow(appTitle),
		cfg:     cfg,
		session: &visualization.Session{Verbose: cfg.Output.Verbose},
		renderer: visualization.CanvasRenderer{
			LineColor: cfg.LineColor(),
			Labels:    cfg.Display.Labels,
		},
	}

	vw.SetContent(vw.build())
	vw.Canvas().SetOnTypedKey(vw.onKey)
	vw.Resize(fyne.NewSize(3*paneMinSize+80, paneMinSize+260))
	return vw
}

func (vw *viewerWindow) build() fyne.CanvasObject {
	vw.folderEntry = widget.NewEntry()
	vw.folderEntry.SetPlaceHolder("DICOM folder")
	vw.folderEntry.OnSubmitted = vw.load

	top := container.NewBorder(nil, nil,
		widget.NewButton("Open Folder", vw.onOpenFolder),
		widget.NewButton("Reload", func() { vw.load(vw.folderEntry.Text) }),
		vw.folderEntry,
	)

	vw.patientLabel = widget.NewLabel("Patient: -")

	views := container.NewGridWithColumns(3)
	for _, axis := range models.Axes {
		axis := axis
		pane := newSlicePane(axis)
		pane.onTap = vw.onTap
		pane.onWindowDrag = vw.onWindowDrag
		pane.onStep = vw.step
		vw.panes[axis] = pane

		slider := widget.NewSlider(0, 0)
		slider.Step = 1
		slider.OnChanged = func(v float64) {
			if vw.syncing {
				return
			}
			vw.update(func(s visualization.ViewerState) visualization.ViewerState {
				return s.WithIndex(axis, int(v))
			})
		}
		vw.indexSliders[axis] = slider
		vw.indexLabels[axis] = widget.NewLabel(axis.String())

		views.Add(container.NewBorder(vw.indexLabels[axis], slider, nil, nil, pane))
	}

	vw.centerSlider = widget.NewSlider(vw.cfg.Window.CenterMin, vw.cfg.Window.CenterMax)
	vw.centerSlider.Step = 1
	vw.widthSlider = widget.NewSlider(1, vw.cfg.Window.WidthMax)
	vw.widthSlider.Step = 1
	// Each slider sets only its own parameter; the other comes from the
	// state, which may lie outside the slider range
	vw.centerSlider.OnChanged = func(v float64) {
		if vw.syncing {
			return
		}
		vw.update(func(s visualization.ViewerState) visualization.ViewerState {
			return s.WithWindow(v, s.Width)
		})
	}
	vw.widthSlider.OnChanged = func(v float64) {
		if vw.syncing {
			return
		}
		vw.update(func(s visualization.ViewerState) visualization.ViewerState {
			return s.WithWindow(s.Center, v)
		})
	}

	windowForm := widget.NewForm(
		widget.NewFormItem("Window Center", vw.centerSlider),
		widget.NewFormItem("Window Width", vw.widthSlider),
	)

	names := make([]string, len(models.Axes))
	for i, axis := range models.Axes {
		names[i] = axis.String()
	}
	vw.viewSelect = widget.NewSelect(names, nil)
	vw.viewSelect.SetSelected(models.Axial.String())

	buttons := container.NewHBox(
		vw.viewSelect,
		widget.NewButton("Prev", func() { vw.step(vw.selectedAxis(), -1) }),
		widget.NewButton("Next", func() { vw.step(vw.selectedAxis(), 1) }),
		widget.NewButton("Save Slice", vw.onSave),
		widget.NewButton("Reset Window", func() {
			vw.update(visualization.ViewerState.ResetWindow)
		}),
		widget.NewButton("Clear Crosshair", func() {
			vw.update(visualization.ViewerState.WithoutCursor)
		}),
	)

	vw.statusBar = widget.NewLabel("Open a DICOM folder to begin")

	return container.NewBorder(
		container.NewVBox(top, vw.patientLabel),
		container.NewVBox(windowForm, buttons, vw.statusBar),
		nil, nil,
		views,
	)
}

// load starts reading path in the background. A load still in flight is
// cancelled; the current volume stays on screen until the new one is ready.
func (vw *viewerWindow) load(path string) {
	if path == "" {
		return
	}
	vw.folderEntry.SetText(path)

	src, err := source.Open(path, source.Options{
		Extensions: vw.cfg.Load.Extensions,
		Workers:    vw.cfg.Load.Workers,
		Verbose:    vw.cfg.Output.Verbose,
	})
	if err != nil {
		dialog.ShowError(err, vw.Window)
		return
	}

	vw.mu.Lock()
	if vw.cancel != nil {
		vw.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	vw.cancel = cancel
	vw.mu.Unlock()

	vw.statusBar.SetText(fmt.Sprintf("Loading %s...", path))
	go func() {
		report, err := vw.session.Load(ctx, src)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			log.Printf("Load failed: %v", err)
			vw.statusBar.SetText("Load failed")
			dialog.ShowError(fmt.Errorf("failed to load DICOM series: %w", err), vw.Window)
			return
		}
		vw.onLoaded(report.Skipped)
	}()
}

func (vw *viewerWindow) onLoaded(skipped []assembly.Skip) {
	state := vw.session.State()
	if state == nil {
		return
	}

	vw.syncing = true
	for _, axis := range models.Axes {
		vw.indexSliders[axis].Max = float64(state.Extent(axis) - 1)
		vw.indexSliders[axis].Refresh()
	}
	vw.syncing = false

	vw.patientLabel.SetText(state.Meta.PatientLabel())
	vw.SetTitle(fmt.Sprintf("%s - %s", appTitle, vw.folderEntry.Text))
	vw.refresh(state)

	if len(skipped) > 0 {
		vw.statusBar.SetText(fmt.Sprintf("%s (%d unreadable files skipped)", vw.statusBar.Text, len(skipped)))
	}
}

// update applies a state transition and redraws.
func (vw *viewerWindow) update(fn func(visualization.ViewerState) visualization.ViewerState) {
	if state := vw.session.Update(fn); state != nil {
		vw.refresh(state)
	}
}

// refresh renders state into the panes and brings the controls in line.
func (vw *viewerWindow) refresh(state *visualization.ViewerState) {
	r := vw.renderer
	r.Target = vw.cfg.Target(state.Volume.Height, state.Volume.Width)
	views, err := r.Render(*state)
	if err != nil {
		vw.statusBar.SetText(err.Error())
		return
	}

	vw.syncing = true
	for _, axis := range models.Axes {
		vw.panes[axis].SetImage(views.Get(axis))
		vw.indexSliders[axis].SetValue(float64(state.Index(axis)))
		vw.indexLabels[axis].SetText(fmt.Sprintf("%s %d/%d", axis, state.Index(axis)+1, state.Extent(axis)))
	}
	vw.centerSlider.SetValue(state.Center)
	vw.widthSlider.SetValue(state.Width)
	vw.syncing = false

	status := fmt.Sprintf("Window center %.0f, width %.0f", state.Center, state.Width)
	if c := state.Cursor; c != nil {
		status += fmt.Sprintf("    Crosshair (%d, %d, %d)", c.X, c.Y, c.Z)
	}
	vw.statusBar.SetText(status)
}

func (vw *viewerWindow) selectedAxis() models.Axis {
	axis, err := models.ParseAxis(vw.viewSelect.Selected)
	if err != nil {
		return models.Axial
	}
	return axis
}

func (vw *viewerWindow) step(axis models.Axis, delta int) {
	vw.update(func(s visualization.ViewerState) visualization.ViewerState {
		return s.Step(axis, delta)
	})
}

func (vw *viewerWindow) onTap(axis models.Axis, pt image.Point) {
	vw.update(func(s visualization.ViewerState) visualization.ViewerState {
		return s.WithTap(axis, pt)
	})
}

func (vw *viewerWindow) onWindowDrag(dx, dy float64) {
	k := vw.cfg.Window.DragSensitivity
	vw.update(func(s visualization.ViewerState) visualization.ViewerState {
		return s.DragWindow(dx*k, dy*k)
	})
}

func (vw *viewerWindow) onKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyUp, fyne.KeyPageUp, fyne.KeyRight:
		vw.step(vw.selectedAxis(), 1)
	case fyne.KeyDown, fyne.KeyPageDown, fyne.KeyLeft:
		vw.step(vw.selectedAxis(), -1)
	}
}

func (vw *viewerWindow) onOpenFolder() {
	fd := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil || dir == nil {
			return
		}
		vw.load(dir.Path())
	}, vw.Window)
	if vw.folderEntry.Text != "" {
		if loc, err := storage.ListerForURI(storage.NewFileURI(vw.folderEntry.Text)); err == nil {
			fd.SetLocation(loc)
		}
	}
	fd.Show()
}

func (vw *viewerWindow) onSave() {
	state := vw.session.State()
	if state == nil {
		return
	}
	axis := vw.selectedAxis()

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()

		r := vw.renderer
		r.Target = vw.cfg.Target(state.Volume.Height, state.Volume.Width)
		saveErr := r.Save(writer, *state, axis, visualization.FormatForPath(path))
		if err := writer.Close(); saveErr == nil {
			saveErr = err
		}
		if saveErr != nil {
			dialog.ShowError(saveErr, vw.Window)
			return
		}
		dialog.ShowInformation("Saved", path, vw.Window)
	}, vw.Window)
	fd.SetFileName(fmt.Sprintf("slice_%s_%03d.png", strings.ToLower(axis.String()), state.Index(axis)))
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".tif", ".tiff"}))
	fd.Show()
}
