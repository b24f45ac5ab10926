// Package views implements the fyne front end of the viewer.
package views

import (
	"fmt"
	"image"

	"brats-viewer/internal/services"
	"brats-viewer/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
)

// Handlers are the user actions, connected to the controller by the caller.
// They run on the fyne goroutine; slow ones should return quickly and do
// their work elsewhere.
type Handlers struct {
	SelectDataset  func(id string)
	SelectModality func(modality string)
	SetEffect      func(name string)
	SetHighlight   func(on bool)
	SetIndex       func(index int)
	Save           func()
	ExportVideo    func(count int)
	ExportFrames   func(count int)
}

// MainView is the main window content. Every exported method may be called
// from any goroutine.
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	toolbar       *components.Toolbar
	imageDisplay  *components.ImageDisplay
	statusBar     *components.StatusBar

	depth int
}

func NewMainView(window fyne.Window, defaultFrames int, highlight bool) *MainView {
	mv := &MainView{
		window:       window,
		toolbar:      components.NewToolbar(defaultFrames),
		imageDisplay: components.NewImageDisplay(),
		statusBar:    components.NewStatusBar(),
	}
	mv.toolbar.SetHighlight(highlight)

	mv.mainContainer = container.NewBorder(
		mv.toolbar.GetContainer(),
		mv.statusBar.GetContainer(),
		nil,
		nil,
		mv.imageDisplay.GetContainer(),
	)
	mv.window.SetContent(mv.mainContainer)
	return mv
}

// SetHandlers connects the toolbar to h. Nil entries are ignored.
func (mv *MainView) SetHandlers(h Handlers) {
	mv.toolbar.DatasetHandler = h.SelectDataset
	mv.toolbar.ModalityHandler = h.SelectModality
	mv.toolbar.EffectHandler = h.SetEffect
	mv.toolbar.HighlightHandler = h.SetHighlight
	mv.toolbar.IndexHandler = h.SetIndex
	mv.toolbar.SaveHandler = h.Save
	mv.toolbar.VideoHandler = h.ExportVideo
	mv.toolbar.FramesHandler = h.ExportFrames
}

func (mv *MainView) SetDatasets(ids []string, selected string) {
	fyne.Do(func() {
		mv.toolbar.SetDatasets(ids, selected)
	})
}

func (mv *MainView) SetModalities(modalities []string, selected string) {
	fyne.Do(func() {
		mv.toolbar.SetModalities(modalities, selected)
	})
}

func (mv *MainView) SetEffects(names []string, selected string) {
	fyne.Do(func() {
		mv.toolbar.SetEffects(names, selected)
	})
}

func (mv *MainView) SetSliceRange(depth, index int) {
	fyne.Do(func() {
		mv.depth = depth
		mv.toolbar.SetSliceRange(depth, index)
		mv.statusBar.SetSliceInfo(index, depth)
	})
}

// ShowSlice updates the slice display; nil shows the placeholder
func (mv *MainView) ShowSlice(img image.Image, index int) {
	fyne.Do(func() {
		title := fmt.Sprintf("Corte %d", index)
		if img == nil {
			title += " (vacío)"
		}
		mv.imageDisplay.SetImage(img, title)
		mv.statusBar.SetSliceInfo(index, mv.depth)
	})
}

// SetStatus updates the status bar message
func (mv *MainView) SetStatus(status string) {
	fyne.Do(func() {
		mv.statusBar.SetStatus(status)
	})
}

// ShowError displays an error dialog
func (mv *MainView) ShowError(title string, err error) {
	fyne.Do(func() {
		dialog.ShowError(fmt.Errorf("%s: %w", title, err), mv.window)
	})
}

// ShowInfo displays an information dialog
func (mv *MainView) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

// ShowStatistics opens the report and plots of a statistics run. Artifacts
// are decoded on the calling goroutine.
func (mv *MainView) ShowStatistics(result *services.StatisticsResult) {
	var tabs []components.ArtifactTab
	for _, a := range result.Images() {
		img, err := services.LoadArtifact(a.Path)
		if err != nil {
			continue
		}
		tabs = append(tabs, components.ArtifactTab{Title: a.Title, Image: img})
	}

	fyne.Do(func() {
		content := components.NewStatisticsContent(result.Report, tabs)
		d := dialog.NewCustom("Estadísticas", "Cerrar", content, mv.window)
		d.Resize(fyne.NewSize(components.ImageAreaWidth+160, components.ImageAreaHeight+80))
		d.Show()
	})
}
