package components

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ArtifactTab is one plot of a statistics run.
type ArtifactTab struct {
	Title string
	Image image.Image
}

// NewStatisticsContent lays out the report text followed by one tab per plot.
func NewStatisticsContent(report string, artifacts []ArtifactTab) fyne.CanvasObject {
	text := widget.NewLabel(report)
	text.TextStyle = fyne.TextStyle{Monospace: true}

	tabs := container.NewAppTabs(container.NewTabItem("Reporte", container.NewVScroll(text)))
	for _, a := range artifacts {
		img := canvas.NewImageFromImage(a.Image)
		img.FillMode = canvas.ImageFillContain
		b := a.Image.Bounds()
		img.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
		tabs.Append(container.NewTabItem(a.Title, img))
	}
	return tabs
}
