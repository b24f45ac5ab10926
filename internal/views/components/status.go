package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar displays the pipeline status and the slice position
type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	sliceInfo   *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{
		statusLabel: widget.NewLabel("Listo"),
		sliceInfo:   widget.NewLabel("Sin volumen"),
	}
	sb.statusLabel.Truncation = fyne.TextTruncateEllipsis
	sb.container = container.NewBorder(nil, nil, nil, sb.sliceInfo, sb.statusLabel)
	return sb
}

// SetStatus updates the main status message
func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetSliceInfo shows index out of depth; depth 0 means nothing is loaded.
func (sb *StatusBar) SetSliceInfo(index, depth int) {
	if depth == 0 {
		sb.sliceInfo.SetText("Sin volumen")
		return
	}
	sb.sliceInfo.SetText(fmt.Sprintf("Z %d / %d", index, depth-1))
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}
