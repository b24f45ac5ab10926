package controllers

import (
	"image"

	"brats-viewer/internal/services"
)

// recordingView keeps the last value of every call the controller makes.
type recordingView struct {
	datasets   []string
	modalities []string
	effects    []string
	depth      int
	rangeIndex int
	image      image.Image
	index      int
	shown      int
	status     string
	errors     []string
	infos      []string
	statistics *services.StatisticsResult
}

func (v *recordingView) SetDatasets(ids []string, selected string) {
	v.datasets = ids
}

func (v *recordingView) SetModalities(modalities []string, selected string) {
	v.modalities = modalities
}

func (v *recordingView) SetEffects(names []string, selected string) {
	v.effects = names
}

func (v *recordingView) SetSliceRange(depth, index int) {
	v.depth = depth
	v.rangeIndex = index
}

func (v *recordingView) ShowSlice(img image.Image, index int) {
	v.image = img
	v.index = index
	v.shown++
}

func (v *recordingView) SetStatus(status string) {
	v.status = status
}

func (v *recordingView) ShowError(title string, err error) {
	v.errors = append(v.errors, title)
}

func (v *recordingView) ShowInfo(title, message string) {
	v.infos = append(v.infos, title)
}

func (v *recordingView) ShowStatistics(result *services.StatisticsResult) {
	v.statistics = result
}
