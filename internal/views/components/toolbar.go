package components

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Toolbar holds the viewer controls. Programmatic updates through the Set*
// methods do not fire the handlers.
type Toolbar struct {
	container *fyne.Container

	datasetSelect  *widget.Select
	modalitySelect *widget.Select
	effectSelect   *widget.Select
	highlightCheck *widget.Check
	slider         *widget.Slider
	sliceLabel     *widget.Label
	framesEntry    *widget.Entry
	saveButton     *widget.Button
	videoButton    *widget.Button
	framesButton   *widget.Button

	// Event handlers
	DatasetHandler   func(string)
	ModalityHandler  func(string)
	EffectHandler    func(string)
	HighlightHandler func(bool)
	IndexHandler     func(int)
	SaveHandler      func()
	VideoHandler     func(int)
	FramesHandler    func(int)

	syncing bool
}

// NewToolbar creates a new toolbar component
func NewToolbar(defaultFrames int) *Toolbar {
	t := &Toolbar{}
	t.createComponents(defaultFrames)
	t.buildLayout()
	return t
}

func (t *Toolbar) createComponents(defaultFrames int) {
	t.datasetSelect = widget.NewSelect(nil, func(id string) {
		if !t.syncing && t.DatasetHandler != nil {
			t.DatasetHandler(id)
		}
	})
	t.datasetSelect.PlaceHolder = "Dataset"

	t.modalitySelect = widget.NewSelect(nil, func(m string) {
		if !t.syncing && t.ModalityHandler != nil {
			t.ModalityHandler(m)
		}
	})

	t.effectSelect = widget.NewSelect(nil, func(name string) {
		if !t.syncing && t.EffectHandler != nil {
			t.EffectHandler(name)
		}
	})

	t.highlightCheck = widget.NewCheck("Usar imagen resaltada", func(on bool) {
		if !t.syncing && t.HighlightHandler != nil {
			t.HighlightHandler(on)
		}
	})

	t.slider = widget.NewSlider(0, 0)
	t.slider.Step = 1
	t.slider.OnChanged = func(v float64) {
		t.sliceLabel.SetText(strconv.Itoa(int(v)))
		if !t.syncing && t.IndexHandler != nil {
			t.IndexHandler(int(v))
		}
	}
	t.sliceLabel = widget.NewLabel("0")

	t.framesEntry = widget.NewEntry()
	t.framesEntry.SetText(strconv.Itoa(defaultFrames))
	t.framesEntry.Validator = func(s string) error {
		_, err := strconv.Atoi(s)
		return err
	}

	t.saveButton = widget.NewButton("Guardar", func() {
		if t.SaveHandler != nil {
			t.SaveHandler()
		}
	})
	t.saveButton.Importance = widget.HighImportance

	t.videoButton = widget.NewButton("Video", func() {
		if t.VideoHandler != nil {
			t.VideoHandler(t.frameCount())
		}
	})
	t.framesButton = widget.NewButton("Secuencia PNG", func() {
		if t.FramesHandler != nil {
			t.FramesHandler(t.frameCount())
		}
	})

	t.EnableSliceOperations(false)
}

func (t *Toolbar) buildLayout() {
	pickers := container.NewHBox(
		t.datasetSelect,
		t.modalitySelect,
		widget.NewSeparator(),
		t.effectSelect,
		t.highlightCheck,
	)

	actions := container.NewHBox(
		t.saveButton,
		widget.NewSeparator(),
		widget.NewLabel("Frames"),
		t.framesEntry,
		t.videoButton,
		t.framesButton,
	)

	t.container = container.NewVBox(
		pickers,
		container.NewBorder(nil, nil, widget.NewLabel("Z"), t.sliceLabel, t.slider),
		actions,
	)
}

func (t *Toolbar) frameCount() int {
	n, err := strconv.Atoi(t.framesEntry.Text)
	if err != nil {
		return 0
	}
	return n
}

// sync runs fn with the handlers muted.
func (t *Toolbar) sync(fn func()) {
	t.syncing = true
	defer func() { t.syncing = false }()
	fn()
}

func setOptions(sel *widget.Select, options []string, selected string) {
	sel.Options = options
	if selected == "" {
		sel.ClearSelected()
	} else {
		sel.SetSelected(selected)
	}
	sel.Refresh()
}

func (t *Toolbar) SetDatasets(ids []string, selected string) {
	t.sync(func() { setOptions(t.datasetSelect, ids, selected) })
}

func (t *Toolbar) SetModalities(modalities []string, selected string) {
	t.sync(func() { setOptions(t.modalitySelect, modalities, selected) })
}

func (t *Toolbar) SetEffects(names []string, selected string) {
	t.sync(func() { setOptions(t.effectSelect, names, selected) })
}

func (t *Toolbar) SetHighlight(on bool) {
	t.sync(func() { t.highlightCheck.SetChecked(on) })
}

// SetSliceRange resizes the slider to [0, depth-1] and moves it to index.
func (t *Toolbar) SetSliceRange(depth, index int) {
	t.sync(func() {
		t.slider.Min = 0
		t.slider.Max = float64(max(depth-1, 0))
		t.slider.SetValue(float64(index))
		t.slider.Refresh()
	})
	t.EnableSliceOperations(depth > 0)
}

// EnableSliceOperations enables/disables volume-dependent controls
func (t *Toolbar) EnableSliceOperations(enabled bool) {
	for _, w := range []fyne.Disableable{t.saveButton, t.videoButton, t.framesButton} {
		if enabled {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}
