package components

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"
)

const (
	ImageAreaWidth  = 480
	ImageAreaHeight = 480
)

// ImageDisplay shows the current slice, or a placeholder when there is none.
type ImageDisplay struct {
	container   *fyne.Container
	title       *widget.RichText
	image       *canvas.Image
	placeholder image.Image
	hasImage    bool
}

func NewImageDisplay() *ImageDisplay {
	id := &ImageDisplay{placeholder: placeholderImage()}

	id.image = canvas.NewImageFromImage(id.placeholder)
	id.image.FillMode = canvas.ImageFillContain
	// slices are small; keep voxels crisp when scaled up
	id.image.ScaleMode = canvas.ImageScalePixels
	id.image.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))

	id.title = widget.NewRichTextFromMarkdown("**Corte**")
	id.container = container.NewBorder(
		container.NewHBox(id.title),
		nil, nil, nil,
		container.NewStack(canvas.NewRectangle(color.Black), id.image),
	)
	return id
}

// placeholderImage is a dark frame with a lighter border.
func placeholderImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, ImageAreaWidth, ImageAreaHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 200, G: 200, B: 200, A: 255}}, image.Point{}, draw.Src)
	inner := img.Bounds().Inset(2)
	draw.Draw(img, inner, &image.Uniform{C: color.RGBA{R: 40, G: 40, B: 40, A: 255}}, image.Point{}, draw.Src)
	return img
}

// SetImage replaces the displayed slice. nil shows the placeholder. Must run
// on the fyne goroutine.
func (id *ImageDisplay) SetImage(img image.Image, title string) {
	if img == nil {
		id.image.Image = id.placeholder
		id.hasImage = false
	} else {
		id.image.Image = img
		id.hasImage = true
	}
	id.title.ParseMarkdown("**" + title + "**")
	id.image.Refresh()
}

func (id *ImageDisplay) HasImage() bool {
	return id.hasImage
}

func (id *ImageDisplay) GetContainer() *fyne.Container {
	return id.container
}
