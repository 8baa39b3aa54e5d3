package compositor

import (
	"image"
	"image/color"
)

// Source is anything a Canvas can copy pixels from: a spritesheet or another
// Canvas.
type Source interface {
	Bounds() image.Rectangle
}

// DrawOptions modify a single blit.
type DrawOptions struct {
	// FlipX and FlipY mirror the clipped region inside the destination rect.
	FlipX bool
	FlipY bool
	// Tint multiplies the source colour. nil leaves it untouched.
	Tint color.Color
}

// Canvas is a drawing surface. DrawImage copies clip from src into dst,
// scaling when the two rectangles differ in size.
type Canvas interface {
	Source
	DrawImage(src Source, clip, dst image.Rectangle, opts DrawOptions) error
	Clear()
}

// Backend creates off-screen canvases.
type Backend interface {
	NewCanvas(width, height int) (Canvas, error)
}

// SheetProvider resolves a sheet id to an already loaded image.
type SheetProvider interface {
	Sheet(id string) (Source, error)
}

// RenderContext carries the environment a render reads but never owns.
type RenderContext struct {
	// Scale multiplies frame sizes and layer offsets. Zero means 1.
	Scale float64
	// PrescaledSheets reports that sheets were loaded already multiplied by
	// Scale, so clip rectangles are scaled too.
	PrescaledSheets bool
}

func (c RenderContext) scale() float64 {
	if c.Scale <= 0 {
		return 1
	}
	return c.Scale
}
