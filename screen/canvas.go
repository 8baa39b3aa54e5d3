// Package screen draws composites on the GPU through ebiten images.
package screen

import (
	"errors"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/paperdoll/compositor"
)

var ErrUnsupportedSource = errors.New("screen: unsupported source")

// Canvas is a compositor.Canvas backed by an *ebiten.Image. Wrap the screen
// passed to Game.Draw with Wrap to use it as a Draw target.
type Canvas struct {
	img *ebiten.Image
}

// NewCanvas allocates an off-screen image.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: ebiten.NewImage(width, height)}
}

// Wrap adapts an existing ebiten image, typically the screen.
func Wrap(img *ebiten.Image) *Canvas {
	return &Canvas{img: img}
}

func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

func (c *Canvas) Image() *ebiten.Image { return c.img }

func (c *Canvas) Clear() { c.img.Clear() }

// DrawImage draws the clip of src into dst. Flips are real mirrored draws
// inside dst.
func (c *Canvas) DrawImage(src compositor.Source, clip, dst image.Rectangle, opts compositor.DrawOptions) error {
	var img *ebiten.Image
	switch s := src.(type) {
	case *Canvas:
		img = s.img
	case *ebiten.Image:
		img = s
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSource, src)
	}
	if clip.Empty() || dst.Empty() {
		return nil
	}
	sub, ok := img.SubImage(clip).(*ebiten.Image)
	if !ok {
		return fmt.Errorf("%w: sub image of %T", ErrUnsupportedSource, src)
	}

	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterNearest
	sx := float64(dst.Dx()) / float64(clip.Dx())
	sy := float64(dst.Dy()) / float64(clip.Dy())
	if opts.FlipX {
		op.GeoM.Translate(-float64(clip.Dx()), 0)
		op.GeoM.Scale(-1, 1)
	}
	if opts.FlipY {
		op.GeoM.Translate(0, -float64(clip.Dy()))
		op.GeoM.Scale(1, -1)
	}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Translate(float64(dst.Min.X), float64(dst.Min.Y))
	if opts.Tint != nil {
		op.ColorScale.ScaleWithColor(opts.Tint)
	}
	c.img.DrawImage(sub, op)
	return nil
}

// Backend hands out off-screen ebiten canvases.
type Backend struct{}

func (Backend) NewCanvas(width, height int) (compositor.Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("screen: invalid canvas size %dx%d", width, height)
	}
	return NewCanvas(width, height), nil
}
