// Package raster draws composites on the CPU into *image.RGBA. It needs no
// graphics device, which makes it the backend for offline rendering and tests.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/milk9111/paperdoll/compositor"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var ErrUnsupportedSource = errors.New("raster: unsupported source")

// Canvas is a compositor.Canvas backed by an RGBA image.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas returns a transparent width x height canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Image exposes the pixels. The caller must not keep it across draws.
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// DrawImage composites clip of src over dst with nearest-neighbour scaling.
func (c *Canvas) DrawImage(src compositor.Source, clip, dst image.Rectangle, opts compositor.DrawOptions) error {
	var img image.Image
	switch s := src.(type) {
	case *Canvas:
		img = s.img
	case image.Image:
		img = s
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSource, src)
	}
	if clip.Empty() || dst.Empty() {
		return nil
	}

	if opts.Tint != nil {
		img = tint(img, clip, opts.Tint)
		clip = img.Bounds()
	}

	draw.NearestNeighbor.Transform(c.img, blitMatrix(clip, dst, opts.FlipX, opts.FlipY), img, clip, draw.Over, nil)
	return nil
}

// blitMatrix maps clip onto dst, mirrored inside dst on the flipped axes.
func blitMatrix(clip, dst image.Rectangle, flipX, flipY bool) f64.Aff3 {
	sx := float64(dst.Dx()) / float64(clip.Dx())
	sy := float64(dst.Dy()) / float64(clip.Dy())

	a, tx := sx, float64(dst.Min.X)-sx*float64(clip.Min.X)
	if flipX {
		a, tx = -sx, float64(dst.Min.X)+sx*float64(clip.Max.X)
	}
	e, ty := sy, float64(dst.Min.Y)-sy*float64(clip.Min.Y)
	if flipY {
		e, ty = -sy, float64(dst.Min.Y)+sy*float64(clip.Max.Y)
	}
	return f64.Aff3{
		a, 0, tx,
		0, e, ty,
	}
}

// tint multiplies every pixel of clip by c and returns the result anchored at
// the origin.
func tint(src image.Image, clip image.Rectangle, c color.Color) *image.RGBA {
	tr, tg, tb, ta := c.RGBA()
	out := image.NewRGBA(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			out.SetRGBA64(x-clip.Min.X, y-clip.Min.Y, color.RGBA64{
				R: uint16(r * tr / 0xffff),
				G: uint16(g * tg / 0xffff),
				B: uint16(b * tb / 0xffff),
				A: uint16(a * ta / 0xffff),
			})
		}
	}
	return out
}

// Backend hands out raster canvases.
type Backend struct{}

func (Backend) NewCanvas(width, height int) (compositor.Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid canvas size %dx%d", width, height)
	}
	return NewCanvas(width, height), nil
}
