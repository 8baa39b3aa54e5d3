package compositor

import (
	"fmt"
	"image"
	"math"
)

// Render repaints the buffer: it is cleared, then every layer is drawn in
// index order so later layers cover earlier ones.
func (c *Compositor) Render(ctx RenderContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render(ctx)
}

// Draw places the buffer on target with its top-left corner at (x, y).
// In RealTime mode the buffer is repainted first; in PreRender mode the
// caller must Render after changing layers.
func (c *Compositor) Draw(target Canvas, x, y int, ctx RenderContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == RealTime {
		if err := c.render(ctx); err != nil {
			return err
		}
	}
	bounds := c.buffer.Bounds()
	dst := image.Rect(x, y, x+bounds.Dx(), y+bounds.Dy())
	return target.DrawImage(c.buffer, bounds, dst, DrawOptions{})
}

func (c *Compositor) render(ctx RenderContext) error {
	c.buffer.Clear()

	var opts DrawOptions
	if c.current != nil {
		opts.FlipX = c.current.FlipX
		opts.FlipY = c.current.FlipY
	}

	scale := ctx.scale()
	for i, l := range c.layers {
		sheet, err := c.sheets.Sheet(l.SheetID)
		if err != nil {
			return fmt.Errorf("compositor: layer %d: sheet %q: %w", i, l.SheetID, err)
		}
		clip, err := clipRect(l, sheet.Bounds(), ctx)
		if err != nil {
			return fmt.Errorf("compositor: layer %d: %w", i, err)
		}

		w := scaled(l.FrameWidth, scale)
		h := scaled(l.FrameHeight, scale)
		x := scaled(l.OffsetX, scale)
		y := scaled(l.OffsetY, scale)

		layerOpts := opts
		layerOpts.Tint = l.Tint
		if err := c.buffer.DrawImage(sheet, clip, image.Rect(x, y, x+w, y+h), layerOpts); err != nil {
			return fmt.Errorf("compositor: layer %d: %w", i, err)
		}
	}
	return nil
}

// clipRect locates the frame of l inside a sheet. Sheets are a grid of equal
// frames, as many per row as fit the sheet width, addressed by one index in
// row-major order.
func clipRect(l Layer, bounds image.Rectangle, ctx RenderContext) (image.Rectangle, error) {
	scale := ctx.scale()
	sheetW := bounds.Dx()
	if ctx.PrescaledSheets {
		sheetW = int(math.Floor(float64(sheetW) / scale))
	}
	cols := sheetW / l.FrameWidth
	if cols <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: frame width %d wider than sheet %d", ErrSpriteOutOfRange, l.FrameWidth, sheetW)
	}

	cx := (l.SpriteIndex % cols) * l.FrameWidth
	cy := (l.SpriteIndex / cols) * l.FrameHeight
	clip := image.Rect(cx, cy, cx+l.FrameWidth, cy+l.FrameHeight)
	if ctx.PrescaledSheets {
		sx, sy := scaled(cx, scale), scaled(cy, scale)
		clip = image.Rect(sx, sy, sx+scaled(l.FrameWidth, scale), sy+scaled(l.FrameHeight, scale))
	}
	clip = clip.Add(bounds.Min)

	if !clip.In(bounds) {
		return image.Rectangle{}, fmt.Errorf("%w: sprite %d clip %v not in %v", ErrSpriteOutOfRange, l.SpriteIndex, clip, bounds)
	}
	return clip, nil
}

func scaled(v int, scale float64) int {
	return int(math.Floor(float64(v) * scale))
}
