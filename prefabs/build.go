package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/milk9111/paperdoll/compositor"
)

var ErrUnknownSlot = errors.New("prefabs: unknown equipment slot")

// Appearance is a built AppearanceSpec: the compositor plus the slot names
// that address its layers.
type Appearance struct {
	*compositor.Compositor

	Name  string
	Slots map[string]int
	Scale float64
}

// Context returns the render context the appearance was authored for.
func (a *Appearance) Context() compositor.RenderContext {
	return compositor.RenderContext{Scale: a.Scale}
}

// Equip swaps the sheet shown in slot.
func (a *Appearance) Equip(slot, sheetID string) error {
	layer, ok := a.Slots[slot]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	return a.ReplaceSpriteSheetAtLayer(layer, sheetID)
}

// Equipped returns the sheet currently shown in slot.
func (a *Appearance) Equipped(slot string) (string, error) {
	layer, ok := a.Slots[slot]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	l, err := a.Layer(layer)
	if err != nil {
		return "", err
	}
	return l.SheetID, nil
}

// Dye tints the layer in slot. nil removes the tint.
func (a *Appearance) Dye(slot string, c color.Color) error {
	layer, ok := a.Slots[slot]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	return a.SetLayerTint(layer, c)
}

// Build turns spec into a ready to draw Appearance. When spec names an
// animation to play it is started.
func Build(spec *AppearanceSpec, backend compositor.Backend, sheets compositor.SheetProvider, opts ...compositor.Option) (*Appearance, error) {
	if spec == nil {
		return nil, fmt.Errorf("prefabs: nil appearance spec")
	}
	mode, err := compositor.ParseRenderMode(spec.RenderMode)
	if err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", spec.Name, err)
	}
	opts = append([]compositor.Option{compositor.WithRenderMode(mode)}, opts...)

	comp, err := compositor.New(spec.Width, spec.Height, backend, sheets, opts...)
	if err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", spec.Name, err)
	}

	app := &Appearance{
		Compositor: comp,
		Name:       spec.Name,
		Slots:      make(map[string]int),
		Scale:      spec.Scale,
	}

	for i, ls := range spec.Layers {
		layer := compositor.Layer{
			SheetID:     ls.Sheet,
			SpriteIndex: ls.Sprite,
			FrameWidth:  ls.FrameW,
			FrameHeight: ls.FrameH,
			OffsetX:     ls.OffsetX,
			OffsetY:     ls.OffsetY,
		}
		if ls.Tint != nil {
			layer.Tint = ls.Tint.Color
		}
		idx, err := comp.AddLayer(layer)
		if err != nil {
			return nil, fmt.Errorf("prefabs: %s: layer %d: %w", spec.Name, i, err)
		}
		if ls.Slot == "" {
			continue
		}
		if _, dup := app.Slots[ls.Slot]; dup {
			return nil, fmt.Errorf("prefabs: %s: duplicate slot %q", spec.Name, ls.Slot)
		}
		app.Slots[ls.Slot] = idx
	}

	for _, as := range spec.Animations {
		for _, target := range as.Layers {
			if target < 0 || target >= len(spec.Layers) {
				return nil, fmt.Errorf("prefabs: %s: animation %q: %w: %d", spec.Name, as.Name, compositor.ErrLayerOutOfRange, target)
			}
		}
		err := comp.AddAnim(compositor.AnimDef{
			Name:             as.Name,
			FrameDuration:    time.Duration(as.FrameMs) * time.Millisecond,
			Frames:           as.Frames,
			CycleLimit:       as.Cycles,
			Targets:          as.Layers,
			FlipX:            as.FlipX,
			FlipY:            as.FlipY,
			NewSheetID:       as.Sheet,
			LayerForNewSheet: as.SheetLayer,
		})
		if err != nil {
			return nil, fmt.Errorf("prefabs: %s: %w", spec.Name, err)
		}
	}

	if spec.Play != "" {
		if err := comp.Play(spec.Play); err != nil {
			return nil, fmt.Errorf("prefabs: %s: %w", spec.Name, err)
		}
	}
	return app, nil
}
